package curation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/database/postgres"
	"github.com/modelseed/kbutil/internal/infrastructure/llm"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/pkg/errors"
)

type fakeChatter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeChatter) Chat(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.reply, Model: "fake"}, nil
}

func (f *fakeChatter) Name() string { return "fake" }

type fakeRepo struct {
	created  []*postgres.Curation
	existing map[string]*postgres.Curation // keyed by entity ID
	approved []*postgres.Curation
}

func (f *fakeRepo) Create(_ context.Context, c *postgres.Curation) error {
	c.ID = uuid.New()
	f.created = append(f.created, c)
	return nil
}

func (f *fakeRepo) FindProposal(_ context.Context, _, _, entityID string) (*postgres.Curation, error) {
	if c, ok := f.existing[entityID]; ok {
		return c, nil
	}
	return nil, errors.NotFound("no proposal")
}

func (f *fakeRepo) ListByModel(_ context.Context, _, status string) ([]*postgres.Curation, error) {
	if status == postgres.CurationApproved {
		return f.approved, nil
	}
	return nil, nil
}

func (f *fakeRepo) Decide(context.Context, uuid.UUID, bool) error { return nil }

func newTestDB(t *testing.T) *biochem.Database {
	t.Helper()
	db, err := biochem.NewDatabase([]*biochem.Compound{
		{ID: "cpd00027", Name: "D-Glucose", Formula: "C6H12O6"},
	}, nil)
	require.NoError(t, err)
	return db
}

func newTestModel(t *testing.T) *biochem.Model {
	t.Helper()
	model := biochem.NewModel("iTiny")
	require.NoError(t, model.AddMetabolite(&biochem.Metabolite{
		ID: "glc__D_c", Name: "D-Glucose", Formula: "C6H12O6", Compartment: "c",
	}))
	require.NoError(t, model.AddMetabolite(&biochem.Metabolite{
		ID: "glc__D_e", Name: "D-Glucose", Formula: "C6H12O6", Compartment: "e",
	}))
	require.NoError(t, model.AddMetabolite(&biochem.Metabolite{
		ID: "atp_c", Name: "ATP", Compartment: "c",
	}))
	return model
}

func emptyTranslation() *biochem.Translation {
	return &biochem.Translation{
		CompoundCandidates: map[string]biochem.CompoundMatches{},
		ReactionCandidates: map[string]biochem.ReactionMatches{},
		Compounds:          map[string]string{},
		Reactions:          map[string]string{},
		ReactionMatchTypes: map[string]string{},
	}
}

func newTestService(t *testing.T, chatter llm.Chatter, repo Repository) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return NewService(newTestDB(t), chatter, repo, m, logging.NewNop()), m
}

func TestProposeCompounds(t *testing.T) {
	chatter := &fakeChatter{reply: `{"id": "cpd00027", "confidence": 0.9, "rationale": "name and formula agree"}`}
	repo := &fakeRepo{}
	svc, m := newTestService(t, chatter, repo)

	model := newTestModel(t)
	tr := emptyTranslation()
	tr.CommitCompound("atp", "cpd00002") // settled, must not be proposed

	created, err := svc.ProposeCompounds(context.Background(), model, tr)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "glc__D", repo.created[0].EntityID)
	assert.Equal(t, "cpd00027", repo.created[0].ProposedID)
	assert.Equal(t, "fake", repo.created[0].Backend)

	// One call per unsettled base, not per metabolite.
	assert.Len(t, chatter.prompts, 1)
	assert.Contains(t, chatter.prompts[0], "glc__D_c")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("fake", "ok")))
}

func TestProposeCompoundsSkipsExistingProposals(t *testing.T) {
	chatter := &fakeChatter{reply: `{"id": "cpd00027"}`}
	repo := &fakeRepo{existing: map[string]*postgres.Curation{
		"glc__D": {EntityID: "glc__D"},
		"atp":    {EntityID: "atp"},
	}}
	svc, _ := newTestService(t, chatter, repo)

	created, err := svc.ProposeCompounds(context.Background(), newTestModel(t), emptyTranslation())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, chatter.prompts)
}

func TestProposeCompoundsToleratesAdvisorFailure(t *testing.T) {
	chatter := &fakeChatter{err: errors.New(errors.ErrCodeLLMUnavailable, "gateway down")}
	repo := &fakeRepo{}
	svc, m := newTestService(t, chatter, repo)

	created, err := svc.ProposeCompounds(context.Background(), newTestModel(t), emptyTranslation())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("fake", "error")))
}

func TestProposeCompoundsSkipsEmptyProposal(t *testing.T) {
	chatter := &fakeChatter{reply: `The compound is unknown. {"id": "", "confidence": 0.1, "rationale": "no candidate"}`}
	repo := &fakeRepo{}
	svc, _ := newTestService(t, chatter, repo)

	created, err := svc.ProposeCompounds(context.Background(), newTestModel(t), emptyTranslation())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Empty(t, repo.created)
}

func TestApplyApproved(t *testing.T) {
	repo := &fakeRepo{approved: []*postgres.Curation{
		{EntityType: "compound", EntityID: "glc__D", ProposedID: "cpd00027"},
		{EntityType: "reaction", EntityID: "HEX1", ProposedID: "rxn00216"},
	}}
	svc, _ := newTestService(t, &fakeChatter{}, repo)

	model := newTestModel(t)
	tr := emptyTranslation()
	applied, err := svc.ApplyApproved(context.Background(), model, tr)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	// Base and both compartment forms resolve.
	assert.Equal(t, "cpd00027", tr.Compounds["glc__D"])
	assert.Equal(t, "cpd00027", tr.Compounds["glc__D_c"])
	assert.Equal(t, "cpd00027", tr.Compounds["glc__D_e"])
	assert.Equal(t, "rxn00216", tr.Reactions["HEX1"])
	assert.Equal(t, "curated", tr.ReactionMatchTypes["HEX1"])
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"id": "x"}`, extractJSON("```json\n{\"id\": \"x\"}\n```"))
	assert.Equal(t, `{"id": "x"}`, extractJSON(`{"id": "x"}`))
	assert.Equal(t, "no braces", extractJSON("no braces"))
}
