package neo4j

import (
	"context"
	"testing"

	drv "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

type recordedWrite struct {
	cypher string
	params map[string]any
}

type fakeRunner struct {
	writes []recordedWrite
	reads  []recordedWrite
	result []*drv.Record
	err    error
}

func (f *fakeRunner) ExecuteWrite(_ context.Context, cypher string, params map[string]any) error {
	f.writes = append(f.writes, recordedWrite{cypher: cypher, params: params})
	return f.err
}

func (f *fakeRunner) ExecuteRead(_ context.Context, cypher string, params map[string]any) ([]*drv.Record, error) {
	f.reads = append(f.reads, recordedWrite{cypher: cypher, params: params})
	return f.result, f.err
}

func (f *fakeRunner) Close(context.Context) error { return nil }

func idRecord(id string) *drv.Record {
	return &drv.Record{Keys: []string{"id"}, Values: []any{id}}
}

func newSmallModel(t *testing.T) *biochem.Model {
	t.Helper()
	model := biochem.NewModel("iTiny")
	atp := &biochem.Metabolite{ID: "atp_c", Name: "ATP", Compartment: "c"}
	adp := &biochem.Metabolite{ID: "adp_c", Name: "ADP", Compartment: "c"}
	require.NoError(t, model.AddMetabolite(atp))
	require.NoError(t, model.AddMetabolite(adp))

	hydrolysis := &biochem.Reaction{
		ID:          "ATPH",
		Name:        "ATP hydrolysis",
		Metabolites: map[*biochem.Metabolite]float64{atp: -1, adp: 1},
		Genes:       []*biochem.Gene{{ID: "b0001"}},
	}
	require.NoError(t, model.AddReaction(hydrolysis))
	return model
}

func TestLoadModelIssuesGraphWrites(t *testing.T) {
	runner := &fakeRunner{}
	store := NewStoreWithRunner(runner, logging.NewNop())

	require.NoError(t, store.LoadModel(context.Background(), newSmallModel(t)))

	// Clear, compounds, substrates, products, genes.
	require.Len(t, runner.writes, 5)
	assert.Contains(t, runner.writes[0].cypher, "DETACH DELETE")
	assert.Equal(t, "iTiny", runner.writes[0].params["model"])

	mets := runner.writes[1].params["mets"].([]map[string]any)
	assert.Len(t, mets, 2)

	rxns := runner.writes[2].params["rxns"].([]map[string]any)
	require.Len(t, rxns, 1)
	assert.Equal(t, "ATPH", rxns[0]["id"])
	assert.Equal(t, []string{"atp_c"}, rxns[0]["substrates"])
	assert.Equal(t, []string{"adp_c"}, rxns[0]["products"])
	assert.Equal(t, []string{"b0001"}, rxns[0]["genes"])
}

func TestReactionsConsuming(t *testing.T) {
	runner := &fakeRunner{result: []*drv.Record{idRecord("ATPH"), idRecord("PGK")}}
	store := NewStoreWithRunner(runner, logging.NewNop())

	ids, err := store.ReactionsConsuming(context.Background(), "iTiny", "atp_c")
	require.NoError(t, err)
	assert.Equal(t, []string{"ATPH", "PGK"}, ids)
	require.Len(t, runner.reads, 1)
	assert.Equal(t, "atp_c", runner.reads[0].params["cpd"])
}

func TestSharedReactions(t *testing.T) {
	runner := &fakeRunner{result: []*drv.Record{idRecord("rxn00216_c0")}}
	store := NewStoreWithRunner(runner, logging.NewNop())

	ids, err := store.SharedReactions(context.Background(), "iTiny", "iRef")
	require.NoError(t, err)
	assert.Equal(t, []string{"rxn00216_c0"}, ids)
}
