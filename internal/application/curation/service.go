// Package curation turns the matcher's unsettled leftovers into reviewable
// proposals. A language-model advisor suggests an identifier for each
// unsettled entity; the suggestions are persisted as pending curations and
// only take effect once a reviewer approves them.
package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/database/postgres"
	"github.com/modelseed/kbutil/internal/infrastructure/llm"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/pkg/errors"
)

const advisorSystemPrompt = `You map metabolic model entities to the ModelSEED namespace.
Reply with a single JSON object: {"id": "<cpdNNNNN or rxnNNNNN or empty>", "confidence": <0..1>, "rationale": "<one sentence>"}.
Reply with an empty id when no candidate is convincing.`

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, c *postgres.Curation) error
	FindProposal(ctx context.Context, modelID, entityType, entityID string) (*postgres.Curation, error)
	ListByModel(ctx context.Context, modelID, status string) ([]*postgres.Curation, error)
	Decide(ctx context.Context, id uuid.UUID, approved bool) error
}

// Service proposes and applies curated translations.
type Service struct {
	db      *biochem.Database
	chatter llm.Chatter
	repo    Repository
	metrics *metrics.Metrics
	log     logging.Logger
}

// NewService wires the curation pipeline.
func NewService(db *biochem.Database, chatter llm.Chatter, repo Repository, m *metrics.Metrics, log logging.Logger) *Service {
	return &Service{db: db, chatter: chatter, repo: repo, metrics: m, log: log}
}

// proposal is the JSON shape the advisor must reply with.
type proposal struct {
	ID         string  `json:"id"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// ProposeCompounds asks the advisor about every base compound that the
// translation left unsettled and stores the answers as pending curations.
// Entities with an existing proposal are skipped. Returns the number of new
// proposals stored.
func (s *Service) ProposeCompounds(ctx context.Context, model *biochem.Model, tr *biochem.Translation) (int, error) {
	unsettled := unsettledCompounds(model, tr)
	created := 0
	for _, base := range unsettled {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		if _, err := s.repo.FindProposal(ctx, model.ID, "compound", base); err == nil {
			continue
		}

		met := firstMetaboliteWithBase(model, base)
		if met == nil {
			continue
		}
		prop, err := s.ask(ctx, compoundPrompt(met, tr.CompoundCandidates[base], s.db))
		if err != nil {
			s.log.Warn("advisor call failed",
				logging.String("entity", base),
				logging.Error(err))
			continue
		}
		if prop.ID == "" {
			continue
		}
		curation := &postgres.Curation{
			ModelID:    model.ID,
			EntityType: "compound",
			EntityID:   base,
			ProposedID: prop.ID,
			Confidence: prop.Confidence,
			Rationale:  prop.Rationale,
			Backend:    s.chatter.Name(),
		}
		if err := s.repo.Create(ctx, curation); err != nil {
			return created, err
		}
		created++
	}
	s.log.Info("compound proposals stored",
		logging.String("model", model.ID),
		logging.Int("unsettled", len(unsettled)),
		logging.Int("proposed", created))
	return created, nil
}

// ApplyApproved commits every approved curation for the model into the
// translation so a subsequent Apply pass renames those entities too.
// Returns the number of commits.
func (s *Service) ApplyApproved(ctx context.Context, model *biochem.Model, tr *biochem.Translation) (int, error) {
	approved, err := s.repo.ListByModel(ctx, model.ID, postgres.CurationApproved)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, c := range approved {
		switch c.EntityType {
		case "compound":
			if tr.CommitCompound(c.EntityID, c.ProposedID) {
				// Alias every metabolite sharing the base so the applier
				// can resolve full IDs.
				for _, met := range model.Metabolites() {
					parsed := biochem.ParseID(met.ID, s.log)
					if parsed.Base == c.EntityID {
						tr.CommitCompound(met.ID, c.ProposedID)
					}
				}
				applied++
			}
		case "reaction":
			if tr.CommitReaction(c.EntityID, c.ProposedID, "curated") {
				applied++
			}
		default:
			return applied, errors.Newf(errors.ErrCodeValidation, "unknown entity type %q", c.EntityType)
		}
	}
	return applied, nil
}

// Decide forwards a reviewer decision.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, approved bool) error {
	return s.repo.Decide(ctx, id, approved)
}

// Pending lists the open curations for a model.
func (s *Service) Pending(ctx context.Context, modelID string) ([]*postgres.Curation, error) {
	return s.repo.ListByModel(ctx, modelID, postgres.CurationPending)
}

func (s *Service) ask(ctx context.Context, prompt string) (*proposal, error) {
	resp, err := s.chatter.Chat(ctx, llm.Request{System: advisorSystemPrompt, Prompt: prompt})
	if err != nil {
		s.metrics.LLMCallsTotal.WithLabelValues(s.chatter.Name(), "error").Inc()
		return nil, err
	}
	s.metrics.LLMCallsTotal.WithLabelValues(s.chatter.Name(), "ok").Inc()

	var prop proposal
	if err := json.Unmarshal([]byte(extractJSON(resp.Text)), &prop); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "decoding advisor proposal")
	}
	return &prop, nil
}

// extractJSON tolerates advisors that wrap the object in prose or fences.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func compoundPrompt(met *biochem.Metabolite, candidates biochem.CompoundMatches, db *biochem.Database) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model compound %s (%s), formula %s, charge %d.\n", met.ID, met.Name, met.Formula, met.Charge)
	for ns, vals := range met.Annotation {
		fmt.Fprintf(&sb, "Annotation %s: %s\n", ns, strings.Join(vals, ", "))
	}
	if len(candidates) > 0 {
		sb.WriteString("Weak candidates found by matching:\n")
		ranked := make([]*biochem.CompoundCandidate, 0, len(candidates))
		for _, cand := range candidates {
			ranked = append(ranked, cand)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Score != ranked[j].Score {
				return ranked[i].Score > ranked[j].Score
			}
			return ranked[i].ID < ranked[j].ID
		})
		for _, cand := range ranked {
			if cpd, ok := db.Compound(cand.ID); ok {
				fmt.Fprintf(&sb, "- %s (%s, %s) score %.1f\n", cpd.ID, cpd.Name, cpd.Formula, cand.Score)
			}
		}
	}
	sb.WriteString("Which ModelSEED compound is this?")
	return sb.String()
}

func unsettledCompounds(model *biochem.Model, tr *biochem.Translation) []string {
	seen := map[string]bool{}
	var out []string
	for _, met := range model.Metabolites() {
		parsed := biochem.ParseID(met.ID, nil)
		if seen[parsed.Base] {
			continue
		}
		seen[parsed.Base] = true
		if _, ok := tr.Compounds[parsed.Base]; !ok {
			out = append(out, parsed.Base)
		}
	}
	sort.Strings(out)
	return out
}

func firstMetaboliteWithBase(model *biochem.Model, base string) *biochem.Metabolite {
	for _, met := range model.Metabolites() {
		if biochem.ParseID(met.ID, nil).Base == base {
			return met
		}
	}
	return nil
}
