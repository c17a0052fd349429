package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// Curation statuses.
const (
	CurationPending  = "pending"
	CurationApproved = "approved"
	CurationRejected = "rejected"
)

// Curation is one reviewed (or reviewable) identifier suggestion: an entity
// the matcher could not settle, a proposed ModelSEED ID, and the reviewer's
// decision.
type Curation struct {
	ID         uuid.UUID
	ModelID    string
	EntityType string // "compound" | "reaction"
	EntityID   string
	ProposedID string
	Confidence float64
	Rationale  string
	Backend    string // which advisor produced the proposal
	Status     string
	CreatedAt  time.Time
	DecidedAt  *time.Time
}

// Querier is the slice of pgxpool the repository uses; tests substitute a
// fake.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CurationRepository persists curation records.
type CurationRepository struct {
	db  Querier
	log logging.Logger
}

// NewCurationRepository builds a repository over a pool or transaction.
func NewCurationRepository(db Querier, log logging.Logger) *CurationRepository {
	return &CurationRepository{db: db, log: log}
}

const curationColumns = `id, model_id, entity_type, entity_id, proposed_id,
	confidence, rationale, backend, status, created_at, decided_at`

// Create inserts a new pending curation and returns it with its assigned ID.
func (r *CurationRepository) Create(ctx context.Context, c *Curation) error {
	c.ID = uuid.New()
	c.Status = CurationPending
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx, `
		INSERT INTO curations (id, model_id, entity_type, entity_id, proposed_id,
			confidence, rationale, backend, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.ModelID, c.EntityType, c.EntityID, c.ProposedID,
		c.Confidence, c.Rationale, c.Backend, c.Status, c.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting curation")
	}
	r.log.Debug("curation created",
		logging.String("model", c.ModelID),
		logging.String("entity", c.EntityID),
		logging.String("proposed", c.ProposedID))
	return nil
}

// Get fetches one curation by ID.
func (r *CurationRepository) Get(ctx context.Context, id uuid.UUID) (*Curation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+curationColumns+` FROM curations WHERE id = $1`, id)
	c, err := scanCuration(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("curation " + id.String() + " not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "fetching curation")
	}
	return c, nil
}

// FindProposal looks up an existing proposal for a model entity, regardless
// of status. Used to avoid re-asking the advisor for settled entities.
func (r *CurationRepository) FindProposal(ctx context.Context, modelID, entityType, entityID string) (*Curation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+curationColumns+` FROM curations
		WHERE model_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC LIMIT 1`,
		modelID, entityType, entityID)
	c, err := scanCuration(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("no proposal for " + entityID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "fetching proposal")
	}
	return c, nil
}

// ListByModel returns all curations for a model, optionally filtered by
// status, newest first.
func (r *CurationRepository) ListByModel(ctx context.Context, modelID, status string) ([]*Curation, error) {
	query := `SELECT ` + curationColumns + ` FROM curations WHERE model_id = $1`
	args := []any{modelID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing curations")
	}
	defer rows.Close()

	var out []*Curation
	for rows.Next() {
		c, err := scanCuration(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning curation")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "reading curations")
	}
	return out, nil
}

// Decide marks a pending curation approved or rejected.
func (r *CurationRepository) Decide(ctx context.Context, id uuid.UUID, approved bool) error {
	status := CurationRejected
	if approved {
		status = CurationApproved
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE curations SET status = $2, decided_at = $3
		WHERE id = $1 AND status = $4`,
		id, status, time.Now().UTC(), CurationPending)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "updating curation")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeConflict, "curation %s is not pending", id)
	}
	return nil
}

func scanCuration(row pgx.Row) (*Curation, error) {
	var c Curation
	err := row.Scan(&c.ID, &c.ModelID, &c.EntityType, &c.EntityID, &c.ProposedID,
		&c.Confidence, &c.Rationale, &c.Backend, &c.Status, &c.CreatedAt, &c.DecidedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
