// Package neo4j mirrors standardized models into a property graph so
// curators can query compound and reaction connectivity across models.
package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// Runner abstracts the write/read execution surface of a neo4j session so
// tests can substitute a fake.
type Runner interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) error
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	Close(ctx context.Context) error
}

type sessionRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *sessionRunner) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database, AccessMode: mode})
}

func (r *sessionRunner) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

func (r *sessionRunner) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return records.([]*neo4j.Record), nil
}

func (r *sessionRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Store loads models into the graph and answers connectivity queries.
type Store struct {
	runner Runner
	log    logging.Logger
}

// NewStore dials the graph database and verifies connectivity.
func NewStore(ctx context.Context, cfg config.Neo4jConfig, log logging.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			}
			if cfg.ConnectionTimeout > 0 {
				c.SocketConnectTimeout = cfg.ConnectionTimeout
			}
		})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "creating graph driver")
	}
	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "connecting to graph database")
	}
	log.Info("graph database connected", logging.String("uri", cfg.URI))
	return &Store{runner: &sessionRunner{driver: driver, database: cfg.Database}, log: log}, nil
}

// NewStoreWithRunner builds a Store over an existing Runner without dialing.
func NewStoreWithRunner(runner Runner, log logging.Logger) *Store {
	return &Store{runner: runner, log: log}
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

// LoadModel mirrors one model into the graph. Existing nodes and edges for
// the model are replaced.
func (s *Store) LoadModel(ctx context.Context, model *biochem.Model) error {
	if err := s.ClearModel(ctx, model.ID); err != nil {
		return err
	}

	mets := make([]map[string]any, 0, len(model.Metabolites()))
	for _, met := range model.Metabolites() {
		mets = append(mets, map[string]any{
			"id":          met.ID,
			"name":        met.Name,
			"formula":     met.Formula,
			"compartment": met.Compartment,
		})
	}
	if err := s.runner.ExecuteWrite(ctx, `
		UNWIND $mets AS m
		MERGE (c:Compound {id: m.id, model: $model})
		SET c.name = m.name, c.formula = m.formula, c.compartment = m.compartment`,
		map[string]any{"mets": mets, "model": model.ID}); err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "loading compounds")
	}

	rxns := make([]map[string]any, 0, len(model.Reactions()))
	for _, rxn := range model.Reactions() {
		substrates := make([]string, 0)
		products := make([]string, 0)
		for met, coef := range rxn.Metabolites {
			if coef < 0 {
				substrates = append(substrates, met.ID)
			} else if coef > 0 {
				products = append(products, met.ID)
			}
		}
		genes := make([]string, 0, len(rxn.Genes))
		for _, g := range rxn.Genes {
			genes = append(genes, g.ID)
		}
		rxns = append(rxns, map[string]any{
			"id":         rxn.ID,
			"name":       rxn.Name,
			"substrates": substrates,
			"products":   products,
			"genes":      genes,
		})
	}
	if err := s.runner.ExecuteWrite(ctx, `
		UNWIND $rxns AS r
		MERGE (rx:Reaction {id: r.id, model: $model})
		SET rx.name = r.name
		WITH rx, r
		UNWIND r.substrates AS sid
		MATCH (c:Compound {id: sid, model: $model})
		MERGE (c)-[:CONSUMED_BY]->(rx)`,
		map[string]any{"rxns": rxns, "model": model.ID}); err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "loading reaction substrates")
	}
	if err := s.runner.ExecuteWrite(ctx, `
		UNWIND $rxns AS r
		MATCH (rx:Reaction {id: r.id, model: $model})
		UNWIND r.products AS pid
		MATCH (c:Compound {id: pid, model: $model})
		MERGE (rx)-[:PRODUCES]->(c)`,
		map[string]any{"rxns": rxns, "model": model.ID}); err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "loading reaction products")
	}
	if err := s.runner.ExecuteWrite(ctx, `
		UNWIND $rxns AS r
		MATCH (rx:Reaction {id: r.id, model: $model})
		UNWIND r.genes AS gid
		MERGE (g:Gene {id: gid, model: $model})
		MERGE (g)-[:CATALYZES]->(rx)`,
		map[string]any{"rxns": rxns, "model": model.ID}); err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "loading gene links")
	}

	s.log.Info("model loaded into graph",
		logging.String("model", model.ID),
		logging.Int("compounds", len(mets)),
		logging.Int("reactions", len(rxns)))
	return nil
}

// ClearModel removes all nodes belonging to a model.
func (s *Store) ClearModel(ctx context.Context, modelID string) error {
	err := s.runner.ExecuteWrite(ctx,
		`MATCH (n {model: $model}) DETACH DELETE n`,
		map[string]any{"model": modelID})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeGraphError, "clearing model")
	}
	return nil
}

// ReactionsConsuming returns the IDs of reactions in a model that consume
// the given compound.
func (s *Store) ReactionsConsuming(ctx context.Context, modelID, compoundID string) ([]string, error) {
	records, err := s.runner.ExecuteRead(ctx, `
		MATCH (c:Compound {id: $cpd, model: $model})-[:CONSUMED_BY]->(rx:Reaction)
		RETURN rx.id AS id ORDER BY id`,
		map[string]any{"cpd": compoundID, "model": modelID})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "querying consumers")
	}
	return collectIDs(records), nil
}

// SharedReactions returns reaction IDs present in both models, matched by
// node ID. Useful after both models are standardized to a common namespace.
func (s *Store) SharedReactions(ctx context.Context, modelA, modelB string) ([]string, error) {
	records, err := s.runner.ExecuteRead(ctx, `
		MATCH (a:Reaction {model: $a}), (b:Reaction {model: $b})
		WHERE a.id = b.id
		RETURN a.id AS id ORDER BY id`,
		map[string]any{"a": modelA, "b": modelB})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGraphError, "querying shared reactions")
	}
	return collectIDs(records), nil
}

func collectIDs(records []*neo4j.Record) []string {
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Get("id"); ok {
			if id, ok := v.(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
