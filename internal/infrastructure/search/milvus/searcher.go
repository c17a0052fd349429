// Package milvus indexes protein embeddings so unannotated genes can be
// matched to curated proteins by vector similarity.
package milvus

import (
	"context"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

const (
	fieldProteinID = "protein_id"
	fieldGenomeID  = "genome_id"
	fieldEmbedding = "embedding"
)

// API is the slice of the milvus client the searcher uses.
type API interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Insert(ctx context.Context, collName, partitionName string, columns ...entity.Column) (entity.Column, error)
	Flush(ctx context.Context, collName string, async bool, opts ...client.FlushOption) error
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// Protein is one embedded protein record.
type Protein struct {
	ID        string
	GenomeID  string
	Embedding []float32
}

// Hit is one similarity-search result.
type Hit struct {
	ProteinID string
	GenomeID  string
	Score     float32
}

// Searcher indexes and queries protein embeddings.
type Searcher struct {
	client     API
	collection string
	dim        int
	topK       int
	log        logging.Logger
}

// NewSearcher dials milvus and ensures the protein collection exists.
func NewSearcher(ctx context.Context, cfg config.MilvusConfig, log logging.Logger) (*Searcher, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mc, err := client.NewClient(dialCtx, client.Config{Address: cfg.Addr})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorError, "connecting to vector store")
	}
	s := &Searcher{
		client:     mc,
		collection: cfg.Collection,
		dim:        cfg.EmbeddingDim,
		topK:       cfg.DefaultTopK,
		log:        log,
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	log.Info("vector store connected",
		logging.String("addr", cfg.Addr),
		logging.String("collection", cfg.Collection))
	return s, nil
}

// NewSearcherWithAPI builds a Searcher over an existing API without dialing
// or collection setup.
func NewSearcherWithAPI(api API, cfg config.MilvusConfig, log logging.Logger) *Searcher {
	return &Searcher{client: api, collection: cfg.Collection, dim: cfg.EmbeddingDim, topK: cfg.DefaultTopK, log: log}
}

// Close releases the underlying connection.
func (s *Searcher) Close() error {
	return s.client.Close()
}

func (s *Searcher) ensureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "checking collection")
	}
	if exists {
		return s.load(ctx)
	}

	schema := entity.NewSchema().
		WithName(s.collection).
		WithDescription("protein embeddings for annotation transfer").
		WithField(entity.NewField().WithName(fieldProteinID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(128).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldGenomeID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64)).
		WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

	if err := s.client.CreateCollection(ctx, schema, 1); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "creating collection")
	}

	index, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "building index params")
	}
	if err := s.client.CreateIndex(ctx, s.collection, fieldEmbedding, index, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "creating index")
	}
	s.log.Info("created protein collection", logging.String("collection", s.collection))
	return s.load(ctx)
}

func (s *Searcher) load(ctx context.Context) error {
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "loading collection")
	}
	return nil
}

// IndexProteins inserts protein embeddings and flushes the collection.
func (s *Searcher) IndexProteins(ctx context.Context, proteins []Protein) error {
	if len(proteins) == 0 {
		return nil
	}
	ids := make([]string, len(proteins))
	genomes := make([]string, len(proteins))
	vectors := make([][]float32, len(proteins))
	for i, p := range proteins {
		if len(p.Embedding) != s.dim {
			return errors.Newf(errors.ErrCodeVectorError,
				"embedding for %s has dimension %d, want %d", p.ID, len(p.Embedding), s.dim)
		}
		ids[i] = p.ID
		genomes[i] = p.GenomeID
		vectors[i] = p.Embedding
	}

	_, err := s.client.Insert(ctx, s.collection, "",
		entity.NewColumnVarChar(fieldProteinID, ids),
		entity.NewColumnVarChar(fieldGenomeID, genomes),
		entity.NewColumnFloatVector(fieldEmbedding, s.dim, vectors))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "inserting embeddings")
	}
	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorError, "flushing collection")
	}
	s.log.Info("indexed proteins", logging.Int("count", len(proteins)))
	return nil
}

// SearchSimilar returns the closest indexed proteins for one query
// embedding. topK <= 0 falls back to the configured default.
func (s *Searcher) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]Hit, error) {
	if len(embedding) != s.dim {
		return nil, errors.Newf(errors.ErrCodeVectorError,
			"query embedding has dimension %d, want %d", len(embedding), s.dim)
	}
	if topK <= 0 {
		topK = s.topK
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorError, "building search params")
	}
	results, err := s.client.Search(ctx, s.collection, nil, "",
		[]string{fieldProteinID, fieldGenomeID},
		[]entity.Vector{entity.FloatVector(embedding)},
		fieldEmbedding, entity.COSINE, topK, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorError, "searching embeddings")
	}

	var hits []Hit
	for _, res := range results {
		ids := varCharColumn(res.Fields, fieldProteinID)
		genomes := varCharColumn(res.Fields, fieldGenomeID)
		for i := 0; i < res.ResultCount; i++ {
			hit := Hit{Score: res.Scores[i]}
			if i < len(ids) {
				hit.ProteinID = ids[i]
			}
			if i < len(genomes) {
				hit.GenomeID = genomes[i]
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func varCharColumn(fields []entity.Column, name string) []string {
	for _, col := range fields {
		if col.Name() != name {
			continue
		}
		if vc, ok := col.(*entity.ColumnVarChar); ok {
			return vc.Data()
		}
	}
	return nil
}
