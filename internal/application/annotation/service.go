// Package annotation enriches model genes with external evidence: proteomes
// from BV-BRC, functional annotations from UniProt, and embedding-based
// protein similarity. Remote responses are cached so repeated runs against
// the same genome do not hammer the upstream APIs.
package annotation

import (
	"context"
	"time"

	"github.com/modelseed/kbutil/internal/infrastructure/cache/redis"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/internal/infrastructure/search/milvus"
	"github.com/modelseed/kbutil/pkg/bvbrc"
	"github.com/modelseed/kbutil/pkg/errors"
	"github.com/modelseed/kbutil/pkg/uniprot"
)

const (
	genomeTTL = 7 * 24 * time.Hour
	entryTTL  = 30 * 24 * time.Hour
)

// GenomeClient is the slice of the BV-BRC API the service consumes.
type GenomeClient interface {
	GetGenome(ctx context.Context, genomeID string) (*bvbrc.Genome, error)
	GetGenomeFeatures(ctx context.Context, genomeID string) ([]bvbrc.Feature, error)
	GetSequences(ctx context.Context, md5s []string) (map[string]string, error)
}

// ProteinClient is the slice of the UniProt API the service consumes.
type ProteinClient interface {
	GetEntry(ctx context.Context, accession string) (*uniprot.Entry, error)
}

// Similarity finds proteins near an embedding vector.
type Similarity interface {
	SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]milvus.Hit, error)
}

// Service coordinates the external annotation sources.
type Service struct {
	genomes  GenomeClient
	proteins ProteinClient
	cache    redis.Cache
	similar  Similarity
	log      logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches remote responses.
func WithCache(cache redis.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithSimilarity enables embedding-based protein lookups.
func WithSimilarity(sim Similarity) Option {
	return func(s *Service) { s.similar = sim }
}

// NewService builds the annotation service.
func NewService(genomes GenomeClient, proteins ProteinClient, log logging.Logger, opts ...Option) *Service {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Service{genomes: genomes, proteins: proteins, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenomeProteins returns the proteome of a BV-BRC genome keyed by PATRIC
// feature ID.
func (s *Service) GenomeProteins(ctx context.Context, genomeID string) (map[string]string, error) {
	load := func(ctx context.Context) (interface{}, error) {
		features, err := s.genomes.GetGenomeFeatures(ctx, genomeID)
		if err != nil {
			return nil, err
		}
		md5s := make([]string, 0, len(features))
		for _, f := range features {
			if f.AASequenceMD5 != "" {
				md5s = append(md5s, f.AASequenceMD5)
			}
		}
		sequences, err := s.genomes.GetSequences(ctx, md5s)
		if err != nil {
			return nil, err
		}
		proteins := make(map[string]string, len(features))
		for _, f := range features {
			if seq, ok := sequences[f.AASequenceMD5]; ok {
				proteins[f.PatricID] = seq
			}
		}
		s.log.Info("fetched proteome",
			logging.String("genome", genomeID),
			logging.Int("proteins", len(proteins)))
		return proteins, nil
	}

	var proteins map[string]string
	if s.cache == nil {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return out.(map[string]string), nil
	}
	if err := s.cache.GetOrSet(ctx, "bvbrc:proteome:"+genomeID, &proteins, genomeTTL, load); err != nil {
		return nil, err
	}
	return proteins, nil
}

// GeneFunction returns the UniProt record for an accession.
func (s *Service) GeneFunction(ctx context.Context, accession string) (*uniprot.Entry, error) {
	load := func(ctx context.Context) (interface{}, error) {
		return s.proteins.GetEntry(ctx, accession)
	}

	var entry uniprot.Entry
	if s.cache == nil {
		out, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return out.(*uniprot.Entry), nil
	}
	if err := s.cache.GetOrSet(ctx, "uniprot:entry:"+accession, &entry, entryTTL, load); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SimilarProteins finds the indexed proteins closest to an embedding.
func (s *Service) SimilarProteins(ctx context.Context, embedding []float32, topK int) ([]milvus.Hit, error) {
	if s.similar == nil {
		return nil, errors.New(errors.ErrCodeValidation, "no similarity index configured")
	}
	return s.similar.SearchSimilar(ctx, embedding, topK)
}
