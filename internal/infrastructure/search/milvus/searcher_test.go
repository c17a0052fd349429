package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

type fakeAPI struct {
	inserted     []entity.Column
	flushed      bool
	searchTopK   int
	searchResult []client.SearchResult
	searchErr    error
}

func (f *fakeAPI) HasCollection(context.Context, string) (bool, error) { return true, nil }

func (f *fakeAPI) CreateCollection(context.Context, *entity.Schema, int32, ...client.CreateCollectionOption) error {
	return nil
}

func (f *fakeAPI) CreateIndex(context.Context, string, string, entity.Index, bool, ...client.IndexOption) error {
	return nil
}

func (f *fakeAPI) LoadCollection(context.Context, string, bool, ...client.LoadCollectionOption) error {
	return nil
}

func (f *fakeAPI) Insert(_ context.Context, _, _ string, columns ...entity.Column) (entity.Column, error) {
	f.inserted = columns
	return nil, nil
}

func (f *fakeAPI) Flush(context.Context, string, bool, ...client.FlushOption) error {
	f.flushed = true
	return nil
}

func (f *fakeAPI) Search(_ context.Context, _ string, _ []string, _ string, _ []string, _ []entity.Vector, _ string, _ entity.MetricType, topK int, _ entity.SearchParam, _ ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	f.searchTopK = topK
	return f.searchResult, f.searchErr
}

func (f *fakeAPI) Close() error { return nil }

func newTestSearcher(api *fakeAPI) *Searcher {
	cfg := config.MilvusConfig{Collection: "proteins", EmbeddingDim: 4, DefaultTopK: 3}
	return NewSearcherWithAPI(api, cfg, logging.NewNop())
}

func TestIndexProteins(t *testing.T) {
	api := &fakeAPI{}
	searcher := newTestSearcher(api)

	err := searcher.IndexProteins(context.Background(), []Protein{
		{ID: "fig|83333.111.peg.1", GenomeID: "83333.111", Embedding: []float32{1, 0, 0, 0}},
		{ID: "fig|83333.111.peg.2", GenomeID: "83333.111", Embedding: []float32{0, 1, 0, 0}},
	})
	require.NoError(t, err)
	require.Len(t, api.inserted, 3)
	assert.True(t, api.flushed)

	ids := api.inserted[0].(*entity.ColumnVarChar)
	assert.Equal(t, []string{"fig|83333.111.peg.1", "fig|83333.111.peg.2"}, ids.Data())
}

func TestIndexProteinsDimensionMismatch(t *testing.T) {
	searcher := newTestSearcher(&fakeAPI{})

	err := searcher.IndexProteins(context.Background(), []Protein{
		{ID: "p1", Embedding: []float32{1, 2}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension 2, want 4")
}

func TestSearchSimilar(t *testing.T) {
	api := &fakeAPI{
		searchResult: []client.SearchResult{{
			ResultCount: 2,
			Scores:      []float32{0.98, 0.91},
			Fields: []entity.Column{
				entity.NewColumnVarChar(fieldProteinID, []string{"p1", "p2"}),
				entity.NewColumnVarChar(fieldGenomeID, []string{"g1", "g2"}),
			},
		}},
	}
	searcher := newTestSearcher(api)

	hits, err := searcher.SearchSimilar(context.Background(), []float32{1, 0, 0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, api.searchTopK) // default top-k
	require.Len(t, hits, 2)
	assert.Equal(t, Hit{ProteinID: "p1", GenomeID: "g1", Score: 0.98}, hits[0])
	assert.Equal(t, Hit{ProteinID: "p2", GenomeID: "g2", Score: 0.91}, hits[1])
}

func TestSearchSimilarRejectsWrongDimension(t *testing.T) {
	searcher := newTestSearcher(&fakeAPI{})

	_, err := searcher.SearchSimilar(context.Background(), []float32{1}, 5)
	require.Error(t, err)
}
