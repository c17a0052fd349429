package bvbrc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(WithBaseURL(srv.URL), WithRetryMax(2))
	client.retryWaitMin = 0
	client.retryWaitMax = 0
	return srv, client
}

func TestGetGenome(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genome/", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "eq(genome_id,83333.111)")
		json.NewEncoder(w).Encode([]Genome{{GenomeID: "83333.111", GenomeName: "Escherichia coli K-12", TaxonID: 83333}})
	})

	genome, err := client.GetGenome(context.Background(), "83333.111")
	require.NoError(t, err)
	assert.Equal(t, "Escherichia coli K-12", genome.GenomeName)
	assert.Equal(t, 83333, genome.TaxonID)
}

func TestGetGenomeNotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Genome{})
	})

	_, err := client.GetGenome(context.Background(), "1.1")
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.True(t, apiErr.IsNotFound())
}

func TestGetGenomeFeaturesPaging(t *testing.T) {
	var calls int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/genome_feature/", r.URL.Path)
		if n == 1 {
			// Full page forces a second request.
			page := make([]Feature, 5000)
			for i := range page {
				page[i] = Feature{GenomeID: "83333.111", PatricID: "fig|83333.111.peg.1"}
			}
			json.NewEncoder(w).Encode(page)
			return
		}
		assert.Contains(t, r.URL.RawQuery, "limit(5000,5000)")
		json.NewEncoder(w).Encode([]Feature{{GenomeID: "83333.111", PatricID: "fig|83333.111.peg.5001", Product: "hexokinase"}})
	})

	features, err := client.GetGenomeFeatures(context.Background(), "83333.111")
	require.NoError(t, err)
	assert.Len(t, features, 5001)
	assert.Equal(t, "hexokinase", features[5000].Product)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetSequences(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feature_sequence/", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "in(md5,(abc,def))")
		json.NewEncoder(w).Encode([]Sequence{
			{MD5: "abc", Sequence: "MKT"},
			{MD5: "def", Sequence: "MAV"},
		})
	})

	seqs, err := client.GetSequences(context.Background(), []string{"abc", "def"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"abc": "MKT", "def": "MAV"}, seqs)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "upstream busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]Genome{{GenomeID: "1.1"}})
	})

	genome, err := client.GetGenome(context.Background(), "1.1")
	require.NoError(t, err)
	assert.Equal(t, "1.1", genome.GenomeID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad query", http.StatusBadRequest)
	})

	_, err := client.GetGenome(context.Background(), "1.1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "HTTP 400"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTokenHeader(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "un=tester|tokenid=1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]Genome{{GenomeID: "1.1"}})
	})
	WithToken("un=tester|tokenid=1")(client)

	_, err := client.GetGenome(context.Background(), "1.1")
	require.NoError(t, err)
}
