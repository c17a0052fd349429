// Package bvbrc is a minimal client for the BV-BRC data API, covering the
// lookups the standardization pipeline needs: genomes, genome features and
// protein sequences.
package bvbrc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public BV-BRC data API endpoint.
const DefaultBaseURL = "https://www.bv-brc.org/api"

// Logger is the logging surface the client uses; any structured logger can
// adapt to it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// APIError is a non-2xx response from the data API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bvbrc: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports a 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client talks to the BV-BRC data API.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithToken supplies a KBase/PATRIC auth token for private data.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger supplies a logger.
func WithLogger(l Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRetryMax overrides the retry budget for transient failures.
func WithRetryMax(n int) Option {
	return func(c *Client) { c.retryMax = n }
}

// NewClient builds a Client with sane defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 8 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Genome is the subset of BV-BRC genome fields the pipeline consumes.
type Genome struct {
	GenomeID     string `json:"genome_id"`
	GenomeName   string `json:"genome_name"`
	TaxonID      int    `json:"taxon_id"`
	GenomeStatus string `json:"genome_status"`
	Contigs      int    `json:"sequences"`
	PatricCDS    int    `json:"patric_cds"`
}

// Feature is the subset of BV-BRC genome-feature fields the pipeline
// consumes.
type Feature struct {
	PatricID       string `json:"patric_id"`
	GenomeID       string `json:"genome_id"`
	Product        string `json:"product"`
	GeneID         string `json:"gene_id"`
	RefseqLocusTag string `json:"refseq_locus_tag"`
	PGFam          string `json:"pgfam_id"`
	PLFam          string `json:"plfam_id"`
	AASequenceMD5  string `json:"aa_sequence_md5"`
}

// Sequence is one entry of the feature_sequence collection.
type Sequence struct {
	MD5      string `json:"md5"`
	Sequence string `json:"sequence"`
}

// Contig is one entry of the genome_sequence collection.
type Contig struct {
	SequenceID  string `json:"sequence_id"`
	GenomeID    string `json:"genome_id"`
	AccessionID string `json:"accession"`
	Description string `json:"description"`
	Length      int    `json:"length"`
	Sequence    string `json:"sequence"`
}

// GetGenome fetches a genome record by BV-BRC genome ID.
func (c *Client) GetGenome(ctx context.Context, genomeID string) (*Genome, error) {
	var out []Genome
	query := fmt.Sprintf("eq(genome_id,%s)", genomeID)
	if err := c.get(ctx, "genome", query, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Body: "genome " + genomeID + " not found"}
	}
	return &out[0], nil
}

// GetGenomeFeatures fetches the PATRIC CDS features of a genome, paging
// through the collection.
func (c *Client) GetGenomeFeatures(ctx context.Context, genomeID string) ([]Feature, error) {
	const pageSize = 5000
	var all []Feature
	for offset := 0; ; offset += pageSize {
		var page []Feature
		query := fmt.Sprintf("eq(genome_id,%s)&eq(annotation,PATRIC)&limit(%d,%d)", genomeID, pageSize, offset)
		if err := c.get(ctx, "genome_feature", query, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// GetContigs fetches the nucleotide contigs of a genome, paging through the
// genome_sequence collection.
func (c *Client) GetContigs(ctx context.Context, genomeID string) ([]Contig, error) {
	const pageSize = 5000
	var all []Contig
	for offset := 0; ; offset += pageSize {
		var page []Contig
		query := fmt.Sprintf("eq(genome_id,%s)&limit(%d,%d)", genomeID, pageSize, offset)
		if err := c.get(ctx, "genome_sequence", query, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// GetSequences resolves amino-acid sequences by MD5, in batches.
func (c *Client) GetSequences(ctx context.Context, md5s []string) (map[string]string, error) {
	const batch = 200
	out := make(map[string]string, len(md5s))
	for start := 0; start < len(md5s); start += batch {
		end := start + batch
		if end > len(md5s) {
			end = len(md5s)
		}
		var page []Sequence
		query := fmt.Sprintf("in(md5,(%s))&limit(%d)", strings.Join(md5s[start:end], ","), batch)
		if err := c.get(ctx, "feature_sequence", query, &page); err != nil {
			return nil, err
		}
		for _, seq := range page {
			out[seq.MD5] = seq.Sequence
		}
	}
	return out, nil
}

// get performs one RQL query against a collection, retrying transient
// failures with jittered exponential backoff.
func (c *Client) get(ctx context.Context, collection, query string, dest interface{}) error {
	endpoint := c.baseURL + "/" + url.PathEscape(collection) + "/?" + query
	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			c.logger.Debugf("bvbrc: retrying %s in %s (attempt %d)", collection, wait, attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return json.Unmarshal(body, dest)
	}
	return lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	wait := c.retryWaitMin << uint(attempt-1)
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}
	if wait <= 0 {
		return 0
	}
	// Full jitter.
	return time.Duration(rand.Int63n(int64(wait))) + c.retryWaitMin
}
