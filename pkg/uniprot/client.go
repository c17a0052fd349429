// Package uniprot is a small client for the UniProtKB REST API, used to
// enrich gene annotations with EC numbers and protein names.
package uniprot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public UniProt REST endpoint.
const DefaultBaseURL = "https://rest.uniprot.org"

// APIError is a non-2xx response from the REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("uniprot: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports a 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// Client talks to the UniProt REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client with sane defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Entry is the subset of a UniProtKB record the pipeline consumes.
type Entry struct {
	Accession   string
	ProteinName string
	GeneNames   []string
	ECNumbers   []string
	RheaIDs     []string
	PDBIDs      []string
	Organism    string
	Sequence    string
}

// Wire shapes of the UniProt JSON payload.
type jsonEntry struct {
	PrimaryAccession   string `json:"primaryAccession"`
	ProteinDescription struct {
		RecommendedName struct {
			FullName  jsonValue `json:"fullName"`
			ECNumbers []struct {
				Value string `json:"value"`
			} `json:"ecNumbers"`
		} `json:"recommendedName"`
	} `json:"proteinDescription"`
	Genes []struct {
		GeneName jsonValue `json:"geneName"`
		Synonyms []struct {
			Value string `json:"value"`
		} `json:"synonyms"`
	} `json:"genes"`
	Organism struct {
		ScientificName string `json:"scientificName"`
	} `json:"organism"`
	Sequence struct {
		Value string `json:"value"`
	} `json:"sequence"`
	Comments []struct {
		CommentType string `json:"commentType"`
		Reaction    struct {
			CrossReferences []struct {
				Database string `json:"database"`
				ID       string `json:"id"`
			} `json:"reactionCrossReferences"`
		} `json:"reaction"`
	} `json:"comments"`
	CrossReferences []struct {
		Database string `json:"database"`
		ID       string `json:"id"`
	} `json:"uniProtKBCrossReferences"`
}

type jsonValue struct {
	Value string `json:"value"`
}

type jsonSearchResults struct {
	Results []jsonEntry `json:"results"`
}

func (e *jsonEntry) toEntry() Entry {
	entry := Entry{
		Accession:   e.PrimaryAccession,
		ProteinName: e.ProteinDescription.RecommendedName.FullName.Value,
		Organism:    e.Organism.ScientificName,
		Sequence:    e.Sequence.Value,
	}
	for _, ec := range e.ProteinDescription.RecommendedName.ECNumbers {
		entry.ECNumbers = append(entry.ECNumbers, ec.Value)
	}
	for _, gene := range e.Genes {
		if gene.GeneName.Value != "" {
			entry.GeneNames = append(entry.GeneNames, gene.GeneName.Value)
		}
		for _, syn := range gene.Synonyms {
			entry.GeneNames = append(entry.GeneNames, syn.Value)
		}
	}
	for _, comment := range e.Comments {
		if comment.CommentType != "CATALYTIC ACTIVITY" {
			continue
		}
		for _, xref := range comment.Reaction.CrossReferences {
			if xref.Database == "Rhea" {
				entry.RheaIDs = append(entry.RheaIDs, xref.ID)
			}
		}
	}
	for _, xref := range e.CrossReferences {
		if xref.Database == "PDB" {
			entry.PDBIDs = append(entry.PDBIDs, xref.ID)
		}
	}
	return entry
}

// GetEntry fetches one UniProtKB record by accession.
func (c *Client) GetEntry(ctx context.Context, accession string) (*Entry, error) {
	var raw jsonEntry
	path := "/uniprotkb/" + url.PathEscape(accession) + ".json"
	if err := c.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	entry := raw.toEntry()
	return &entry, nil
}

// Search runs a UniProtKB query and returns up to limit entries.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 25
	}
	params := url.Values{
		"query":  {query},
		"format": {"json"},
		"size":   {fmt.Sprint(limit)},
	}
	var raw jsonSearchResults
	if err := c.get(ctx, "/uniprotkb/search", params, &raw); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raw.Results))
	for i := range raw.Results {
		entries = append(entries, raw.Results[i].toEntry())
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return json.Unmarshal(body, dest)
}
