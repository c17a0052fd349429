package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/application/annotation"
	"github.com/modelseed/kbutil/internal/infrastructure/search/milvus"
	"github.com/modelseed/kbutil/pkg/uniprot"
)

func newProteinCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protein",
		Short: "Index and search protein embeddings",
	}
	cmd.AddCommand(
		newProteinIndexCommand(root),
		newProteinSearchCommand(root),
	)
	return cmd
}

// embeddingRecord is one line of the embeddings file produced by the PLM
// encoder: a protein ID, its genome and the embedding vector.
type embeddingRecord struct {
	ProteinID string    `json:"protein_id"`
	GenomeID  string    `json:"genome_id"`
	Embedding []float32 `json:"embedding"`
}

func newProteinIndexCommand(root *rootOptions) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Load protein embeddings from a JSON file into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			records, err := readEmbeddings(inPath)
			if err != nil {
				return err
			}
			searcher, err := milvus.NewSearcher(cmd.Context(), tk.cfg.Milvus, tk.log)
			if err != nil {
				return err
			}
			defer searcher.Close()

			proteins := make([]milvus.Protein, 0, len(records))
			for _, rec := range records {
				proteins = append(proteins, milvus.Protein{
					ID:        rec.ProteinID,
					GenomeID:  rec.GenomeID,
					Embedding: rec.Embedding,
				})
			}
			if err := searcher.IndexProteins(cmd.Context(), proteins); err != nil {
				return err
			}
			return printJSON(map[string]int{"indexed": len(proteins)})
		},
	}

	cmd.Flags().StringVarP(&inPath, "input", "i", "", "embeddings JSON file (required)")
	cmd.MarkFlagRequired("input")
	return cmd
}

func newProteinSearchCommand(root *rootOptions) *cobra.Command {
	var queryPath string
	var topK int

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find the indexed proteins nearest a query embedding",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(queryPath)
			if err != nil {
				return err
			}
			var embedding []float32
			if err := json.Unmarshal(raw, &embedding); err != nil {
				return err
			}

			searcher, err := milvus.NewSearcher(cmd.Context(), tk.cfg.Milvus, tk.log)
			if err != nil {
				return err
			}
			defer searcher.Close()

			proteins := uniprot.NewClient(uniprot.WithBaseURL(tk.cfg.UniProt.BaseURL))
			svc := annotation.NewService(bvbrcClient(tk), proteins, tk.log,
				annotation.WithSimilarity(searcher))
			hits, err := svc.SimilarProteins(cmd.Context(), embedding, topK)
			if err != nil {
				return err
			}
			return printJSON(hits)
		},
	}

	cmd.Flags().StringVarP(&queryPath, "query", "q", "", "JSON file holding the query embedding array (required)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of hits to return (default from config)")
	cmd.MarkFlagRequired("query")
	return cmd
}

func readEmbeddings(path string) ([]embeddingRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []embeddingRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}
