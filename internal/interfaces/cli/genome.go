package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/application/annotation"
	"github.com/modelseed/kbutil/internal/infrastructure/cache/redis"
	"github.com/modelseed/kbutil/internal/infrastructure/tools"
	"github.com/modelseed/kbutil/pkg/bvbrc"
	"github.com/modelseed/kbutil/pkg/uniprot"
)

func newGenomeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genome",
		Short: "Work with BV-BRC genomes",
	}
	cmd.AddCommand(newGenomeFetchCommand(root))
	return cmd
}

func newGenomeFetchCommand(root *rootOptions) *cobra.Command {
	var genomeID, proteinsPath, contigsPath string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a genome record, optionally saving its proteins or contigs as FASTA",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			client := bvbrcClient(tk)
			svc, err := annotationService(cmd.Context(), tk, client)
			if err != nil {
				return err
			}

			genome, err := client.GetGenome(cmd.Context(), genomeID)
			if err != nil {
				return err
			}

			if proteinsPath != "" {
				proteins, err := svc.GenomeProteins(cmd.Context(), genomeID)
				if err != nil {
					return err
				}
				if err := tools.WriteFASTA(proteinsPath, proteins); err != nil {
					return err
				}
			}

			if contigsPath != "" {
				contigs, err := client.GetContigs(cmd.Context(), genomeID)
				if err != nil {
					return err
				}
				byID := make(map[string]string, len(contigs))
				for _, contig := range contigs {
					byID[contig.SequenceID] = contig.Sequence
				}
				if err := tools.WriteFASTA(contigsPath, byID); err != nil {
					return err
				}
			}

			return printJSON(genome)
		},
	}

	cmd.Flags().StringVar(&genomeID, "id", "", "BV-BRC genome ID (required)")
	cmd.Flags().StringVar(&proteinsPath, "proteins", "", "write protein sequences to this FASTA path")
	cmd.Flags().StringVar(&contigsPath, "contigs", "", "write contig sequences to this FASTA path")
	cmd.MarkFlagRequired("id")
	return cmd
}

func bvbrcClient(tk *toolkit) *bvbrc.Client {
	opts := []bvbrc.Option{
		bvbrc.WithBaseURL(tk.cfg.BVBRC.BaseURL),
	}
	if tk.cfg.BVBRC.Token != "" {
		opts = append(opts, bvbrc.WithToken(tk.cfg.BVBRC.Token))
	}
	if tk.cfg.BVBRC.MaxRetries > 0 {
		opts = append(opts, bvbrc.WithRetryMax(tk.cfg.BVBRC.MaxRetries))
	}
	if tk.cfg.BVBRC.Timeout > 0 {
		opts = append(opts, bvbrc.WithHTTPClient(&http.Client{Timeout: tk.cfg.BVBRC.Timeout}))
	}
	return bvbrc.NewClient(opts...)
}

// annotationService wires the annotation sources, caching through redis when
// an address is configured.
func annotationService(ctx context.Context, tk *toolkit, genomes annotation.GenomeClient) (*annotation.Service, error) {
	var opts []annotation.Option
	if tk.cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, tk.cfg.Redis)
		if err != nil {
			return nil, err
		}
		cacheOpts := []redis.CacheOption{}
		if tk.cfg.Redis.DefaultTTL > 0 {
			cacheOpts = append(cacheOpts, redis.WithDefaultTTL(tk.cfg.Redis.DefaultTTL))
		}
		opts = append(opts, annotation.WithCache(redis.NewCache(rdb, tk.log, cacheOpts...)))
	}
	proteins := uniprot.NewClient(uniprot.WithBaseURL(tk.cfg.UniProt.BaseURL))
	return annotation.NewService(genomes, proteins, tk.log, opts...), nil
}
