package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/infrastructure/tools"
)

func newAlignCommand(root *rootOptions) *cobra.Command {
	var queryPath, targetPath, tool string
	var best bool

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Align query proteins against target proteins",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			queries, err := tools.ReadFASTA(queryPath)
			if err != nil {
				return err
			}
			targets, err := tools.ReadFASTA(targetPath)
			if err != nil {
				return err
			}

			var hits []tools.Hit
			switch tool {
			case "blast":
				blast, err := tools.NewBlast(tk.cfg.Tools, tk.log)
				if err != nil {
					return err
				}
				dbPath, err := blast.MakeProteinDB(cmd.Context(), "align_target", targets)
				if err != nil {
					return err
				}
				hits, err = blast.Search(cmd.Context(), queries, dbPath)
				if err != nil {
					return err
				}
			case "mmseqs":
				mmseqs, err := tools.NewMMseqs(tk.cfg.Tools, tk.log)
				if err != nil {
					return err
				}
				hits, err = mmseqs.EasySearch(cmd.Context(), queries, targets)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown alignment tool %q (want blast or mmseqs)", tool)
			}

			if best {
				return printJSON(tools.BestHits(hits))
			}
			return printJSON(hits)
		},
	}

	cmd.Flags().StringVarP(&queryPath, "query", "q", "", "query protein FASTA (required)")
	cmd.Flags().StringVarP(&targetPath, "target", "t", "", "target protein FASTA (required)")
	cmd.Flags().StringVar(&tool, "tool", "blast", "alignment tool: blast or mmseqs")
	cmd.Flags().BoolVar(&best, "best", false, "report only the best hit per query")
	cmd.MarkFlagRequired("query")
	cmd.MarkFlagRequired("target")
	return cmd
}
