package cli

import (
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/infrastructure/tools"
)

func newANICommand(root *rootOptions) *cobra.Command {
	var refPath, queryPath string

	cmd := &cobra.Command{
		Use:   "ani",
		Short: "Compute ANI between two genome FASTAs with skani",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			skani, err := tools.NewSkani(tk.cfg.Tools, tk.log)
			if err != nil {
				return err
			}
			result, err := skani.Dist(cmd.Context(), refPath, queryPath)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVarP(&refPath, "reference", "r", "", "reference genome FASTA (required)")
	cmd.Flags().StringVarP(&queryPath, "query", "q", "", "query genome FASTA (required)")
	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("query")
	return cmd
}
