package cli

import (
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/infrastructure/tools"
)

func newClusterCommand(root *rootOptions) *cobra.Command {
	var fastaPath string
	var minIdentity float64

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster proteins with mmseqs easy-cluster",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			sequences, err := tools.ReadFASTA(fastaPath)
			if err != nil {
				return err
			}
			mmseqs, err := tools.NewMMseqs(tk.cfg.Tools, tk.log)
			if err != nil {
				return err
			}
			clusters, err := mmseqs.EasyCluster(cmd.Context(), sequences, minIdentity)
			if err != nil {
				return err
			}
			return printJSON(clusters)
		},
	}

	cmd.Flags().StringVarP(&fastaPath, "input", "i", "", "protein FASTA to cluster (required)")
	cmd.Flags().Float64Var(&minIdentity, "min-id", 0, "minimum sequence identity (0..1)")
	cmd.MarkFlagRequired("input")
	return cmd
}
