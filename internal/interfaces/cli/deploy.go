package cli

import (
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/infrastructure/graph/neo4j"
	"github.com/modelseed/kbutil/internal/infrastructure/modelio"
)

func newDeployCommand(root *rootOptions) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Load a model into the Neo4j metabolic graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			model, err := modelio.ReadModel(modelPath)
			if err != nil {
				return err
			}
			store, err := neo4j.NewStore(cmd.Context(), tk.cfg.Neo4j, tk.log)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			if err := store.LoadModel(cmd.Context(), model); err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"model":       model.ID,
				"metabolites": len(model.Metabolites()),
				"reactions":   len(model.Reactions()),
				"genes":       len(model.Genes()),
			})
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the COBRApy JSON model (required)")
	cmd.MarkFlagRequired("model")
	return cmd
}
