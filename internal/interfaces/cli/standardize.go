package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/internal/infrastructure/modelio"
)

func newStandardizeCommand(root *rootOptions) *cobra.Command {
	var modelPath, outPath string

	cmd := &cobra.Command{
		Use:   "standardize",
		Short: "Translate a model's identifiers into the ModelSEED namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			db, tpl, err := tk.loadDatabase()
			if err != nil {
				return err
			}
			model, err := modelio.ReadModel(modelPath)
			if err != nil {
				return err
			}

			svc := standardize.NewService(db, tpl, tk.cfg.Biochem,
				metrics.New(prometheus.NewRegistry()), tk.log)
			result, err := svc.Standardize(cmd.Context(), model)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := modelio.WriteModel(model, outPath); err != nil {
					return err
				}
			}
			return printJSON(result.Stats)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the COBRApy JSON model (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "where to write the translated model (omit to only report)")
	cmd.MarkFlagRequired("model")
	return cmd
}
