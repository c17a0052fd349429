package cli

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/internal/infrastructure/modelio"
	"github.com/modelseed/kbutil/internal/interfaces/report"
)

func newCompareCommand(root *rootOptions) *cobra.Command {
	var modelPath, referencePath, reportPath string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a model against a reference model in the same namespace",
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
			reference, err := modelio.ReadModel(referencePath)
			if err != nil {
				return err
			}

			svc := standardize.NewService(db, tpl, tk.cfg.Biochem,
				metrics.New(prometheus.NewRegistry()), tk.log)
			cmp, err := svc.Compare(cmd.Context(), model, reference)
			if err != nil {
				return err
			}

			if reportPath != "" {
				if err := writeComparisonReport(reportPath, model.ID, reference.ID, cmp); err != nil {
					return err
				}
			}
			return printJSON(cmp.Counts)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the model (required)")
	cmd.Flags().StringVarP(&referencePath, "reference", "r", "", "path to the reference model (required)")
	cmd.Flags().StringVar(&reportPath, "report", "", "write an HTML comparison report to this path")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("reference")
	return cmd
}

func writeComparisonReport(path, modelID, referenceID string, cmp *biochem.ModelComparison) error {
	html, err := report.NewBuilder().RenderComparison(modelID, referenceID, cmp)
	if err != nil {
		return err
	}
	return os.WriteFile(path, html, 0o644)
}
