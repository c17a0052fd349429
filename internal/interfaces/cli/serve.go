package cli

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/internal/infrastructure/storage/minio"
	"github.com/modelseed/kbutil/internal/interfaces/report"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the standardization API and report archive over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			db, tpl, err := tk.loadDatabase()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			registry := prometheus.NewRegistry()
			svc := standardize.NewService(db, tpl, tk.cfg.Biochem, metrics.New(registry), tk.log)

			var store report.ReportStore
			if tk.cfg.Minio.Endpoint != "" {
				s, err := minio.NewStore(ctx, tk.cfg.Minio, tk.log)
				if err != nil {
					return err
				}
				store = s
			}

			srv := report.NewServer(svc, store, registry, tk.cfg.Server, tk.log)
			return srv.Run(ctx)
		},
	}

	return cmd
}
