package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/application/curation"
	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/database/postgres"
	"github.com/modelseed/kbutil/internal/infrastructure/llm"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/internal/infrastructure/modelio"
)

func newCurateCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Review advisor proposals for entities matching could not settle",
	}
	cmd.AddCommand(
		newCurateProposeCommand(root),
		newCurateListCommand(root),
		newCurateDecideCommand(root),
	)
	return cmd
}

// curationDeps builds the pieces every curate subcommand needs.
func curationDeps(ctx context.Context, tk *toolkit, db *biochem.Database) (*curation.Service, *postgres.Pool, error) {
	pool, err := postgres.NewPool(ctx, tk.cfg.Database, tk.log)
	if err != nil {
		return nil, nil, err
	}
	chatter, err := llm.New(tk.cfg.LLM, tk.log)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	repo := postgres.NewCurationRepository(pool.Pgx(), tk.log)
	m := metrics.New(prometheus.NewRegistry())
	return curation.NewService(db, chatter, repo, m, tk.log), pool, nil
}

func newCurateProposeCommand(root *rootOptions) *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Run matching, then ask the advisor about unsettled compounds",
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

			curator, pool, err := curationDeps(cmd.Context(), tk, db)
			if err != nil {
				return err
			}
			defer pool.Close()

			created, err := curator.ProposeCompounds(cmd.Context(), model, result.Translation)
			if err != nil {
				return err
			}
			return printJSON(map[string]int{"proposals_created": created})
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "path to the COBRApy JSON model (required)")
	cmd.MarkFlagRequired("model")
	return cmd
}

func newCurateListCommand(root *rootOptions) *cobra.Command {
	var modelID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending proposals for a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), tk.cfg.Database, tk.log)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.NewCurationRepository(pool.Pgx(), tk.log)
			pending, err := repo.ListByModel(cmd.Context(), modelID, postgres.CurationPending)
			if err != nil {
				return err
			}
			return printJSON(pending)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model ID (required)")
	cmd.MarkFlagRequired("model")
	return cmd
}

func newCurateDecideCommand(root *rootOptions) *cobra.Command {
	var idArg string
	var approve, reject bool

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Approve or reject one proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == reject {
				return cmd.Help()
			}
			id, err := uuid.Parse(idArg)
			if err != nil {
				return err
			}
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), tk.cfg.Database, tk.log)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := postgres.NewCurationRepository(pool.Pgx(), tk.log)
			if err := repo.Decide(cmd.Context(), id, approve); err != nil {
				return err
			}
			return printJSON(map[string]string{"id": idArg, "status": map[bool]string{true: "approved", false: "rejected"}[approve]})
		},
	}

	cmd.Flags().StringVar(&idArg, "id", "", "proposal UUID (required)")
	cmd.Flags().BoolVar(&approve, "approve", false, "approve the proposal")
	cmd.Flags().BoolVar(&reject, "reject", false, "reject the proposal")
	cmd.MarkFlagRequired("id")
	return cmd
}
