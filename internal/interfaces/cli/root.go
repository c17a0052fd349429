// Package cli assembles the kbutil command tree. Every subcommand builds
// its own dependencies from the loaded configuration; nothing is global.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/internal/infrastructure/modelio"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// toolkit carries the dependencies shared by subcommands.
type toolkit struct {
	cfg *config.Config
	log logging.Logger
}

func (o *rootOptions) bootstrap() (*toolkit, error) {
	var cfg *config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
	})
	if err != nil {
		return nil, err
	}
	return &toolkit{cfg: cfg, log: log}, nil
}

// loadDatabase reads the biochemistry snapshot and optional template named
// by the configuration.
func (tk *toolkit) loadDatabase() (*biochem.Database, *biochem.Template, error) {
	db, err := modelio.ReadDatabase(tk.cfg.Biochem.CompoundsPath, tk.cfg.Biochem.ReactionsPath)
	if err != nil {
		return nil, nil, err
	}
	var tpl *biochem.Template
	if tk.cfg.Biochem.TemplatePath != "" {
		tpl, err = modelio.ReadTemplate(tk.cfg.Biochem.TemplatePath)
		if err != nil {
			return nil, nil, err
		}
	}
	return db, tpl, nil
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "kbutil",
		Short:         "Translate metabolic models into the ModelSEED namespace",
		Long:          "kbutil matches the compounds and reactions of a metabolic model against\na ModelSEED biochemistry snapshot, translates the model into that\nnamespace, and compares models that share it.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: environment only)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newStandardizeCommand(opts),
		newCompareCommand(opts),
		newServeCommand(opts),
		newMigrateCommand(opts),
		newCurateCommand(opts),
		newGenomeCommand(opts),
		newClusterCommand(opts),
		newANICommand(opts),
		newDeployCommand(opts),
		newWorkspaceCommand(opts),
		newProteinCommand(opts),
		newAlignCommand(opts),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
