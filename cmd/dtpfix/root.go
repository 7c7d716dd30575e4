package dtpfix

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bim2twin/dtpfix/pkg/config"
	"github.com/bim2twin/dtpfix/pkg/dtp"
	"github.com/bim2twin/dtpfix/pkg/logger"
)

var (
	cfgFile    string
	simulation bool
)

var rootCmd = &cobra.Command{
	Use:   "dtpfix",
	Short: "One-off maintenance fixes for the DTP construction graph",
	Long: `dtpfix patches schema inconsistencies in the Digital Twin Platform
knowledge graph: legacy type fields, missing isAsDesigned flags, retired
IRI naming patterns and the old ontology namespace.

Every mutation is appended to a session log so a run can be reverted.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default dtpfix.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&simulation, "simulation", "s", false, "dry run: log intended operations without mutating the graph")
}

func initConfig() {
	// A local .env may carry DTP_URL/DTP_TOKEN; missing is fine.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dtpfix")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
}

// setup loads configuration and builds the logger and DTP client shared
// by the subcommands.
func setup() (*config.Config, *slog.Logger, *dtp.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewDefault(logger.ParseLevel(cfg.Log.Level))
	client := dtp.NewClient(cfg.DTP, &dtp.Options{
		Simulation: simulation,
		Logger:     log,
	})
	return cfg, log, client, nil
}
