package cmd

import (
	"fmt"
	"os"

	"eventreg-backend/internal/components/configutil"
	"eventreg-backend/internal/components/serviceutil"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/registration"

	"github.com/spf13/cobra"
)

type Config struct {
	Registration registration.Config `json:"registration"`
}

var (
	configPath string
	verbose    bool
	format     string
	dumpHttp   string

	cfg Config
)

var rootCmd = &cobra.Command{
	Use:   "formsctl",
	Short: "formsctl inspects and fills the registration forms from a terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		switch format {
		case "table", "json", "yaml":
		default:
			return fmt.Errorf("unknown format %q, expected table, json or yaml", format)
		}

		var err error
		cfg, err = configutil.ReadRecursively[Config](configPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
		cfg.Registration.ApplyEnv(os.LookupEnv)
		if dumpHttp != "" {
			cfg.Registration.DumpHttpDir = dumpHttp
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Configuration file, looked up in parent directories.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format: table, json or yaml.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every http exchange with Google to this directory.")
}

func Execute() {
	if err := rootCmd.ExecuteContext(serviceutil.SignalContext()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
