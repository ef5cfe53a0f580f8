// Package cli implements reportctl, a command-line client that runs the
// full analysis fan-out on a local CSV file and writes the resulting
// tables and charts to disk.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/logging"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if getOutputFormat(rootCmd) == "json" {
			_ = printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		output  string
	)

	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Run customer insight analyses from the command line",
		Long:          "Uploads a sales CSV to the analysis service, fans it out to every analysis and exports the report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			// .env never overrides the environment or flags
			_ = godotenv.Load()
			if cmd.Flags().Changed("base-url") {
				return os.Setenv("ANALYSIS_BASE_URL", baseURL)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Analysis service URL (default: $ANALYSIS_BASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table or json")

	rootCmd.AddCommand(newAnalysesCmd())
	rootCmd.AddCommand(newSurfacesCmd())
	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

// loadConfig loads the configuration and routes logs to stderr.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
