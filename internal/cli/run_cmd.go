package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/insights/internal/app"
	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/core"
	"github.com/JonMunkholm/insights/internal/dashboard"
	"github.com/JonMunkholm/insights/internal/export"
	"github.com/JonMunkholm/insights/internal/view"
)

// runResult is the JSON output of the run command.
type runResult struct {
	ReportID string         `json:"reportId"`
	FileName string         `json:"fileName"`
	Message  string         `json:"message"`
	Summary  string         `json:"summary"`
	Failures []core.Failure `json:"failures"`
	Insights core.Insights  `json:"insights"`
	Files    []string       `json:"files,omitempty"`
}

func newRunCmd() *cobra.Command {
	var (
		file     string
		outDir   string
		scaled   bool
		searches []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze a CSV file and export the report",
		Long: "Uploads the file, waits for every analysis to settle and prints a summary. " +
			"With --out, each populated table is written as CSV and each chart as PNG.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters, err := parseSearches(searches)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("scaled") {
				scaled = cfg.Analysis.ScaledRevenue
			}

			svc := app.NewService(cfg, app.NewBackend(cfg), nil)
			sess, _ := svc.Sessions().GetOrCreate("")

			report, err := svc.RunSync(cmd.Context(), sess.ID, core.UploadSession{
				FileName:    filepath.Base(file),
				ContentType: "text/csv",
				Data:        data,
			}, core.RunOptions{ScaledRevenue: scaled})
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}

			for key, q := range filters {
				t, _ := dashboard.Table(key)
				sess.Views().Update(t.StateKey(), func(st *view.State) { st.SetSearch(q) })
			}

			result := runResult{
				ReportID: report.ID,
				FileName: report.FileName,
				Message:  report.Message,
				Summary:  report.Summary(),
				Failures: report.Failures,
				Insights: core.ComputeInsights(report),
			}
			if outDir != "" {
				result.Files, err = writeReport(outDir, cfg, sess, report)
				if err != nil {
					return err
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, result.Message)
			_, _ = fmt.Fprintln(out, result.Summary)
			for _, f := range result.Files {
				_, _ = fmt.Fprintf(out, "wrote %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to analyze")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write table CSVs and chart PNGs into")
	cmd.Flags().BoolVar(&scaled, "scaled", false, "Request revenue per customer from the geography analysis")
	cmd.Flags().StringArrayVar(&searches, "search", nil, "Filter an exported table, as table=query (repeatable)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// parseSearches reads table=query pairs. Unknown tables are an error.
func parseSearches(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, q, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --search %q: want table=query", p)
		}
		if _, found := dashboard.Table(key); !found {
			return nil, fmt.Errorf("invalid --search %q: unknown table %q", p, key)
		}
		out[key] = q
	}
	return out, nil
}

// writeReport exports every ready surface of the session into dir and
// returns the written paths. Surfaces without data are skipped.
func writeReport(dir string, cfg *config.Config, sess *core.Session, report *core.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var files []string
	for _, t := range dashboard.Tables() {
		if !report.Succeeded(t.Analysis) {
			continue
		}
		columns, rows := t.Filtered(report, sess.Views().Get(t.StateKey()))
		path := filepath.Join(dir, export.Filename(t.Filename, ".csv"))
		if err := writeFile(path, func(f *os.File) error { return export.WriteCSV(f, columns, rows) }); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	for _, c := range dashboard.Charts() {
		cv := c.View(report, sess.Views().Get(c.StateKey()), sess.Facets())
		if cv.Status != dashboard.StatusReady {
			continue
		}
		path := filepath.Join(dir, export.Filename(c.Filename, ".png"))
		err := writeFile(path, func(f *os.File) error {
			return export.WritePNG(f, cv.Kind, cv.Series, export.ImageOptions{
				Title:  cv.Title,
				Width:  cfg.View.ChartWidth,
				Height: cfg.View.ChartHeight,
			})
		})
		if err != nil {
			_ = os.Remove(path)
			if errors.Is(err, export.ErrSurfaceDetached) {
				continue
			}
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
