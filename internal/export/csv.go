package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/JonMunkholm/insights/internal/view"
)

// WriteCSV writes a header of column labels followed by one record per row.
// Cells are the raw field values, not the rendered display text, so numbers
// stay numbers in spreadsheets.
func WriteCSV[R view.Record](w io.Writer, columns []view.Column, rows []R) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			record[i] = view.Format(row.Field(c.Key))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Filename returns name with extension ext, replacing any other extension
// and any path separators. An empty name becomes "export".
func Filename(name, ext string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, `\`, "/")))
	if name == "" || name == "." || name == "/" {
		name = "export"
	}
	ext = "." + strings.TrimPrefix(ext, ".")
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
