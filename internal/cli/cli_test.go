package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/insights/internal/core"
)

// analysisServer fakes the analysis service: the upload and two analyses
// succeed, every other endpoint fails.
func analysisServer(t *testing.T, uploadStatus int) *httptest.Server {
	t.Helper()
	bodies := map[string]string{
		"/customer_lifetime_value": `{"clv":[
			{"CustomerID":"A","CLV":100,"recommendation":"Upsell"},
			{"CustomerID":"B","CLV":50,"recommendation":"Nurture"}]}`,
		"/monthly_revenue": `{"monthly_revenue":[
			{"YearMonth":"2023-01","TotalPrice":1000,"YoY_Change":0},
			{"YearMonth":"2023-02","TotalPrice":1500,"YoY_Change":0.5}]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/upload_csv" {
			w.WriteHeader(uploadStatus)
			if uploadStatus != http.StatusOK {
				_, _ = w.Write([]byte(`{"error":"Invalid file"}`))
				return
			}
			_, _ = w.Write([]byte(`{"message":"File uploaded successfully"}`))
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"model unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func inputFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("InvoiceNo,Quantity\n1,2\n"), 0o644))
	return path
}

func TestAnalysesCmd_JSON(t *testing.T) {
	out, err := execute(t, "analyses", "-o", "json")
	require.NoError(t, err)

	var rows []analysisRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, len(core.All()))
	assert.Equal(t, core.All()[0].Spec.Name, rows[0].Name)
}

func TestSurfacesCmd_Table(t *testing.T) {
	out, err := execute(t, "surfaces")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "TAB"))
	assert.Contains(t, out, "monthly_revenue")
	assert.Contains(t, out, "Customer Lifetime Value")
}

func TestRootCmd_RejectsUnknownOutput(t *testing.T) {
	_, err := execute(t, "analyses", "-o", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestRunCmd_WritesReport(t *testing.T) {
	srv := analysisServer(t, http.StatusOK)
	t.Setenv("ANALYSIS_BASE_URL", srv.URL)
	dir := t.TempDir()

	out, err := execute(t, "run", "--file", inputFile(t), "--out", dir, "--search", "clv=a", "-o", "json")
	require.NoError(t, err)

	var result runResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "sales.csv", result.FileName)
	assert.Equal(t, "File uploaded successfully", result.Message)
	assert.Contains(t, result.Summary, "Partially succeeded (2 of")
	assert.Len(t, result.Failures, len(core.All())-2)

	want := []string{
		filepath.Join(dir, "clv_data.csv"),
		filepath.Join(dir, "monthly_revenue.csv"),
		filepath.Join(dir, "monthly_revenue.png"),
	}
	for _, p := range want {
		assert.Contains(t, result.Files, p)
		assert.FileExists(t, p)
	}

	data, err := os.ReadFile(filepath.Join(dir, "clv_data.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2, "search keeps only customer A")
}

func TestRunCmd_BaseURLFlag(t *testing.T) {
	srv := analysisServer(t, http.StatusOK)
	t.Setenv("ANALYSIS_BASE_URL", "http://127.0.0.1:1")

	out, err := execute(t, "run", "--file", inputFile(t), "--base-url", srv.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "File uploaded successfully")
	assert.Contains(t, out, "Partially succeeded")
}

func TestRunCmd_UploadRejected(t *testing.T) {
	srv := analysisServer(t, http.StatusBadRequest)
	t.Setenv("ANALYSIS_BASE_URL", srv.URL)

	_, err := execute(t, "run", "--file", inputFile(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error processing file.")
	assert.Contains(t, err.Error(), "UPL001")
}

func TestRunCmd_InvalidSearch(t *testing.T) {
	t.Setenv("ANALYSIS_BASE_URL", "http://127.0.0.1:1")

	_, err := execute(t, "run", "--file", "missing.csv", "--search", "nope=x")
	assert.ErrorContains(t, err, "unknown table")

	_, err = execute(t, "run", "--file", "missing.csv", "--search", "clv")
	assert.ErrorContains(t, err, "want table=query")
}

func TestRunCmd_MissingFile(t *testing.T) {
	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "file")
}
