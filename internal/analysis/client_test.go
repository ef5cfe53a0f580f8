package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/insights/internal/core"
)

func testFile() core.UploadSession {
	return core.UploadSession{FileName: "sales.csv", ContentType: "text/csv", Data: []byte("InvoiceNo\n1\n")}
}

func newService(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", Options{})
}

func TestUpload_SendsMultipartFile(t *testing.T) {
	var gotPath, gotName, gotBody string
	c := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotBody = hdr.Filename, string(b)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "File uploaded and cleaned successfully"})
	})

	msg, err := c.Upload(context.Background(), testFile())
	require.NoError(t, err)

	assert.Equal(t, "File uploaded and cleaned successfully", msg)
	assert.Equal(t, "/upload_csv", gotPath)
	assert.Equal(t, "sales.csv", gotName)
	assert.Equal(t, "InvoiceNo\n1\n", gotBody)
}

func TestUpload_ServiceError(t *testing.T) {
	c := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Missing column InvoiceDate"})
	})

	_, err := c.Upload(context.Background(), testFile())
	require.Error(t, err)

	var ue *core.UploadError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Missing column InvoiceDate", ue.Message)
	assert.ErrorIs(t, err, core.ErrUploadFailed)
	assert.Equal(t, "Error processing file.", core.MapError(err).Message)
}

func TestUpload_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, Options{}).Upload(context.Background(), testFile())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUploadFailed)
}

func TestAnalyze_ReturnsBodyAndQuery(t *testing.T) {
	var gotURL string
	c := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte(`{"geographical_revenue":[]}`))
	})

	spec := core.AnalysisRequestSpec{Name: core.AnalysisGeography, Endpoint: "geographical_analysis"}.WithQuery("scaled", "true")
	body, err := c.Analyze(context.Background(), spec, testFile())
	require.NoError(t, err)

	assert.JSONEq(t, `{"geographical_revenue":[]}`, string(body))
	assert.Equal(t, "/geographical_analysis?scaled=true", gotURL)
}

func TestAnalyze_ServiceError(t *testing.T) {
	c := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Not enough data to train"}`))
	})

	_, err := c.Analyze(context.Background(), core.AnalysisRequestSpec{Name: core.AnalysisChurn, Endpoint: "churn_prediction"}, testFile())
	require.Error(t, err)

	var ae *core.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, core.AnalysisChurn, ae.Name)
	assert.Equal(t, "Not enough data to train", ae.Message)
	assert.ErrorIs(t, err, core.ErrAnalysisFailed)
}

func TestAnalyze_HonorsContext(t *testing.T) {
	release := make(chan struct{})
	c := newService(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Analyze(ctx, core.AnalysisRequestSpec{Name: core.AnalysisCLV, Endpoint: "customer_lifetime_value"}, testFile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}
