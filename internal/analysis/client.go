// Package analysis is the HTTP client of the remote analysis service.
//
// Every call posts the uploaded file as the multipart field "file" to
// {base}/{endpoint}. Successful calls return the JSON body unchanged; failed
// calls carry the service's {"error": "..."} text in a core error.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/insights/internal/core"
)

var _ core.Backend = (*Client)(nil)

// MaxResponseSize caps the body read from one analysis response.
const MaxResponseSize = 256 << 20

// Options tune a Client. Zero values use the defaults.
type Options struct {
	UploadPath string        // Endpoint of the upload step (default: "upload_csv")
	Timeout    time.Duration // Transport-level cap per request (default: none, callers bound ctx)
	HTTPClient *http.Client
}

// Client calls the analysis service over HTTP.
type Client struct {
	baseURL    string
	uploadPath string
	http       *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	if opts.UploadPath == "" {
		opts.UploadPath = "upload_csv"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadPath: strings.Trim(opts.UploadPath, "/"),
		http:       hc,
	}
}

type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Upload sends the file to the upload endpoint and returns the service's
// confirmation message. Any failure is a *core.UploadError.
func (c *Client) Upload(ctx context.Context, file core.UploadSession) (string, error) {
	status, body, err := c.post(ctx, c.uploadPath, "", file)
	if err != nil {
		return "", &core.UploadError{Err: err}
	}

	var resp messageResponse
	_ = json.Unmarshal(body, &resp)

	if status < 200 || status > 299 {
		return "", &core.UploadError{
			Message: resp.Error,
			Err:     fmt.Errorf("status %d", status),
		}
	}
	if resp.Message == "" {
		resp.Message = "File uploaded successfully"
	}
	return resp.Message, nil
}

// Analyze posts the file to the analysis endpoint of spec and returns the
// raw JSON body. Any failure is a *core.AnalysisError.
func (c *Client) Analyze(ctx context.Context, spec core.AnalysisRequestSpec, file core.UploadSession) ([]byte, error) {
	status, body, err := c.post(ctx, spec.Endpoint, spec.Query.Encode(), file)
	if err != nil {
		return nil, &core.AnalysisError{Name: spec.Name, Err: err}
	}
	if status < 200 || status > 299 {
		var resp messageResponse
		_ = json.Unmarshal(body, &resp)
		return nil, &core.AnalysisError{
			Name:    spec.Name,
			Message: resp.Error,
			Err:     fmt.Errorf("status %d", status),
		}
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, endpoint, query string, file core.UploadSession) (int, []byte, error) {
	payload, contentType, err := encodeFile(file)
	if err != nil {
		return 0, nil, err
	}

	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if id := middleware.GetReqID(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return resp.StatusCode, body, nil
}

// encodeFile builds the multipart body carrying the file under "file".
func encodeFile(file core.UploadSession) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.FileName))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
