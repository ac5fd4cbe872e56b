// Package drive implements the remote document store against the
// Google Drive REST API v3. Only the three operations the sync engine
// needs are covered: multipart create, media update, and export.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/nhle/habitlog/internal/remote"
)

const (
	defaultBaseURL   = "https://www.googleapis.com/drive/v3"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3"
)

// Client is a thin HTTP client for the Drive files API. It handles
// Bearer token authentication and automatic retry with exponential
// backoff on HTTP 429.
type Client struct {
	// BaseURL and UploadURL default to the public Drive endpoints and
	// exist as fields so tests can point the client at a local server.
	BaseURL   string
	UploadURL string

	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a Drive client using the given OAuth access token
// for Bearer authentication.
func NewClient(token string) *Client {
	return &Client{
		BaseURL:   defaultBaseURL,
		UploadURL: defaultUploadURL,
		token:     token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// fileMetadata is the subset of the Drive file resource we send and
// receive.
type fileMetadata struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// CreateDocument creates a spreadsheet-typed document seeded with the
// given content and returns its file ID.
func (c *Client) CreateDocument(ctx context.Context, name string, data []byte, mimeType string) (string, error) {
	meta := fileMetadata{
		Name:     name,
		MimeType: remote.MIMESpreadsheet,
	}

	body, contentType, err := multipartBody(meta, data, mimeType)
	if err != nil {
		return "", err
	}

	respBody, err := c.do(ctx, http.MethodPost,
		c.UploadURL+"/files?uploadType=multipart&fields=id",
		body, contentType, "")
	if err != nil {
		return "", fmt.Errorf("creating document %q: %w", name, err)
	}

	var created fileMetadata
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("parsing create response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create response for %q carried no file id", name)
	}

	return created.ID, nil
}

// UpdateDocument overwrites the document's content in place.
func (c *Client) UpdateDocument(ctx context.Context, id string, data []byte, mimeType string) error {
	_, err := c.do(ctx, http.MethodPatch,
		c.UploadURL+"/files/"+url.PathEscape(id)+"?uploadType=media",
		data, mimeType, id)
	if err != nil {
		return fmt.Errorf("updating document %s: %w", id, err)
	}
	return nil
}

// ExportDocument fetches the document converted to the given MIME type.
func (c *Client) ExportDocument(ctx context.Context, id string, mimeType string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet,
		c.BaseURL+"/files/"+url.PathEscape(id)+"/export?mimeType="+url.QueryEscape(mimeType),
		nil, "", id)
	if err != nil {
		return nil, fmt.Errorf("exporting document %s: %w", id, err)
	}
	return body, nil
}

// do executes a single API call with auth, 429 retry, and error
// classification. A 404 becomes *remote.NotFoundError and a 401/403
// becomes *remote.AuthError so callers can react by type.
func (c *Client) do(ctx context.Context, method, fullURL string, body []byte, contentType, docID string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request %s %s: %w", method, fullURL, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429) on %s", fullURL)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
			}
			continue

		case resp.StatusCode == http.StatusNotFound:
			return nil, &remote.NotFoundError{ID: docID}

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &remote.AuthError{
				Message: fmt.Sprintf("drive returned %d: %s", resp.StatusCode, truncate(respBody)),
			}

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("drive returned %d: %s", resp.StatusCode, truncate(respBody))
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("giving up after %d retries: %w", c.maxRetries, lastErr)
}

// multipartBody builds a multipart/related request body carrying the
// JSON metadata part followed by the media part.
func multipartBody(meta fileMetadata, data []byte, mimeType string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, "", fmt.Errorf("creating metadata part: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", fmt.Errorf("encoding metadata part: %w", err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mimeType)
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return nil, "", fmt.Errorf("creating media part: %w", err)
	}
	if _, err := mediaPart.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing media part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalizing multipart body: %w", err)
	}

	return buf.Bytes(), "multipart/related; boundary=" + w.Boundary(), nil
}

// retryAfterDuration honors the Retry-After header if present,
// otherwise falls back to exponential backoff with jitter.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	return backoff + time.Duration(rand.Intn(250))*time.Millisecond
}

// truncate limits a response body to a readable snippet for error
// messages.
func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
