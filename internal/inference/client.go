// Package inference talks to the remote classification service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultFieldName is the multipart field every file part shares.
	DefaultFieldName = "images"
	// DefaultTimeout bounds a single predict request.
	DefaultTimeout = 30 * time.Second

	predictPath = "/predict"
	healthPath  = "/"
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inference service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("inference service returned status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	FieldName string
	Timeout   time.Duration
}

// Client sends upload batches to the inference service.
type Client struct {
	http      *resty.Client
	fieldName string
}

// NewClient creates a client for the service at opts.BaseURL.
func NewClient(opts Options) *Client {
	if opts.FieldName == "" {
		opts.FieldName = DefaultFieldName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout)

	return &Client{
		http:      httpClient,
		fieldName: opts.FieldName,
	}
}

// Predict posts every file in the batch as one multipart request and returns the raw body.
// Transport failures are returned as-is; non-2xx responses become a *StatusError.
func (c *Client) Predict(ctx context.Context, batch *models.UploadBatch) ([]byte, error) {
	fields := make([]*resty.MultipartField, 0, batch.Len())
	for _, f := range batch.Files {
		fields = append(fields, &resty.MultipartField{
			Param:       c.fieldName,
			FileName:    f.Name,
			ContentType: contentTypeFor(f.Name),
			Reader:      bytes.NewReader(f.Content),
		})
	}

	log.Debugf("[Inference] POST %s with %d file(s), %d bytes", predictPath, batch.Len(), batch.TotalSize())

	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFields(fields...).
		Post(predictPath)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(strings.TrimSpace(string(resp.Body())), 256),
		}
	}

	return resp.Body(), nil
}

// Health checks the service root and returns its reported status line.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(healthPath)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode()}
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Status == "" {
		return "ok", nil
	}
	return body.Status, nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
