package weekfitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rbright/waybar-weekfitter/internal/planner"
)

const (
	eventsPath = "/api/events"
	uploadPath = "/api/files/upload"

	uploadField = "file"
)

// ListEvents fetches the owner's events. Entries that do not decode as a
// record are skipped so one bad row never hides the rest.
func (c *Client) ListEvents(ctx context.Context, owner string) ([]planner.Record, error) {
	payload, err := c.do(ctx, request{method: http.MethodGet, path: eventsPath, query: ownerQuery(owner)})
	if err != nil {
		return nil, err
	}

	raw, err := decodeJSON[[]json.RawMessage](payload, "events response")
	if err != nil {
		return nil, err
	}

	records := make([]planner.Record, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var record planner.Record
		if err := json.Unmarshal(item, &record); err != nil {
			skipped++
			continue
		}
		records = append(records, record)
	}
	if skipped > 0 {
		c.logger.Debug("skipped undecodable event records", zap.Int("count", skipped))
	}
	return records, nil
}

func (c *Client) CreateEvent(ctx context.Context, owner string, record planner.Record) (planner.Record, error) {
	record.ID = ""
	req, err := c.jsonRequest(http.MethodPost, eventsPath, ownerQuery(owner), record)
	if err != nil {
		return planner.Record{}, err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return planner.Record{}, err
	}
	return decodeJSON[planner.Record](payload, "created event")
}

func (c *Client) UpdateEvent(ctx context.Context, owner, id string, record planner.Record) (planner.Record, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return planner.Record{}, fmt.Errorf("update event: missing id")
	}
	record.ID = planner.RecordID(trimmed)

	req, err := c.jsonRequest(http.MethodPut, eventsPath+"/"+url.PathEscape(trimmed), ownerQuery(owner), record)
	if err != nil {
		return planner.Record{}, err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return planner.Record{}, err
	}
	return decodeJSON[planner.Record](payload, "updated event")
}

// DeleteEvent removes an event. The owner is sent only when non-empty.
func (c *Client) DeleteEvent(ctx context.Context, id, owner string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return fmt.Errorf("delete event: missing id")
	}
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   eventsPath + "/" + url.PathEscape(trimmed),
		query:  ownerQuery(owner),
	})
	return err
}

// UploadFile sends a local file and returns the server-side path the backend
// answers with in plain text.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return c.Upload(ctx, filepath.Base(path), file)
}

func (c *Client) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	req, err := multipartRequest(uploadPath, nil, name, content)
	if err != nil {
		return "", err
	}
	payload, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}

	stored := plainText(payload)
	if stored == "" {
		return "", fmt.Errorf("upload %s: empty response", name)
	}
	return stored, nil
}

func multipartRequest(path string, query url.Values, name string, content io.Reader) (request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(uploadField, name)
	if err != nil {
		return request{}, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return request{}, fmt.Errorf("write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return request{}, fmt.Errorf("close multipart body: %w", err)
	}

	return request{
		method:      http.MethodPost,
		path:        path,
		query:       query,
		body:        &body,
		contentType: writer.FormDataContentType(),
	}, nil
}
