package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

// ListContents returns all content items of a creator
func (c *Client) ListContents(ctx context.Context, creatorID string) ([]Content, error) {
	var contents []Content
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/creators/%s/contents", creatorID),
		authenticated: true,
		fallback:      i18n.ContentsLoadFailed,
	}, &contents)
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// GetContent returns a content item by ID
func (c *Client) GetContent(ctx context.Context, id string) (*Content, error) {
	var content Content
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/contents/%s", id),
		authenticated: true,
		fallback:      i18n.ContentLoadFailed,
	}, &content)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// UploadContent creates a content item with its media in one multipart request
func (c *Client) UploadContent(ctx context.Context, creatorID string, upload Upload) (*Content, error) {
	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, err
	}

	var content Content
	err = c.sendJSON(ctx, call{
		method:        http.MethodPost,
		path:          pathf("/creators/%s/contents", creatorID),
		rawBody:       body,
		contentType:   contentType,
		authenticated: true,
		fallback:      i18n.ContentUploadFailed,
	}, &content)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// encodeUpload builds the multipart form. The body is fully buffered so the
// request can be replayed after a token refresh.
func encodeUpload(upload Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", upload.Title},
		{"description", upload.Description},
		{"type", string(upload.Type)},
	}
	for _, platform := range upload.Platforms {
		fields = append(fields, [2]string{"platforms", platform})
	}
	for _, tag := range upload.Tags {
		fields = append(fields, [2]string{"tags", tag})
	}

	for _, field := range fields {
		if field[1] == "" {
			continue
		}
		if err := w.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", field[0], err)
		}
	}

	if len(upload.Media) > 0 {
		mimeType := upload.MIMEType
		if mimeType == "" {
			mimeType = mimetype.Detect(upload.Media).String()
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, upload.FileName))
		header.Set("Content-Type", mimeType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create media part: %w", err)
		}
		if _, err := part.Write(upload.Media); err != nil {
			return nil, "", fmt.Errorf("failed to write media: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

// UpdateContent changes a content item's fields
func (c *Client) UpdateContent(ctx context.Context, id string, update ContentUpdate) (*Content, error) {
	var content Content
	err := c.sendJSON(ctx, call{
		method:        http.MethodPut,
		path:          pathf("/contents/%s", id),
		body:          update,
		authenticated: true,
		fallback:      i18n.ContentUpdateFailed,
	}, &content)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// DeleteContent deletes a content item by ID
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	_, err := c.send(ctx, call{
		method:        http.MethodDelete,
		path:          pathf("/contents/%s", id),
		authenticated: true,
		fallback:      i18n.ContentDeleteFailed,
	})
	return err
}

// ScheduleContent schedules a content item for publishing at the given time
func (c *Client) ScheduleContent(ctx context.Context, id string, at time.Time) (*Content, error) {
	var content Content
	err := c.sendJSON(ctx, call{
		method:        http.MethodPost,
		path:          pathf("/contents/%s/schedule", id),
		body:          map[string]string{"scheduledDate": at.UTC().Format(time.RFC3339)},
		authenticated: true,
		fallback:      i18n.ContentSchedule,
	}, &content)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// PublishContent publishes a content item to the given platforms now
func (c *Client) PublishContent(ctx context.Context, id string, platforms []string) (*Content, error) {
	var content Content
	err := c.sendJSON(ctx, call{
		method:        http.MethodPost,
		path:          pathf("/contents/%s/publish", id),
		body:          map[string][]string{"platforms": platforms},
		authenticated: true,
		fallback:      i18n.ContentPublish,
	}, &content)
	if err != nil {
		return nil, err
	}
	return &content, nil
}
