package forms

import (
	"fmt"
	"slices"

	"github.com/gabriel-vasile/mimetype"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

// Upload limits
const (
	MaxImageSize = 10 * 1024 * 1024
	MaxVideoSize = 100 * 1024 * 1024
)

var (
	allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}
	allowedVideoTypes = []string{"video/mp4", "video/quicktime", "video/x-matroska"}
)

// Media is an accepted upload file
type Media struct {
	MIMEType string
	Type     client.ContentType
	Size     int
}

// Media checks an upload file by its content, not its name: the detected type
// must be an allowed image or video type within that kind's size limit
func (v *Validator) Media(data []byte) (*Media, error) {
	if len(data) == 0 {
		return nil, v.mediaError("media", v.tr.T(i18n.MediaEmpty))
	}

	detected := mimetype.Detect(data)

	var (
		kind  client.ContentType
		limit int
	)
	switch {
	case slices.ContainsFunc(allowedImageTypes, detected.Is):
		kind, limit = client.ContentImage, MaxImageSize
	case slices.ContainsFunc(allowedVideoTypes, detected.Is):
		kind, limit = client.ContentVideo, MaxVideoSize
	default:
		return nil, v.mediaError("media", v.tr.T(i18n.MediaType, detected.String()))
	}

	if len(data) > limit {
		return nil, v.mediaError("media", v.tr.T(i18n.MediaTooLarge, humanSize(len(data)), humanSize(limit)))
	}

	return &Media{
		MIMEType: detected.String(),
		Type:     kind,
		Size:     len(data),
	}, nil
}

func (v *Validator) mediaError(field, message string) *ValidationError {
	return &ValidationError{
		Message: v.tr.T(i18n.Validation),
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

func humanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
