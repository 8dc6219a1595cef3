package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

const (
	maxImageSize  = 10 << 20
	maxVideoSize  = 100 << 20
	maxUploadSize = maxVideoSize + 1<<20 // media plus form fields
)

var (
	imageTypes = []string{"image/jpeg", "image/png", "image/webp"}
	videoTypes = []string{"video/mp4", "video/quicktime", "video/x-matroska"}
)

// UploadContentRequest holds the form fields of a content upload
type UploadContentRequest struct {
	Title       string   `form:"title" validate:"required,max=200"`
	Description string   `form:"description" validate:"max=5000"`
	Type        string   `form:"type" validate:"required,oneof=image video text"`
	Platforms   []string `form:"platforms" validate:"dive,platform"`
	Tags        []string `form:"tags" validate:"dive,required,max=50"`
}

func (r *UploadContentRequest) normalize() { r.Title = strings.TrimSpace(r.Title) }

// UpdateContentRequest carries the content fields to change
type UpdateContentRequest struct {
	Title       *string   `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string   `json:"description" validate:"omitnil,max=5000"`
	Platforms   *[]string `json:"platforms" validate:"omitnil,dive,platform"`
	Tags        *[]string `json:"tags" validate:"omitnil,dive,required,max=50"`
}

func (r *UpdateContentRequest) normalize() { trimPtr(r.Title) }

// ScheduleContentRequest sets the publishing date
type ScheduleContentRequest struct {
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
}

// PublishContentRequest selects the platforms to publish to
type PublishContentRequest struct {
	Platforms []string `json:"platforms" validate:"dive,platform"`
}

// @Router /creators/{id}/contents [get]
// @Success 200 {array} ContentDetail
func (s *Server) listContents(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	var contents []models.Content
	if err := s.db.Where("creator_id = ?", creator.ID).Order("created_at DESC").Find(&contents).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list contents")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]ContentDetail, len(contents))
	for i, content := range contents {
		details[i] = contentDetail(content)
	}

	c.JSON(http.StatusOK, details)
}

// @Router /contents/{id} [get]
// @Success 200 {object} ContentDetail
func (s *Server) getContent(c *gin.Context) {
	content, ok := s.findOwnedContent(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, contentDetail(*content))
}

// @Summary Upload content
// @Description Creates a draft content item. Image and video items carry their media in the "media" part.
// @Accept multipart/form-data
// @Router /creators/{id}/contents [post]
// @Success 201 {object} ContentDetail
func (s *Server) uploadContent(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	var req UploadContentRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
			return
		}
		s.logger.Warn().Err(err).Msg("Invalid upload form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	req.normalize()
	if err := s.validator.Struct(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Upload validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	content := models.Content{
		BaseModel:   models.BaseModel{ID: ulid.Make().String()},
		CreatorID:   creator.ID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Platforms:   req.Platforms,
		Tags:        req.Tags,
		Status:      models.StatusDraft,
	}

	header, err := c.FormFile("media")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		if req.Type != "text" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Media file is required for " + req.Type + " content"})
			return
		}
	case err != nil:
		s.logger.Warn().Err(err).Msg("Invalid media part")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media file"})
		return
	default:
		mediaPath, mediaType, err := s.storeMedia(content.ID, req.Type, header)
		if err != nil {
			var rejected *rejectedMediaError
			if errors.As(err, &rejected) {
				c.JSON(rejected.status, gin.H{"error": rejected.message})
				return
			}
			s.logger.Error().Err(err).Msg("Failed to store media")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store media"})
			return
		}
		content.MediaPath = mediaPath
		content.MediaType = mediaType
		if req.Type == "image" {
			content.ThumbnailURL = mediaURL(mediaPath)
		}
	}

	if err := s.db.Create(&content).Error; err != nil {
		s.removeMedia(content.MediaPath)
		s.logger.Error().Err(err).Msg("Failed to create content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload content"})
		return
	}

	s.logger.Info().
		Str("content_id", content.ID).
		Str("creator_id", creator.ID).
		Str("media_type", content.MediaType).
		Msg("Content uploaded")

	c.JSON(http.StatusCreated, contentDetail(content))
}

// rejectedMediaError is an upload the client has to fix
type rejectedMediaError struct {
	status  int
	message string
}

func (e *rejectedMediaError) Error() string {
	return e.message
}

// storeMedia checks an uploaded file against the content type and writes it
// to the media store
func (s *Server) storeMedia(contentID, contentType string, header *multipart.FileHeader) (string, string, error) {
	if contentType == "text" {
		return "", "", &rejectedMediaError{http.StatusBadRequest, "Text content cannot carry media"}
	}

	file, err := header.Open()
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", "", err
	}

	allowed, limit := imageTypes, int64(maxImageSize)
	if contentType == "video" {
		allowed, limit = videoTypes, maxVideoSize
	}
	if !slices.ContainsFunc(allowed, detected.Is) {
		return "", "", &rejectedMediaError{
			status:  http.StatusUnsupportedMediaType,
			message: fmt.Sprintf("Unsupported media type %s for %s content", detected.String(), contentType),
		}
	}
	if header.Size > limit {
		return "", "", &rejectedMediaError{
			status:  http.StatusRequestEntityTooLarge,
			message: fmt.Sprintf("Media exceeds the %d MiB limit", limit>>20),
		}
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}

	name := mediaFileName(header.Filename, detected.Extension())
	mediaPath := path.Join(contentID, name)

	if err := s.media.MkdirAll(path.Join("/", contentID), 0o755); err != nil {
		return "", "", err
	}
	if err := afero.WriteReader(s.media, path.Join("/", mediaPath), file); err != nil {
		return "", "", err
	}

	return mediaPath, detected.String(), nil
}

// mediaFileName keeps the base name of an upload, falling back to a generic
// name with the detected extension
func mediaFileName(filename, ext string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "media" + ext
	}
	return name
}

// removeMedia deletes a content item's media directory
func (s *Server) removeMedia(mediaPath string) {
	if mediaPath == "" {
		return
	}
	dir := path.Join("/", path.Dir(mediaPath))
	if err := s.media.RemoveAll(dir); err != nil {
		s.logger.Warn().Err(err).Str("path", dir).Msg("Failed to remove media")
	}
}

// @Router /contents/{id} [put]
// @Param body body UpdateContentRequest true "Content fields"
// @Success 200 {object} ContentDetail
func (s *Server) updateContent(c *gin.Context) {
	content, ok := s.findOwnedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req UpdateContentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if req.Title != nil {
		content.Title = *req.Title
	}
	if req.Description != nil {
		content.Description = *req.Description
	}
	if req.Platforms != nil {
		content.Platforms = *req.Platforms
	}
	if req.Tags != nil {
		content.Tags = *req.Tags
	}

	if err := s.db.Save(content).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update content"})
		return
	}

	c.JSON(http.StatusOK, contentDetail(*content))
}

// @Router /contents/{id} [delete]
// @Success 204
func (s *Server) deleteContent(c *gin.Context) {
	content, ok := s.findOwnedContent(c, c.Param("id"))
	if !ok {
		return
	}

	if err := s.db.Delete(content).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete content"})
		return
	}

	s.removeMedia(content.MediaPath)

	s.logger.Info().Str("content_id", content.ID).Msg("Content deleted")
	c.Status(http.StatusNoContent)
}

// @Router /contents/{id}/schedule [post]
// @Param body body ScheduleContentRequest true "Publishing date"
// @Success 200 {object} ContentDetail
func (s *Server) scheduleContent(c *gin.Context) {
	content, ok := s.findOwnedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req ScheduleContentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if content.Status == models.StatusPublished {
		c.JSON(http.StatusConflict, gin.H{"error": "Content is already published"})
		return
	}
	if !req.ScheduledDate.After(s.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scheduled date must be in the future"})
		return
	}

	scheduled := req.ScheduledDate.UTC()
	content.ScheduledDate = &scheduled
	content.Status = models.StatusScheduled

	if err := s.db.Save(content).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to schedule content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule content"})
		return
	}

	s.logger.Info().
		Str("content_id", content.ID).
		Time("scheduled_date", scheduled).
		Msg("Content scheduled")

	c.JSON(http.StatusOK, contentDetail(*content))
}

// @Router /contents/{id}/publish [post]
// @Param body body PublishContentRequest true "Platforms"
// @Success 200 {object} ContentDetail
func (s *Server) publishContent(c *gin.Context) {
	content, ok := s.findOwnedContent(c, c.Param("id"))
	if !ok {
		return
	}

	var req PublishContentRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if content.Status == models.StatusPublished {
		c.JSON(http.StatusConflict, gin.H{"error": "Content is already published"})
		return
	}

	if len(req.Platforms) > 0 {
		content.Platforms = req.Platforms
	}
	if len(content.Platforms) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No platforms selected"})
		return
	}

	now := s.now().UTC()
	content.PublishedDate = &now
	content.Status = models.StatusPublished

	if err := s.db.Save(content).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to publish content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish content"})
		return
	}

	s.logger.Info().
		Str("content_id", content.ID).
		Strs("platforms", content.Platforms).
		Msg("Content published")

	c.JSON(http.StatusOK, contentDetail(*content))
}

// @Router /contents/{id}/analytics [get]
// @Success 200 {object} ContentAnalyticsDetail
func (s *Server) getContentAnalytics(c *gin.Context) {
	content, ok := s.findOwnedContent(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, contentAnalytics(*content))
}
