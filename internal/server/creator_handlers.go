package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

// CreateCreatorRequest represents a request to create a creator
type CreateCreatorRequest struct {
	Name         string   `json:"name" validate:"required,max=100"`
	Email        string   `json:"email" validate:"required,email"`
	Bio          string   `json:"bio" validate:"max=1000"`
	ProfileImage string   `json:"profileImage" validate:"omitempty,url"`
	Tags         []string `json:"tags" validate:"dive,required,max=50"`
}

func (r *CreateCreatorRequest) normalize() { r.Name = strings.TrimSpace(r.Name) }

// UpdateCreatorRequest carries the creator fields to change
type UpdateCreatorRequest struct {
	Name         *string   `json:"name" validate:"omitnil,min=1,max=100"`
	Email        *string   `json:"email" validate:"omitnil,email"`
	Bio          *string   `json:"bio" validate:"omitnil,max=1000"`
	ProfileImage *string   `json:"profileImage" validate:"omitnil,max=500"`
	Tags         *[]string `json:"tags" validate:"omitnil,dive,required,max=50"`
}

func (r *UpdateCreatorRequest) normalize() { trimPtr(r.Name) }

// ConnectPlatformRequest carries the platform's OAuth access token
type ConnectPlatformRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
	Username    string `json:"username"`
}

// respondWithCreator reloads a creator with its platforms and statistics
func (s *Server) respondWithCreator(c *gin.Context, status int, id string) {
	var creator models.Creator
	if err := models.FindByIDWithPreload(s.db, id, &creator, "Platforms"); err != nil {
		s.logger.Error().Err(err).Str("creator_id", id).Msg("Failed to reload creator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	stats, err := loadSubscriberStats(s.db, []string{creator.ID})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load subscriber stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, creatorDetail(creator, stats[creator.ID]))
}

// @Router /creators [get]
// @Success 200 {array} CreatorDetail
func (s *Server) listCreators(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var creators []models.Creator
	err := s.db.Preload("Platforms").
		Where("user_id = ?", sessionData.UserID).
		Order("created_at ASC").
		Find(&creators).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list creators")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ids := make([]string, len(creators))
	for i, creator := range creators {
		ids[i] = creator.ID
	}

	stats, err := loadSubscriberStats(s.db, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load subscriber stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]CreatorDetail, len(creators))
	for i, creator := range creators {
		details[i] = creatorDetail(creator, stats[creator.ID])
	}

	c.JSON(http.StatusOK, details)
}

// @Router /creators/{id} [get]
// @Success 200 {object} CreatorDetail
func (s *Server) getCreator(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}
	s.respondWithCreator(c, http.StatusOK, creator.ID)
}

// @Router /creators [post]
// @Param body body CreateCreatorRequest true "Creator"
// @Success 201 {object} CreatorDetail
func (s *Server) createCreator(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CreateCreatorRequest
	if !s.bindJSON(c, &req) {
		return
	}

	creator := models.Creator{
		UserID:       sessionData.UserID,
		Name:         req.Name,
		Email:        normalizeEmail(req.Email),
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
		Tags:         req.Tags,
	}

	if err := s.db.Create(&creator).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create creator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create creator"})
		return
	}

	s.logger.Info().
		Str("creator_id", creator.ID).
		Str("user_id", sessionData.UserID).
		Msg("Creator created")

	s.respondWithCreator(c, http.StatusCreated, creator.ID)
}

// @Router /creators/{id} [put]
// @Param body body UpdateCreatorRequest true "Creator fields"
// @Success 200 {object} CreatorDetail
func (s *Server) updateCreator(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	var req UpdateCreatorRequest
	if !s.bindJSON(c, &req) {
		return
	}

	if req.Name != nil {
		creator.Name = *req.Name
	}
	if req.Email != nil {
		creator.Email = normalizeEmail(*req.Email)
	}
	if req.Bio != nil {
		creator.Bio = *req.Bio
	}
	if req.ProfileImage != nil {
		creator.ProfileImage = *req.ProfileImage
	}
	if req.Tags != nil {
		creator.Tags = *req.Tags
	}

	if err := s.db.Save(creator).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update creator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update creator"})
		return
	}

	s.respondWithCreator(c, http.StatusOK, creator.ID)
}

// @Router /creators/{id} [delete]
// @Success 204
func (s *Server) deleteCreator(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	var mediaPaths []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Content{}).
			Where("creator_id = ? AND media_path <> ''", creator.ID).
			Pluck("media_path", &mediaPaths).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Content{}, &models.Platform{}, &models.Subscription{}} {
			if err := tx.Where("creator_id = ?", creator.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(creator).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("creator_id", creator.ID).Msg("Failed to delete creator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete creator"})
		return
	}

	for _, mediaPath := range mediaPaths {
		s.removeMedia(mediaPath)
	}

	s.logger.Info().Str("creator_id", creator.ID).Msg("Creator deleted")
	c.Status(http.StatusNoContent)
}

// platformParam validates the :platform path segment
func platformParam(c *gin.Context) (string, bool) {
	platform := c.Param("platform")
	if !isPlatform(platform) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported platform " + platform})
		return "", false
	}
	return platform, true
}

// findPlatform loads a creator's platform account
func (s *Server) findPlatform(c *gin.Context, creatorID, platformType string) (*models.Platform, bool) {
	var platform models.Platform
	err := s.db.Where("creator_id = ? AND type = ?", creatorID, platformType).First(&platform).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Platform not connected"})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find platform")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &platform, true
}

// @Router /creators/{id}/platforms/{platform}/connect [post]
// @Param body body ConnectPlatformRequest true "OAuth token"
// @Success 200 {object} CreatorDetail
func (s *Server) connectPlatform(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	platformType, ok := platformParam(c)
	if !ok {
		return
	}

	var req ConnectPlatformRequest
	if !s.bindJSON(c, &req) {
		return
	}

	now := s.now()
	platform := models.Platform{CreatorID: creator.ID, Type: platformType}
	if err := s.db.Where(&platform).FirstOrInit(&platform).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to find platform")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	platform.AccessToken = req.AccessToken
	platform.IsConnected = true
	platform.LastSync = &now
	if req.Username != "" {
		platform.Username = req.Username
	}
	if platform.Username == "" {
		platform.Username = strings.ToLower(strings.Join(strings.Fields(creator.Name), ""))
	}

	if err := s.db.Save(&platform).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to connect platform")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect platform"})
		return
	}

	s.logger.Info().
		Str("creator_id", creator.ID).
		Str("platform", platformType).
		Msg("Platform connected")

	s.respondWithCreator(c, http.StatusOK, creator.ID)
}

// @Router /creators/{id}/platforms/{platform} [delete]
// @Success 200 {object} CreatorDetail
func (s *Server) disconnectPlatform(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	platformType, ok := platformParam(c)
	if !ok {
		return
	}

	platform, ok := s.findPlatform(c, creator.ID, platformType)
	if !ok {
		return
	}

	err := s.db.Model(platform).Updates(map[string]any{
		"is_connected": false,
		"access_token": "",
	}).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to disconnect platform")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect platform"})
		return
	}

	s.respondWithCreator(c, http.StatusOK, creator.ID)
}

// @Router /creators/{id}/platforms/{platform}/sync [post]
// @Success 200 {object} PlatformDetail
func (s *Server) syncPlatform(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return
	}

	platformType, ok := platformParam(c)
	if !ok {
		return
	}

	platform, ok := s.findPlatform(c, creator.ID, platformType)
	if !ok {
		return
	}

	if !platform.IsConnected {
		c.JSON(http.StatusConflict, gin.H{"error": "Platform not connected"})
		return
	}

	now := s.now()
	if err := s.db.Model(platform).Update("last_sync", now).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to sync platform")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync platform"})
		return
	}

	c.JSON(http.StatusOK, PlatformDetail{
		Type:        platform.Type,
		Username:    platform.Username,
		Followers:   platform.Followers,
		IsConnected: platform.IsConnected,
		LastSync:    &now,
	})
}
