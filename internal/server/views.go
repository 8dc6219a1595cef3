package server

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

var platformTypes = []string{"youtube", "instagram", "tiktok", "twitch", "onlyfans"}

func isPlatform(value string) bool {
	return slices.Contains(platformTypes, value)
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func userDetail(user models.User) UserDetail {
	return UserDetail{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// PlatformDetail represents a creator's platform account
type PlatformDetail struct {
	Type        string     `json:"type"`
	Username    string     `json:"username"`
	Followers   int64      `json:"followers"`
	IsConnected bool       `json:"isConnected"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
}

// CreatorDetail represents a creator returned in responses
type CreatorDetail struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Bio            string           `json:"bio,omitempty"`
	ProfileImage   string           `json:"profileImage,omitempty"`
	Platforms      []PlatformDetail `json:"platforms"`
	Followers      int64            `json:"followers"`
	Subscribers    int64            `json:"subscribers"`
	MonthlyRevenue float64          `json:"monthlyRevenue"`
	Tags           []string         `json:"tags"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// subscriberStats aggregates a creator's active subscriptions
type subscriberStats struct {
	CreatorID      string
	Subscribers    int64
	MonthlyRevenue float64
}

// loadSubscriberStats returns the active subscription totals per creator
func loadSubscriberStats(db *gorm.DB, creatorIDs []string) (map[string]subscriberStats, error) {
	stats := make(map[string]subscriberStats, len(creatorIDs))
	if len(creatorIDs) == 0 {
		return stats, nil
	}

	var rows []subscriberStats
	err := db.Model(&models.Subscription{}).
		Select(`creator_id,
			COUNT(*) AS subscribers,
			COALESCE(SUM(CASE WHEN billing_cycle = 'yearly' THEN price / 12.0 ELSE price END), 0) AS monthly_revenue`).
		Where("creator_id IN ? AND status = ?", creatorIDs, models.SubscriptionActive).
		Group("creator_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats[row.CreatorID] = row
	}
	return stats, nil
}

func creatorDetail(creator models.Creator, stats subscriberStats) CreatorDetail {
	detail := CreatorDetail{
		ID:             creator.ID,
		UserID:         creator.UserID,
		Name:           creator.Name,
		Email:          creator.Email,
		Bio:            creator.Bio,
		ProfileImage:   creator.ProfileImage,
		Platforms:      make([]PlatformDetail, 0, len(creator.Platforms)),
		Subscribers:    stats.Subscribers,
		MonthlyRevenue: stats.MonthlyRevenue,
		Tags:           nonNil(creator.Tags),
		CreatedAt:      creator.CreatedAt,
		UpdatedAt:      creator.UpdatedAt,
	}

	for _, platform := range creator.Platforms {
		detail.Platforms = append(detail.Platforms, PlatformDetail{
			Type:        platform.Type,
			Username:    platform.Username,
			Followers:   platform.Followers,
			IsConnected: platform.IsConnected,
			LastSync:    platform.LastSync,
		})
		if platform.IsConnected {
			detail.Followers += platform.Followers
		}
	}

	return detail
}

// ContentAnalyticsDetail holds the engagement counters of a content item
type ContentAnalyticsDetail struct {
	Views    int64   `json:"views"`
	Likes    int64   `json:"likes"`
	Comments int64   `json:"comments"`
	Shares   int64   `json:"shares"`
	Revenue  float64 `json:"revenue"`
}

// ContentDetail represents a content item returned in responses
type ContentDetail struct {
	ID            string                  `json:"id"`
	CreatorID     string                  `json:"creatorId"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description,omitempty"`
	Type          string                  `json:"type"`
	MediaURL      string                  `json:"mediaUrl,omitempty"`
	ThumbnailURL  string                  `json:"thumbnailUrl,omitempty"`
	Platforms     []string                `json:"platforms"`
	ScheduledDate *time.Time              `json:"scheduledDate,omitempty"`
	PublishedDate *time.Time              `json:"publishedDate,omitempty"`
	Status        string                  `json:"status"`
	Analytics     *ContentAnalyticsDetail `json:"analytics,omitempty"`
	Tags          []string                `json:"tags"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

func contentAnalytics(content models.Content) ContentAnalyticsDetail {
	return ContentAnalyticsDetail{
		Views:    content.Views,
		Likes:    content.Likes,
		Comments: content.Comments,
		Shares:   content.Shares,
		Revenue:  content.Revenue,
	}
}

func contentDetail(content models.Content) ContentDetail {
	detail := ContentDetail{
		ID:            content.ID,
		CreatorID:     content.CreatorID,
		Title:         content.Title,
		Description:   content.Description,
		Type:          content.Type,
		MediaURL:      mediaURL(content.MediaPath),
		ThumbnailURL:  content.ThumbnailURL,
		Platforms:     nonNil(content.Platforms),
		ScheduledDate: content.ScheduledDate,
		PublishedDate: content.PublishedDate,
		Status:        content.Status,
		Tags:          nonNil(content.Tags),
		CreatedAt:     content.CreatedAt,
		UpdatedAt:     content.UpdatedAt,
	}

	if content.Status == models.StatusPublished {
		analytics := contentAnalytics(content)
		detail.Analytics = &analytics
	}

	return detail
}

// mediaURL returns the public path of stored media
func mediaURL(mediaPath string) string {
	if mediaPath == "" {
		return ""
	}
	return (&url.URL{Path: path.Join("/media", mediaPath)}).EscapedPath()
}

// SubscriptionDetail represents a subscription returned in responses
type SubscriptionDetail struct {
	ID           string     `json:"id"`
	CreatorID    string     `json:"creatorId"`
	SubscriberID string     `json:"subscriberId"`
	Tier         string     `json:"tier"`
	Price        float64    `json:"price"`
	Status       string     `json:"status"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	BillingCycle string     `json:"billingCycle"`
}

func subscriptionDetail(sub models.Subscription) SubscriptionDetail {
	return SubscriptionDetail{
		ID:           sub.ID,
		CreatorID:    sub.CreatorID,
		SubscriberID: sub.SubscriberID,
		Tier:         sub.Tier,
		Price:        sub.Price,
		Status:       sub.Status,
		StartDate:    sub.StartDate,
		EndDate:      sub.EndDate,
		BillingCycle: sub.BillingCycle,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// findOwnedCreator loads a creator of the signed-in user. It answers the
// request itself and returns false when the creator cannot be used.
func (s *Server) findOwnedCreator(c *gin.Context, id string, preloads ...string) (*models.Creator, bool) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	query := s.db.Where("user_id = ?", sessionData.UserID)
	for _, preload := range preloads {
		query = query.Preload(preload)
	}

	var creator models.Creator
	if err := query.Where("id = ?", id).First(&creator).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Creator not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Str("creator_id", id).Msg("Failed to find creator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return &creator, true
}

// findOwnedContent loads a content item of one of the signed-in user's creators
func (s *Server) findOwnedContent(c *gin.Context, id string) (*models.Content, bool) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}

	var content models.Content
	err := s.db.
		Joins("JOIN creators ON creators.id = contents.creator_id").
		Where("contents.id = ? AND creators.user_id = ?", id, sessionData.UserID).
		First(&content).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Str("content_id", id).Msg("Failed to find content")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return &content, true
}

// normalizer is implemented by requests that clean up their fields before
// validation
type normalizer interface {
	normalize()
}

func trimPtr(value *string) {
	if value != nil {
		*value = strings.TrimSpace(*value)
	}
}

// bindJSON decodes and validates a request body, answering 400 on failure
func (s *Server) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}

	if n, ok := req.(normalizer); ok {
		n.normalize()
	}

	if err := s.validator.Struct(req); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return false
	}

	return true
}
