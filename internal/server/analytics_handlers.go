package server

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

const topContentLimit = 5

// PlatformBreakdownDetail is a per-platform slice of creator analytics
type PlatformBreakdownDetail struct {
	Platform   string  `json:"platform"`
	Followers  int64   `json:"followers"`
	Revenue    float64 `json:"revenue"`
	Engagement float64 `json:"engagement"`
}

// AnalyticsDetail summarizes a creator over a period
type AnalyticsDetail struct {
	CreatorID         string                    `json:"creatorId"`
	Period            string                    `json:"period"`
	Date              time.Time                 `json:"date"`
	Followers         int64                     `json:"followers"`
	NewFollowers      int64                     `json:"newFollowers"`
	Unfollowers       int64                     `json:"unfollowers"`
	Revenue           float64                   `json:"revenue"`
	Views             int64                     `json:"views"`
	Engagement        float64                   `json:"engagement"`
	TopContent        []ContentDetail           `json:"topContent"`
	PlatformBreakdown []PlatformBreakdownDetail `json:"platformBreakdown"`
}

// periodStart returns the beginning of the analytics window ending at now,
// and how many months of subscription revenue the window covers
func periodStart(period string, now time.Time) (time.Time, float64, bool) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), 1.0 / 30, true
	case "week":
		return now.AddDate(0, 0, -7), 7.0 / 30, true
	case "month":
		return now.AddDate(0, -1, 0), 1, true
	case "year":
		return now.AddDate(-1, 0, 0), 12, true
	default:
		return time.Time{}, 0, false
	}
}

// engagementRate returns interactions per view as a percentage
func engagementRate(interactions, views int64) float64 {
	if views == 0 {
		return 0
	}
	return round2(float64(interactions) / float64(views) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// @Summary Creator analytics
// @Param period query string false "day, week, month (default) or year"
// @Router /creators/{id}/analytics [get]
// @Success 200 {object} AnalyticsDetail
func (s *Server) getCreatorAnalytics(c *gin.Context) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"), "Platforms")
	if !ok {
		return
	}

	period := c.DefaultQuery("period", "month")
	now := s.now().UTC()
	since, months, ok := periodStart(period, now)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported period " + period})
		return
	}

	var contents []models.Content
	err := s.db.Where("creator_id = ? AND status = ? AND published_date >= ?", creator.ID, models.StatusPublished, since).
		Order("views DESC").
		Find(&contents).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load contents for analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var subscriptions []models.Subscription
	if err := s.db.Where("creator_id = ?", creator.ID).Find(&subscriptions).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load subscriptions for analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	analytics := AnalyticsDetail{
		CreatorID:         creator.ID,
		Period:            period,
		Date:              now,
		TopContent:        []ContentDetail{},
		PlatformBreakdown: []PlatformBreakdownDetail{},
	}

	for _, sub := range subscriptions {
		if !sub.StartDate.Before(since) {
			analytics.NewFollowers++
		}
		if sub.Status == models.SubscriptionCancelled && sub.EndDate != nil && !sub.EndDate.Before(since) {
			analytics.Unfollowers++
		}
		if sub.Status == models.SubscriptionActive {
			analytics.Revenue += sub.MonthlyPrice() * months
		}
	}

	type platformTotals struct {
		revenue      float64
		views        int64
		interactions int64
	}
	perPlatform := make(map[string]*platformTotals)

	var interactions int64
	for _, content := range contents {
		contentInteractions := content.Likes + content.Comments + content.Shares
		analytics.Views += content.Views
		analytics.Revenue += content.Revenue
		interactions += contentInteractions

		for _, platform := range content.Platforms {
			totals, ok := perPlatform[platform]
			if !ok {
				totals = &platformTotals{}
				perPlatform[platform] = totals
			}
			totals.revenue += content.Revenue / float64(len(content.Platforms))
			totals.views += content.Views
			totals.interactions += contentInteractions
		}
	}

	analytics.Revenue = round2(analytics.Revenue)
	analytics.Engagement = engagementRate(interactions, analytics.Views)

	for _, content := range contents[:min(topContentLimit, len(contents))] {
		analytics.TopContent = append(analytics.TopContent, contentDetail(content))
	}

	for _, platform := range creator.Platforms {
		breakdown := PlatformBreakdownDetail{Platform: platform.Type}
		if platform.IsConnected {
			breakdown.Followers = platform.Followers
			analytics.Followers += platform.Followers
		}
		if totals, ok := perPlatform[platform.Type]; ok {
			breakdown.Revenue = round2(totals.revenue)
			breakdown.Engagement = engagementRate(totals.interactions, totals.views)
		}
		analytics.PlatformBreakdown = append(analytics.PlatformBreakdown, breakdown)
	}
	slices.SortFunc(analytics.PlatformBreakdown, func(a, b PlatformBreakdownDetail) int {
		return cmp.Compare(b.Followers, a.Followers)
	})

	c.JSON(http.StatusOK, analytics)
}

// @Router /creators/{id}/subscribers [get]
// @Success 200 {array} SubscriptionDetail
func (s *Server) listSubscribers(c *gin.Context) {
	subscriptions, ok := s.loadSubscriptions(c)
	if !ok {
		return
	}

	details := make([]SubscriptionDetail, len(subscriptions))
	for i, sub := range subscriptions {
		details[i] = subscriptionDetail(sub)
	}

	c.JSON(http.StatusOK, details)
}

func (s *Server) loadSubscriptions(c *gin.Context) ([]models.Subscription, bool) {
	creator, ok := s.findOwnedCreator(c, c.Param("id"))
	if !ok {
		return nil, false
	}

	var subscriptions []models.Subscription
	if err := s.db.Where("creator_id = ?", creator.ID).Order("start_date DESC").Find(&subscriptions).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list subscriptions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return subscriptions, true
}

var exportHeader = []string{"id", "subscriberId", "tier", "price", "status", "billingCycle", "startDate", "endDate"}

// @Summary Export subscribers
// @Param format query string false "csv (default); xlsx is not supported"
// @Produce text/csv
// @Router /creators/{id}/subscribers/export [get]
func (s *Server) exportSubscribers(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format " + format})
		return
	}

	subscriptions, ok := s.loadSubscriptions(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("subscribers-%s.csv", s.now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	rows := [][]string{exportHeader}
	for _, sub := range subscriptions {
		endDate := ""
		if sub.EndDate != nil {
			endDate = sub.EndDate.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			sub.ID,
			sub.SubscriberID,
			sub.Tier,
			strconv.FormatFloat(sub.Price, 'f', 2, 64),
			sub.Status,
			sub.BillingCycle,
			sub.StartDate.UTC().Format(time.RFC3339),
			endDate,
		})
	}

	if err := w.WriteAll(rows); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write subscriber export")
	}
}
