package server

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

// seedAnalytics gives a creator platforms, published content and subscribers
func seedAnalytics(t *testing.T, env *testEnv, creatorID string) {
	t.Helper()

	now := time.Now().UTC()
	ago := func(d time.Duration) *time.Time {
		at := now.Add(-d)
		return &at
	}
	day := 24 * time.Hour

	rows := []any{
		&models.Platform{CreatorID: creatorID, Type: "youtube", Username: "jane", Followers: 1000, IsConnected: true},
		&models.Platform{CreatorID: creatorID, Type: "instagram", Username: "jane", Followers: 500, IsConnected: true},
		&models.Platform{CreatorID: creatorID, Type: "tiktok", Username: "jane", Followers: 300},

		&models.Content{CreatorID: creatorID, Title: "Hit", Type: "video", Status: models.StatusPublished,
			Platforms: []string{"youtube"}, PublishedDate: ago(2 * day),
			Views: 1000, Likes: 80, Comments: 10, Shares: 10, Revenue: 20},
		&models.Content{CreatorID: creatorID, Title: "Crosspost", Type: "image", Status: models.StatusPublished,
			Platforms: []string{"youtube", "instagram"}, PublishedDate: ago(day),
			Views: 500, Likes: 20, Comments: 5, Revenue: 10},
		&models.Content{CreatorID: creatorID, Title: "Old", Type: "image", Status: models.StatusPublished,
			Platforms: []string{"instagram"}, PublishedDate: ago(60 * day),
			Views: 9999, Revenue: 99},
		&models.Content{CreatorID: creatorID, Title: "Draft", Type: "text", Status: models.StatusDraft},

		&models.Subscription{CreatorID: creatorID, SubscriberID: "sub-old", Tier: "basic", Price: 10,
			Status: models.SubscriptionActive, BillingCycle: "monthly", StartDate: *ago(60 * day)},
		&models.Subscription{CreatorID: creatorID, SubscriberID: "sub-new", Tier: "premium", Price: 120,
			Status: models.SubscriptionActive, BillingCycle: "yearly", StartDate: *ago(3 * day)},
		&models.Subscription{CreatorID: creatorID, SubscriberID: "sub-gone", Tier: "basic", Price: 10,
			Status: models.SubscriptionCancelled, BillingCycle: "monthly", StartDate: *ago(180 * day), EndDate: ago(2 * day)},
	}
	for _, row := range rows {
		require.NoError(t, env.db.Create(row).Error)
	}
}

func TestCreatorAnalytics(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token
	creator := env.createCreator(token, "Jane")
	seedAnalytics(t, env, creator.ID)

	var analytics AnalyticsDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID+"/analytics", token, nil, http.StatusOK, &analytics)

	assert.Equal(t, creator.ID, analytics.CreatorID)
	assert.Equal(t, "month", analytics.Period)
	assert.Equal(t, int64(1500), analytics.Followers)
	assert.Equal(t, int64(1), analytics.NewFollowers)
	assert.Equal(t, int64(1), analytics.Unfollowers)
	assert.Equal(t, int64(1500), analytics.Views)
	assert.InDelta(t, 50.0, analytics.Revenue, 0.001)
	assert.InDelta(t, 8.33, analytics.Engagement, 0.001)

	require.Len(t, analytics.TopContent, 2)
	assert.Equal(t, "Hit", analytics.TopContent[0].Title)
	assert.Equal(t, "Crosspost", analytics.TopContent[1].Title)
	require.NotNil(t, analytics.TopContent[0].Analytics)

	require.Len(t, analytics.PlatformBreakdown, 3)
	assert.Equal(t, PlatformBreakdownDetail{Platform: "youtube", Followers: 1000, Revenue: 25, Engagement: 8.33}, analytics.PlatformBreakdown[0])
	assert.Equal(t, PlatformBreakdownDetail{Platform: "instagram", Followers: 500, Revenue: 5, Engagement: 5}, analytics.PlatformBreakdown[1])
	assert.Equal(t, PlatformBreakdownDetail{Platform: "tiktok"}, analytics.PlatformBreakdown[2])
}

func TestCreatorAnalytics_Periods(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token
	creator := env.createCreator(token, "Jane")
	seedAnalytics(t, env, creator.ID)

	var week AnalyticsDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID+"/analytics?period=week", token, nil, http.StatusOK, &week)
	assert.Equal(t, "week", week.Period)
	assert.InDelta(t, 34.67, week.Revenue, 0.001)
	assert.Equal(t, int64(1), week.NewFollowers)

	var year AnalyticsDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID+"/analytics?period=year", token, nil, http.StatusOK, &year)
	assert.Equal(t, int64(11499), year.Views)
	assert.Equal(t, int64(3), year.NewFollowers)
	assert.Len(t, year.TopContent, 3)
	assert.Equal(t, "Old", year.TopContent[0].Title)

	var empty AnalyticsDetail
	other := env.createCreator(token, "Nobody")
	env.doInto(http.MethodGet, "/creators/"+other.ID+"/analytics?period=day", token, nil, http.StatusOK, &empty)
	assert.Zero(t, empty.Views)
	assert.Zero(t, empty.Engagement)
	assert.NotNil(t, empty.TopContent)
	assert.NotNil(t, empty.PlatformBreakdown)

	status, body := env.do(http.MethodGet, "/creators/"+creator.ID+"/analytics?period=decade", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Unsupported period decade")
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	since, months, ok := periodStart("week", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 24, 12, 0, 0, 0, time.UTC), since)
	assert.InDelta(t, 7.0/30, months, 1e-9)

	since, months, ok = periodStart("year", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 3, 31, 12, 0, 0, 0, time.UTC), since)
	assert.Equal(t, 12.0, months)

	_, _, ok = periodStart("", now)
	assert.False(t, ok)
}

func TestListSubscribers(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token
	creator := env.createCreator(token, "Jane")
	seedAnalytics(t, env, creator.ID)

	var subscribers []SubscriptionDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID+"/subscribers", token, nil, http.StatusOK, &subscribers)
	require.Len(t, subscribers, 3)
	assert.Equal(t, "sub-new", subscribers[0].SubscriberID)
	assert.Equal(t, "sub-old", subscribers[1].SubscriberID)
	assert.Equal(t, "sub-gone", subscribers[2].SubscriberID)
	assert.NotNil(t, subscribers[2].EndDate)
}

func TestExportSubscribers(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token
	creator := env.createCreator(token, "Jane")
	seedAnalytics(t, env, creator.ID)

	req, err := http.NewRequest(http.MethodGet, env.http.URL+"/creators/"+creator.ID+"/subscribers/export?format=csv", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=\"subscribers-")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "sub-new", records[1][1])
	assert.Equal(t, "120.00", records[1][3])
	assert.Equal(t, "yearly", records[1][5])
	assert.Empty(t, records[1][7])
	assert.NotEmpty(t, records[3][7])

	status, body := env.do(http.MethodGet, "/creators/"+creator.ID+"/subscribers/export?format=xlsx", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Unsupported export format xlsx")
}
