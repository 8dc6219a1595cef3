package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

func TestCreators_CRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token

	created := env.createCreator(token, "Jane Doe")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Jane Doe", created.Name)
	assert.Equal(t, "janedoe@example.com", created.Email)
	assert.Equal(t, []string{"fitness"}, created.Tags)
	assert.Empty(t, created.Platforms)
	assert.NotNil(t, created.Platforms)

	env.createCreator(token, "John Roe")

	var creators []CreatorDetail
	env.doInto(http.MethodGet, "/creators", token, nil, http.StatusOK, &creators)
	require.Len(t, creators, 2)
	assert.Equal(t, "Jane Doe", creators[0].Name)
	assert.Equal(t, "John Roe", creators[1].Name)

	bio := "Runs marathons"
	tags := []string{"running", "outdoor"}
	var updated CreatorDetail
	env.doInto(http.MethodPut, "/creators/"+created.ID, token, UpdateCreatorRequest{Bio: &bio, Tags: &tags}, http.StatusOK, &updated)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, "Runs marathons", updated.Bio)
	assert.Equal(t, tags, updated.Tags)

	var fetched CreatorDetail
	env.doInto(http.MethodGet, "/creators/"+created.ID, token, nil, http.StatusOK, &fetched)
	assert.Equal(t, updated.Bio, fetched.Bio)

	status, _ := env.do(http.MethodDelete, "/creators/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(http.MethodGet, "/creators/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreators_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token

	status, _ := env.do(http.MethodPost, "/creators", token, CreateCreatorRequest{Email: "a@b.test"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, "/creators", token, CreateCreatorRequest{Name: "A", Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, "/creators", token, CreateCreatorRequest{Name: "   ", Email: "a@b.test"})
	assert.Equal(t, http.StatusBadRequest, status)

	creator := env.createCreator(token, "Jane")
	for _, name := range []string{"", "   "} {
		status, _ = env.do(http.MethodPut, "/creators/"+creator.ID, token, UpdateCreatorRequest{Name: &name})
		assert.Equal(t, http.StatusBadRequest, status, "name %q", name)
	}

	var got CreatorDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID, token, nil, http.StatusOK, &got)
	assert.Equal(t, "Jane", got.Name)
}

func TestCreators_AreScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register("owner@example.com").Token
	intruder := env.register("intruder@example.com").Token

	creator := env.createCreator(owner, "Jane")

	var creators []CreatorDetail
	env.doInto(http.MethodGet, "/creators", intruder, nil, http.StatusOK, &creators)
	assert.Empty(t, creators)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/creators/" + creator.ID},
		{http.MethodPut, "/creators/" + creator.ID},
		{http.MethodDelete, "/creators/" + creator.ID},
		{http.MethodGet, "/creators/" + creator.ID + "/contents"},
		{http.MethodGet, "/creators/" + creator.ID + "/analytics"},
		{http.MethodGet, "/creators/" + creator.ID + "/subscribers"},
	} {
		status, body := env.do(req.method, req.path, intruder, map[string]string{})
		assert.Equal(t, http.StatusNotFound, status, "%s %s", req.method, req.path)
		assert.Contains(t, string(body), "Creator not found")
	}
}

func TestCreators_SubscriberStats(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token
	creator := env.createCreator(token, "Jane")

	now := time.Now().UTC()
	for _, sub := range []models.Subscription{
		{CreatorID: creator.ID, SubscriberID: "s1", Tier: "basic", Price: 5, Status: models.SubscriptionActive, BillingCycle: "monthly", StartDate: now},
		{CreatorID: creator.ID, SubscriberID: "s2", Tier: "premium", Price: 120, Status: models.SubscriptionActive, BillingCycle: "yearly", StartDate: now},
		{CreatorID: creator.ID, SubscriberID: "s3", Tier: "basic", Price: 5, Status: models.SubscriptionCancelled, BillingCycle: "monthly", StartDate: now},
	} {
		require.NoError(t, env.db.Create(&sub).Error)
	}

	var fetched CreatorDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID, token, nil, http.StatusOK, &fetched)
	assert.Equal(t, int64(2), fetched.Subscribers)
	assert.InDelta(t, 15.0, fetched.MonthlyRevenue, 0.001)
}

func TestPlatforms(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("owner@example.com").Token
	creator := env.createCreator(token, "Jane Doe")
	base := "/creators/" + creator.ID + "/platforms/"

	status, _ := env.do(http.MethodPost, base+"myspace/connect", token, ConnectPlatformRequest{AccessToken: "x"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, base+"youtube/connect", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, base+"youtube/sync", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var connected CreatorDetail
	env.doInto(http.MethodPost, base+"youtube/connect", token, ConnectPlatformRequest{AccessToken: "oauth"}, http.StatusOK, &connected)
	require.Len(t, connected.Platforms, 1)
	assert.Equal(t, "youtube", connected.Platforms[0].Type)
	assert.Equal(t, "janedoe", connected.Platforms[0].Username)
	assert.True(t, connected.Platforms[0].IsConnected)
	assert.NotNil(t, connected.Platforms[0].LastSync)

	// Followers of connected platforms count towards the creator
	require.NoError(t, env.db.Model(&models.Platform{}).
		Where("creator_id = ? AND type = ?", creator.ID, "youtube").
		Update("followers", 1200).Error)

	var synced PlatformDetail
	env.doInto(http.MethodPost, base+"youtube/sync", token, nil, http.StatusOK, &synced)
	assert.Equal(t, int64(1200), synced.Followers)

	var fetched CreatorDetail
	env.doInto(http.MethodGet, "/creators/"+creator.ID, token, nil, http.StatusOK, &fetched)
	assert.Equal(t, int64(1200), fetched.Followers)

	var disconnected CreatorDetail
	env.doInto(http.MethodDelete, base+"youtube", token, nil, http.StatusOK, &disconnected)
	require.Len(t, disconnected.Platforms, 1)
	assert.False(t, disconnected.Platforms[0].IsConnected)
	assert.Zero(t, disconnected.Followers)

	status, _ = env.do(http.MethodPost, base+"youtube/sync", token, nil)
	assert.Equal(t, http.StatusConflict, status)

	var platform models.Platform
	require.NoError(t, env.db.Where("creator_id = ?", creator.ID).First(&platform).Error)
	assert.Empty(t, platform.AccessToken)
}
