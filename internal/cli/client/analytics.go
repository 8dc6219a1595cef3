package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

// CreatorAnalytics returns a creator's analytics for a period (month if empty)
func (c *Client) CreatorAnalytics(ctx context.Context, creatorID string, period Period) (*Analytics, error) {
	if period == "" {
		period = PeriodMonth
	}

	var analytics Analytics
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/creators/%s/analytics", creatorID),
		query:         url.Values{"period": {string(period)}},
		authenticated: true,
		fallback:      i18n.AnalyticsLoadFailed,
	}, &analytics)
	if err != nil {
		return nil, err
	}
	return &analytics, nil
}

// ContentAnalytics returns the engagement counters of a content item
func (c *Client) ContentAnalytics(ctx context.Context, contentID string) (*ContentAnalytics, error) {
	var analytics ContentAnalytics
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/contents/%s/analytics", contentID),
		authenticated: true,
		fallback:      i18n.ContentAnalytics,
	}, &analytics)
	if err != nil {
		return nil, err
	}
	return &analytics, nil
}

// ListSubscribers returns a creator's subscriptions
func (c *Client) ListSubscribers(ctx context.Context, creatorID string) ([]Subscription, error) {
	var subscriptions []Subscription
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/creators/%s/subscribers", creatorID),
		authenticated: true,
		fallback:      i18n.SubscribersLoad,
	}, &subscriptions)
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// ExportSubscribers returns a creator's subscribers as a file (csv if empty)
func (c *Client) ExportSubscribers(ctx context.Context, creatorID string, format ExportFormat) ([]byte, error) {
	if format == "" {
		format = ExportCSV
	}

	return c.send(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/creators/%s/subscribers/export", creatorID),
		query:         url.Values{"format": {string(format)}},
		authenticated: true,
		fallback:      i18n.SubscribersExport,
	})
}
