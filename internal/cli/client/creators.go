package client

import (
	"context"
	"net/http"

	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

// ListCreators returns all creators of the signed-in user
func (c *Client) ListCreators(ctx context.Context) ([]Creator, error) {
	var creators []Creator
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          "/creators",
		authenticated: true,
		fallback:      i18n.CreatorsLoadFailed,
	}, &creators)
	if err != nil {
		return nil, err
	}
	return creators, nil
}

// GetCreator returns a creator by ID
func (c *Client) GetCreator(ctx context.Context, id string) (*Creator, error) {
	var creator Creator
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          pathf("/creators/%s", id),
		authenticated: true,
		fallback:      i18n.CreatorLoadFailed,
	}, &creator)
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// CreateCreator creates a new creator
func (c *Client) CreateCreator(ctx context.Context, input CreatorInput) (*Creator, error) {
	var creator Creator
	err := c.sendJSON(ctx, call{
		method:        http.MethodPost,
		path:          "/creators",
		body:          input,
		authenticated: true,
		fallback:      i18n.CreatorCreateFailed,
	}, &creator)
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// UpdateCreator changes a creator's fields
func (c *Client) UpdateCreator(ctx context.Context, id string, update CreatorUpdate) (*Creator, error) {
	var creator Creator
	err := c.sendJSON(ctx, call{
		method:        http.MethodPut,
		path:          pathf("/creators/%s", id),
		body:          update,
		authenticated: true,
		fallback:      i18n.CreatorUpdateFailed,
	}, &creator)
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// DeleteCreator deletes a creator by ID
func (c *Client) DeleteCreator(ctx context.Context, id string) error {
	_, err := c.send(ctx, call{
		method:        http.MethodDelete,
		path:          pathf("/creators/%s", id),
		authenticated: true,
		fallback:      i18n.CreatorDeleteFailed,
	})
	return err
}

// ConnectPlatform links a platform account to a creator using the
// platform's OAuth access token
func (c *Client) ConnectPlatform(ctx context.Context, creatorID string, platform PlatformType, accessToken string) (*Creator, error) {
	var creator Creator
	err := c.sendJSON(ctx, call{
		method:        http.MethodPost,
		path:          pathf("/creators/%s/platforms/%s/connect", creatorID, string(platform)),
		body:          map[string]string{"accessToken": accessToken},
		authenticated: true,
		fallback:      i18n.PlatformConnect,
	}, &creator)
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// DisconnectPlatform unlinks a platform account from a creator
func (c *Client) DisconnectPlatform(ctx context.Context, creatorID string, platform PlatformType) (*Creator, error) {
	var creator Creator
	err := c.sendJSON(ctx, call{
		method:        http.MethodDelete,
		path:          pathf("/creators/%s/platforms/%s", creatorID, string(platform)),
		authenticated: true,
		fallback:      i18n.PlatformDisconnect,
	}, &creator)
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// SyncPlatform asks the server to pull fresh data from a connected platform
func (c *Client) SyncPlatform(ctx context.Context, creatorID string, platform PlatformType) error {
	_, err := c.send(ctx, call{
		method:        http.MethodPost,
		path:          pathf("/creators/%s/platforms/%s/sync", creatorID, string(platform)),
		authenticated: true,
		fallback:      i18n.PlatformSync,
	})
	return err
}
