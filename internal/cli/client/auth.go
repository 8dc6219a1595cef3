package client

import (
	"context"
	"net/http"

	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Login authenticates the user and returns the user with a token pair
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.sendJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     LoginRequest{Email: email, Password: password},
		auth:     true,
		fallback: i18n.LoginFailed,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the user with a token pair
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.sendJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/register",
		body:     RegisterRequest{Email: email, Password: password, Name: name},
		auth:     true,
		fallback: i18n.RegisterFailed,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the session on the server
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.send(ctx, call{
		method:        http.MethodPost,
		path:          "/auth/logout",
		authenticated: true,
		auth:          true,
		fallback:      i18n.Unknown,
	})
	return err
}

// RefreshTokens exchanges a refresh token for a new token pair. It never
// goes through the refresh flow itself.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	err := c.sendJSON(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/refresh",
		body:     map[string]string{"refreshToken": refreshToken},
		auth:     true,
		fallback: i18n.RefreshFailed,
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ForgotPassword asks the server to send a password reset token
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/forgot-password",
		body:     map[string]string{"email": email},
		auth:     true,
		fallback: i18n.PasswordResetFailed,
	})
	return err
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, err := c.send(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/reset-password",
		body:     map[string]string{"token": token, "newPassword": newPassword},
		auth:     true,
		fallback: i18n.PasswordResetFailed,
	})
	return err
}

// CurrentUser returns the signed-in user's profile
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	err := c.sendJSON(ctx, call{
		method:        http.MethodGet,
		path:          "/auth/me",
		authenticated: true,
		fallback:      i18n.ProfileLoadFailed,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the signed-in user's profile
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var user User
	err := c.sendJSON(ctx, call{
		method:        http.MethodPut,
		path:          "/auth/profile",
		body:          update,
		authenticated: true,
		fallback:      i18n.ProfileUpdateFailed,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
