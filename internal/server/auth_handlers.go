package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/creatorhub-dev/creatorhub/internal/auth"
	"github.com/creatorhub-dev/creatorhub/internal/models"
)

const passwordResetTTL = time.Hour

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
}

func (r *RegisterRequest) normalize() { r.Name = strings.TrimSpace(r.Name) }

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to exchange
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ForgotPasswordRequest asks for a password reset token
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UpdateProfileRequest carries the profile fields to change
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=100"`
	Email *string `json:"email" validate:"omitnil,email"`
}

func (r *UpdateProfileRequest) normalize() { trimPtr(r.Name) }

// AuthResponse is returned by login and register
type AuthResponse struct {
	User         UserDetail `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

// TokenResponse is returned by refresh
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// issueTokens creates an access token and stores a new refresh token
func (s *Server) issueTokens(tx *gorm.DB, user models.User) (TokenResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.TokenVersion)
	if err != nil {
		return TokenResponse{}, err
	}

	refreshToken, err := auth.NewOpaqueToken()
	if err != nil {
		return TokenResponse{}, err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: auth.HashToken(refreshToken),
		ExpiresAt: s.now().Add(s.config.Auth.RefreshTokenTTL),
	}
	if err := tx.Create(&record).Error; err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{Token: token, RefreshToken: refreshToken}, nil
}

// @Summary Register
// @Description Creates an account and signs it in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bindJSON(c, &req) {
		return
	}

	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         req.Name,
	}

	var tokens TokenResponse
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		tokens, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")

	c.JSON(http.StatusCreated, AuthResponse{
		User:         userDetail(user),
		Token:        tokens.Token,
		RefreshToken: tokens.RefreshToken,
	})
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	tokens, err := s.issueTokens(s.db, user)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, AuthResponse{
		User:         userDetail(user),
		Token:        tokens.Token,
		RefreshToken: tokens.RefreshToken,
	})
}

// @Summary Refresh tokens
// @Description Exchanges a refresh token for a new token pair. The presented refresh token is consumed.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (s *Server) refresh(c *gin.Context) {
	var req RefreshRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var tokens TokenResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var record models.RefreshToken
		if err := tx.Preload("User").Where("token_hash = ?", auth.HashToken(req.RefreshToken)).First(&record).Error; err != nil {
			return err
		}

		// Single use: a replayed token finds nothing
		result := tx.Delete(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 || !record.ExpiresAt.After(s.now()) {
			return gorm.ErrRecordNotFound
		}

		var err error
		tokens, err = s.issueTokens(tx, record.User)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to refresh tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// @Summary Logout
// @Description Revokes every token of the signed-in user
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", sessionData.UserID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", sessionData.UserID).
			Update("token_version", gorm.Expr("token_version + 1")).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to log out")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	c.Status(http.StatusNoContent)
}

// @Summary Forgot password
// @Description Creates a password reset token. The response never reveals whether the account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} map[string]interface{}
// @Router /auth/forgot-password [post]
func (s *Server) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !s.bindJSON(c, &req) {
		return
	}

	response := gin.H{"message": "If the account exists, a password reset link has been sent"}

	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find user")
		}
		c.JSON(http.StatusOK, response)
		return
	}

	token, err := auth.NewOpaqueToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		TokenHash: auth.HashToken(token),
		ExpiresAt: s.now().Add(passwordResetTTL),
	}
	if err := s.db.Create(&reset).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store reset token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// No mail delivery: the token is only logged
	s.logger.Info().
		Str("user_id", user.ID).
		Str("reset_token", token).
		Time("expires_at", reset.ExpiresAt).
		Msg("Password reset requested")

	c.JSON(http.StatusOK, response)
}

// @Summary Reset password
// @Description Sets a new password with a reset token and revokes every session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /auth/reset-password [post]
func (s *Server) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !s.bindJSON(c, &req) {
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	now := s.now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		err := tx.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", auth.HashToken(req.Token), now).
			First(&reset).Error
		if err != nil {
			return err
		}

		if err := tx.Model(&reset).Update("used_at", now).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", reset.UserID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", reset.UserID).Updates(map[string]any{
			"password_hash": passwordHash,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /auth/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(user))
}

// @Summary Update profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req UpdateProfileRequest
	if !s.bindJSON(c, &req) {
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			var count int64
			if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
				s.logger.Error().Err(err).Msg("Failed to count users")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			if count > 0 {
				c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
				return
			}
			user.Email = email
		}
	}

	if err := s.db.Save(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, userDetail(user))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
