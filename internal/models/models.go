package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents an account that manages creators
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Name         string `json:"name"`
	// Bumped on logout and password reset to revoke outstanding access tokens
	TokenVersion int `json:"-" gorm:"not null;default:0"`
}

// RefreshToken is an opaque, single-use token exchanged for a new token pair.
// Only the SHA-256 digest of the token is stored.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index"`
	TokenHash string    `gorm:"not null;unique"`
	ExpiresAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// PasswordReset is a one-time password reset token
type PasswordReset struct {
	BaseModel
	UserID    string    `gorm:"not null;index"`
	TokenHash string    `gorm:"not null;unique"`
	ExpiresAt time.Time `gorm:"not null"`
	UsedAt    *time.Time

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Creator is a creator account managed by a user
type Creator struct {
	BaseModel
	UserID       string   `gorm:"not null;index"`
	Name         string   `gorm:"not null"`
	Email        string   `gorm:"not null"`
	Bio          string   `gorm:"type:text"`
	ProfileImage string
	Tags         []string `gorm:"serializer:json"`

	Platforms     []Platform     `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Contents      []Content      `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Subscriptions []Subscription `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
}

// Platform is a creator's account on a social platform
type Platform struct {
	BaseModel
	CreatorID   string `gorm:"not null;uniqueIndex:idx_platform_creator_type"`
	Type        string `gorm:"not null;uniqueIndex:idx_platform_creator_type"`
	Username    string
	Followers   int64 `gorm:"not null;default:0"`
	IsConnected bool  `gorm:"not null;default:false"`
	LastSync    *time.Time
	AccessToken string `gorm:"type:text"`
}

// Content statuses
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Content is a post owned by a creator
type Content struct {
	BaseModel
	CreatorID     string `gorm:"not null;index"`
	Title         string `gorm:"not null"`
	Description   string `gorm:"type:text"`
	Type          string `gorm:"not null"`
	MediaPath     string // relative to the media directory
	MediaType     string
	ThumbnailURL  string
	Platforms     []string   `gorm:"serializer:json"`
	Tags          []string   `gorm:"serializer:json"`
	ScheduledDate *time.Time `gorm:"index"`
	PublishedDate *time.Time
	Status        string `gorm:"not null;default:draft;index"`

	Views    int64   `gorm:"not null;default:0"`
	Likes    int64   `gorm:"not null;default:0"`
	Comments int64   `gorm:"not null;default:0"`
	Shares   int64   `gorm:"not null;default:0"`
	Revenue  float64 `gorm:"not null;default:0"`
}

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionCancelled = "cancelled"
)

// Subscription is a subscriber's plan with a creator
type Subscription struct {
	BaseModel
	CreatorID    string    `gorm:"not null;index"`
	SubscriberID string    `gorm:"not null"`
	Tier         string    `gorm:"not null;default:free"`
	Price        float64   `gorm:"not null;default:0"`
	Status       string    `gorm:"not null;default:active"`
	StartDate    time.Time `gorm:"not null"`
	EndDate      *time.Time
	BillingCycle string `gorm:"not null;default:monthly"`
}

// MonthlyPrice normalizes the price to one month
func (s Subscription) MonthlyPrice() float64 {
	if s.BillingCycle == "yearly" {
		return s.Price / 12
	}
	return s.Price
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []any{
		&User{}, &RefreshToken{}, &PasswordReset{},
		&Creator{}, &Platform{}, &Content{}, &Subscription{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
