package client

import "time"

// User represents the signed-in user's profile
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by the refresh endpoint
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// ProfileUpdate carries the profile fields to change; nil fields are left as is
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// PlatformType identifies a social platform
type PlatformType string

const (
	PlatformYouTube   PlatformType = "youtube"
	PlatformInstagram PlatformType = "instagram"
	PlatformTikTok    PlatformType = "tiktok"
	PlatformTwitch    PlatformType = "twitch"
	PlatformOnlyFans  PlatformType = "onlyfans"
)

// Platforms lists every supported platform
var Platforms = []PlatformType{PlatformYouTube, PlatformInstagram, PlatformTikTok, PlatformTwitch, PlatformOnlyFans}

// Platform is a creator's account on a social platform
type Platform struct {
	Type        PlatformType `json:"type" yaml:"type"`
	Username    string       `json:"username" yaml:"username"`
	Followers   int64        `json:"followers" yaml:"followers"`
	IsConnected bool         `json:"isConnected" yaml:"isConnected"`
	LastSync    *time.Time   `json:"lastSync,omitempty" yaml:"lastSync,omitempty"`
}

// Creator is a managed creator account
type Creator struct {
	ID             string     `json:"id" yaml:"id"`
	UserID         string     `json:"userId" yaml:"userId"`
	Name           string     `json:"name" yaml:"name"`
	Email          string     `json:"email" yaml:"email"`
	Bio            string     `json:"bio,omitempty" yaml:"bio,omitempty"`
	ProfileImage   string     `json:"profileImage,omitempty" yaml:"profileImage,omitempty"`
	Platforms      []Platform `json:"platforms" yaml:"platforms"`
	Followers      int64      `json:"followers" yaml:"followers"`
	Subscribers    int64      `json:"subscribers" yaml:"subscribers"`
	MonthlyRevenue float64    `json:"monthlyRevenue" yaml:"monthlyRevenue"`
	Tags           []string   `json:"tags" yaml:"tags"`
	CreatedAt      time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// CreatorInput is the payload for creating a creator
type CreatorInput struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Bio          string   `json:"bio,omitempty"`
	ProfileImage string   `json:"profileImage,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// CreatorUpdate carries the creator fields to change; nil fields are left as is
type CreatorUpdate struct {
	Name         *string   `json:"name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	ProfileImage *string   `json:"profileImage,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}

// ContentType is the kind of media a content item carries
type ContentType string

const (
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentText  ContentType = "text"
)

// ContentStatus is the publishing state of a content item
type ContentStatus string

const (
	StatusDraft     ContentStatus = "draft"
	StatusScheduled ContentStatus = "scheduled"
	StatusPublished ContentStatus = "published"
	StatusFailed    ContentStatus = "failed"
)

// ContentAnalytics holds engagement counters for a content item
type ContentAnalytics struct {
	Views    int64   `json:"views" yaml:"views"`
	Likes    int64   `json:"likes" yaml:"likes"`
	Comments int64   `json:"comments" yaml:"comments"`
	Shares   int64   `json:"shares" yaml:"shares"`
	Revenue  float64 `json:"revenue" yaml:"revenue"`
}

// Content is a post owned by a creator
type Content struct {
	ID            string            `json:"id" yaml:"id"`
	CreatorID     string            `json:"creatorId" yaml:"creatorId"`
	Title         string            `json:"title" yaml:"title"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Type          ContentType       `json:"type" yaml:"type"`
	MediaURL      string            `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty"`
	ThumbnailURL  string            `json:"thumbnailUrl,omitempty" yaml:"thumbnailUrl,omitempty"`
	Platforms     []string          `json:"platforms" yaml:"platforms"`
	ScheduledDate *time.Time        `json:"scheduledDate,omitempty" yaml:"scheduledDate,omitempty"`
	PublishedDate *time.Time        `json:"publishedDate,omitempty" yaml:"publishedDate,omitempty"`
	Status        ContentStatus     `json:"status" yaml:"status"`
	Analytics     *ContentAnalytics `json:"analytics,omitempty" yaml:"analytics,omitempty"`
	Tags          []string          `json:"tags" yaml:"tags"`
	CreatedAt     time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt" yaml:"updatedAt"`
}

// ContentUpdate carries the content fields to change; nil fields are left as is
type ContentUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Platforms   *[]string `json:"platforms,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Upload describes a new content item and its media
type Upload struct {
	Title       string
	Description string
	Type        ContentType
	Platforms   []string
	Tags        []string

	FileName string
	MIMEType string // detected from Media when empty
	Media    []byte
}

// Period is an analytics aggregation window
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// PlatformBreakdown is a per-platform slice of creator analytics
type PlatformBreakdown struct {
	Platform   string  `json:"platform" yaml:"platform"`
	Followers  int64   `json:"followers" yaml:"followers"`
	Revenue    float64 `json:"revenue" yaml:"revenue"`
	Engagement float64 `json:"engagement" yaml:"engagement"`
}

// Analytics summarizes a creator over a period
type Analytics struct {
	CreatorID         string              `json:"creatorId" yaml:"creatorId"`
	Period            Period              `json:"period" yaml:"period"`
	Date              time.Time           `json:"date" yaml:"date"`
	Followers         int64               `json:"followers" yaml:"followers"`
	NewFollowers      int64               `json:"newFollowers" yaml:"newFollowers"`
	Unfollowers       int64               `json:"unfollowers" yaml:"unfollowers"`
	Revenue           float64             `json:"revenue" yaml:"revenue"`
	Views             int64               `json:"views" yaml:"views"`
	Engagement        float64             `json:"engagement" yaml:"engagement"`
	TopContent        []Content           `json:"topContent" yaml:"topContent"`
	PlatformBreakdown []PlatformBreakdown `json:"platformBreakdown" yaml:"platformBreakdown"`
}

// Subscription is a subscriber's plan with a creator. Tier is free, basic or
// premium; Status is active, paused or cancelled; BillingCycle is monthly or
// yearly.
type Subscription struct {
	ID           string     `json:"id" yaml:"id"`
	CreatorID    string     `json:"creatorId" yaml:"creatorId"`
	SubscriberID string     `json:"subscriberId" yaml:"subscriberId"`
	Tier         string     `json:"tier" yaml:"tier"`
	Price        float64    `json:"price" yaml:"price"`
	Status       string     `json:"status" yaml:"status"`
	StartDate    time.Time  `json:"startDate" yaml:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	BillingCycle string     `json:"billingCycle" yaml:"billingCycle"`
}

// ExportFormat is the file format of a subscriber export
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)
