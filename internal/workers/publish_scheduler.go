package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/creatorhub-dev/creatorhub/internal/models"
)

// cronParser accepts the standard 5-field format:
// minute hour day-of-month month day-of-week
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Publisher moves scheduled content whose date has passed to published
type Publisher struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewPublisher creates a publisher working on db
func NewPublisher(db *gorm.DB, logger zerolog.Logger) *Publisher {
	return &Publisher{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// PublishResult counts what one run did
type PublishResult struct {
	Published int64
	Failed    int64
}

// PublishDue publishes every scheduled content item that is due. Items
// without target platforms cannot be published and are marked failed.
func (p *Publisher) PublishDue() (PublishResult, error) {
	now := p.now()
	var result PublishResult

	err := p.db.Transaction(func(tx *gorm.DB) error {
		due := func() *gorm.DB {
			return tx.Model(&models.Content{}).
				Where("status = ? AND scheduled_date IS NOT NULL AND scheduled_date <= ?", models.StatusScheduled, now)
		}

		failed := due().
			Where("(platforms IS NULL OR platforms = ? OR platforms = ?)", "null", "[]").
			Update("status", models.StatusFailed)
		if failed.Error != nil {
			return failed.Error
		}
		result.Failed = failed.RowsAffected

		published := due().Updates(map[string]any{
			"status":         models.StatusPublished,
			"published_date": now,
		})
		if published.Error != nil {
			return published.Error
		}
		result.Published = published.RowsAffected

		return nil
	})
	if err != nil {
		return PublishResult{}, fmt.Errorf("failed to publish scheduled content: %w", err)
	}

	return result, nil
}

// run is a single scheduled invocation
func (p *Publisher) run() {
	result, err := p.PublishDue()
	if err != nil {
		p.logger.Error().Err(err).Msg("Scheduled publishing failed")
		return
	}

	if result.Published > 0 || result.Failed > 0 {
		p.logger.Info().
			Int64("published", result.Published).
			Int64("failed", result.Failed).
			Msg("Published scheduled content")
		return
	}

	p.logger.Debug().Msg("No scheduled content due")
}

// StartPublishScheduler runs the publisher on the cron schedule until ctx is
// cancelled. An empty schedule disables it.
func StartPublishScheduler(ctx context.Context, publisher *Publisher, schedule string, logger zerolog.Logger) error {
	if schedule == "" {
		logger.Info().Msg("No publish schedule configured")
		return nil
	}

	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(schedule, publisher.run); err != nil {
		return fmt.Errorf("invalid publish schedule %q: %w", schedule, err)
	}

	// Run immediately on startup, then on schedule
	publisher.run()

	c.Start()
	if next := calculateNextRun(schedule, time.Now()); next != nil {
		logger.Info().
			Str("schedule", schedule).
			Time("next_run_at", *next).
			Msg("Publish scheduler started")
	}

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Msg("Publish scheduler stopped")
	return nil
}

// calculateNextRun calculates the next run time from a cron schedule
func calculateNextRun(cronExpr string, from time.Time) *time.Time {
	if cronExpr == "" {
		return nil
	}

	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil
	}

	next := schedule.Next(from)
	return &next
}
