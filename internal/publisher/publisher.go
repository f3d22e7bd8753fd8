package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/models"
	"blogpilot/internal/store"
)

// Uploader abstracts the platform API so the pipeline can be tested
// without a network.
type Uploader interface {
	Publish(ctx context.Context, post *models.Post) (string, error)
}

// Publisher pushes approved posts for one blog while respecting the
// pacing limits.
type Publisher struct {
	Blog     config.Blog
	Limits   Limits
	Uploader Uploader
	Logger   *log.Logger

	now func() time.Time
}

// New builds a publisher with a real platform client.
func New(blog config.Blog, cfg config.Publish, logger *log.Logger) *Publisher {
	return &Publisher{
		Blog:     blog,
		Limits:   LimitsFromConfig(cfg),
		Uploader: NewPlatformClient(blog),
		Logger:   logger,
		now:      time.Now,
	}
}

// Result describes the outcome of one publish attempt.
type Result struct {
	Post      *models.Post
	RemoteURL string
	Deferred  bool
	NextSlot  time.Time
}

// PublishNext publishes the oldest approved post if the pacing limits
// allow it. When they do not, it returns a deferred result carrying the
// next allowed slot. A nil result with nil error means there is nothing
// approved to publish.
func (p *Publisher) PublishNext(ctx context.Context, db *sql.DB) (*Result, error) {
	post, err := store.OldestByStatus(ctx, db, p.Blog.ID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to pick approved post: %w", err)
	}
	if post == nil {
		return nil, nil
	}

	now := p.now().UTC()
	history, err := store.PublishTimes(ctx, db, p.Blog.ID, now.AddDate(0, 0, -8))
	if err != nil {
		return nil, fmt.Errorf("failed to load publish history: %w", err)
	}
	if ok, reason := p.Limits.CanPublish(history, now); !ok {
		next := p.Limits.NextPublishTime(history, now)
		if p.Logger != nil {
			p.Logger.Printf("blog %s: %s, next slot %s", p.Blog.ID, reason, next.Format(time.RFC3339))
		}
		return &Result{Post: post, Deferred: true, NextSlot: next}, nil
	}

	return p.publish(ctx, db, post, now)
}

// PublishPost publishes one specific post, bypassing the pacing check.
// Used by the force path of the CLI.
func (p *Publisher) PublishPost(ctx context.Context, db *sql.DB, post *models.Post) (*Result, error) {
	return p.publish(ctx, db, post, p.now().UTC())
}

func (p *Publisher) publish(ctx context.Context, db *sql.DB, post *models.Post, now time.Time) (*Result, error) {
	remoteURL, err := p.Uploader.Publish(ctx, post)
	record := models.PublishRecord{
		BlogID:      p.Blog.ID,
		PostID:      post.ID,
		PublishedAt: now,
		Success:     err == nil,
	}
	if err != nil {
		record.Detail = sql.NullString{String: err.Error(), Valid: true}
		if recErr := store.InsertPublishRecord(ctx, db, record); recErr != nil {
			return nil, fmt.Errorf("failed to record publish failure: %w", recErr)
		}
		if stErr := store.SetPostStatus(ctx, db, post.ID, models.StatusFailed); stErr != nil {
			return nil, fmt.Errorf("failed to mark post failed: %w", stErr)
		}
		return nil, fmt.Errorf("failed to publish post %s: %w", post.ID, err)
	}

	if err := store.InsertPublishRecord(ctx, db, record); err != nil {
		return nil, fmt.Errorf("failed to record publish: %w", err)
	}
	if err := store.MarkPublished(ctx, db, post.ID, remoteURL, now); err != nil {
		return nil, fmt.Errorf("failed to mark post published: %w", err)
	}
	if err := store.TouchLastPublish(ctx, db, p.Blog.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update blog: %w", err)
	}
	if p.Logger != nil {
		p.Logger.Printf("blog %s: published %q at %s", p.Blog.ID, post.Title, remoteURL)
	}
	return &Result{Post: post, RemoteURL: remoteURL}, nil
}
