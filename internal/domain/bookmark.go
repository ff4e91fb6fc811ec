package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Bookmark is an article saved by a user. The article fields are a copy taken
// at save time so the bookmark survives the article dropping out of the feed.
type Bookmark struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ArticleID   string    `json:"article_id"`
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookmarkRepository interface {
	// Create fails with ErrConflict when the user already saved the URL.
	Create(ctx context.Context, b *Bookmark) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Bookmark, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	GetByURL(ctx context.Context, userID uuid.UUID, url string) (*Bookmark, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// AnalysisReport is a finished deep-analysis report, cached per article URL
// so repeat requests skip the analysis service.
type AnalysisReport struct {
	ArticleID  string          `json:"article_id"`
	ArticleURL string          `json:"article_url"`
	Headline   string          `json:"headline"`
	Report     json.RawMessage `json:"report"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type AnalysisReportRepository interface {
	Upsert(ctx context.Context, r *AnalysisReport) error
	GetByArticleID(ctx context.Context, articleID string) (*AnalysisReport, error)
}
