package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/newsroom/internal/auth"
	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/relay"
	"github.com/gosuda/newsroom/internal/share"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Bookmarks() domain.BookmarkRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (auth.Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// ArticleFeed abstracts the aggregated article feed.
// *feed.Aggregator satisfies this interface.
type ArticleFeed interface {
	Sources() []string
	Articles(ctx context.Context) ([]domain.Article, error)
	Article(ctx context.Context, id string) (domain.Article, error)
	Refresh(ctx context.Context) ([]domain.Article, error)
}

// AnalysisRunner abstracts server-hosted analysis runs.
// *relay.Manager satisfies this interface.
type AnalysisRunner interface {
	Start(ctx context.Context, userID uuid.UUID, article domain.Article) (relay.Summary, error)
	Get(userID, runID uuid.UUID) (relay.Summary, error)
	Snapshot(userID, runID uuid.UUID) (relay.Update, error)
	List(userID uuid.UUID) []relay.Summary
	Cancel(userID, runID uuid.UUID) error
	CachedReport(ctx context.Context, articleURL string) (*domain.AnalysisReport, error)
}

// ShareService abstracts share-out to external platforms.
// *share.Registry satisfies this interface.
type ShareService interface {
	Available() []string
	Share(ctx context.Context, platform string, item share.Item) (share.Receipt, error)
}
