package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/newsroom/internal/auth"
	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/relay"
	"github.com/gosuda/newsroom/internal/server/middleware"
	"github.com/gosuda/newsroom/internal/share"
)

// ---------------------------------------------------------------------------
// Context helpers: inject user/role into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return middleware.WithUser(context.Background(), userID, middleware.RoleReader)
}

func adminCtx(userID uuid.UUID) context.Context {
	return middleware.WithUser(context.Background(), userID, middleware.RoleAdmin)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	bookmarks domain.BookmarkRepository
}

func (m *mockDataStore) Bookmarks() domain.BookmarkRepository { return m.bookmarks }

// ---------------------------------------------------------------------------
// Mock BookmarkRepository
// ---------------------------------------------------------------------------

type mockBookmarkRepo struct {
	createFunc   func(ctx context.Context, b *domain.Bookmark) error
	listFunc     func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Bookmark, error)
	countFunc    func(ctx context.Context, userID uuid.UUID) (int64, error)
	getByURLFunc func(ctx context.Context, userID uuid.UUID, url string) (*domain.Bookmark, error)
	deleteFunc   func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockBookmarkRepo) Create(ctx context.Context, b *domain.Bookmark) error {
	return m.createFunc(ctx, b)
}

func (m *mockBookmarkRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Bookmark, error) {
	return m.listFunc(ctx, userID, limit, offset)
}

func (m *mockBookmarkRepo) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.countFunc(ctx, userID)
}

func (m *mockBookmarkRepo) GetByURL(ctx context.Context, userID uuid.UUID, url string) (*domain.Bookmark, error) {
	return m.getByURLFunc(ctx, userID, url)
}

func (m *mockBookmarkRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.deleteFunc(ctx, userID, id)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	registerFunc       func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFunc          func(ctx context.Context, email, password string) (auth.Tokens, error)
	refreshTokenFunc   func(ctx context.Context, refreshToken string) (string, error)
	changePasswordFunc func(ctx context.Context, userID uuid.UUID, current, next string) error
	getUserFunc        func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return m.registerFunc(ctx, email, password, name)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (auth.Tokens, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	return m.changePasswordFunc(ctx, userID, current, next)
}

func (m *mockAuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getUserFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Mock ArticleFeed
// ---------------------------------------------------------------------------

type mockFeed struct {
	sources      []string
	articlesFunc func(ctx context.Context) ([]domain.Article, error)
	articleFunc  func(ctx context.Context, id string) (domain.Article, error)
	refreshFunc  func(ctx context.Context) ([]domain.Article, error)
}

func (m *mockFeed) Sources() []string { return m.sources }

func (m *mockFeed) Articles(ctx context.Context) ([]domain.Article, error) {
	return m.articlesFunc(ctx)
}

func (m *mockFeed) Article(ctx context.Context, id string) (domain.Article, error) {
	return m.articleFunc(ctx, id)
}

func (m *mockFeed) Refresh(ctx context.Context) ([]domain.Article, error) {
	return m.refreshFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock AnalysisRunner
// ---------------------------------------------------------------------------

type mockRunner struct {
	startFunc        func(ctx context.Context, userID uuid.UUID, article domain.Article) (relay.Summary, error)
	getFunc          func(userID, runID uuid.UUID) (relay.Summary, error)
	snapshotFunc     func(userID, runID uuid.UUID) (relay.Update, error)
	listFunc         func(userID uuid.UUID) []relay.Summary
	cancelFunc       func(userID, runID uuid.UUID) error
	cachedReportFunc func(ctx context.Context, articleURL string) (*domain.AnalysisReport, error)
}

func (m *mockRunner) Start(ctx context.Context, userID uuid.UUID, article domain.Article) (relay.Summary, error) {
	return m.startFunc(ctx, userID, article)
}

func (m *mockRunner) Get(userID, runID uuid.UUID) (relay.Summary, error) {
	return m.getFunc(userID, runID)
}

func (m *mockRunner) Snapshot(userID, runID uuid.UUID) (relay.Update, error) {
	return m.snapshotFunc(userID, runID)
}

func (m *mockRunner) List(userID uuid.UUID) []relay.Summary {
	return m.listFunc(userID)
}

func (m *mockRunner) Cancel(userID, runID uuid.UUID) error {
	return m.cancelFunc(userID, runID)
}

func (m *mockRunner) CachedReport(ctx context.Context, articleURL string) (*domain.AnalysisReport, error) {
	return m.cachedReportFunc(ctx, articleURL)
}

// ---------------------------------------------------------------------------
// Mock ShareService
// ---------------------------------------------------------------------------

type mockShareService struct {
	platforms []string
	shareFunc func(ctx context.Context, platform string, item share.Item) (share.Receipt, error)
}

func (m *mockShareService) Available() []string { return m.platforms }

func (m *mockShareService) Share(ctx context.Context, platform string, item share.Item) (share.Receipt, error) {
	return m.shareFunc(ctx, platform, item)
}
