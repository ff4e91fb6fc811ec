package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/newsroom/internal/domain"
)

type BookmarkRepo struct {
	pool *pgxpool.Pool
}

func NewBookmarkRepo(pool *pgxpool.Pool) *BookmarkRepo {
	return &BookmarkRepo{pool: pool}
}

const bookmarkColumns = `id, user_id, article_id, headline, summary, source, url, image_url, published_at, created_at`

func (r *BookmarkRepo) Create(ctx context.Context, b *domain.Bookmark) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bookmarks (`+bookmarkColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.UserID, b.ArticleID, b.Headline, b.Summary, b.Source, b.URL,
		nilIfEmpty(b.ImageURL), b.PublishedAt, b.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("bookmarkRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("bookmarkRepo.Create: %w", err)
	}

	return nil
}

func (r *BookmarkRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Bookmark, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookmarkColumns+`
		 FROM bookmarks WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("bookmarkRepo.List: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]*domain.Bookmark, 0, limit)
	for rows.Next() {
		b, scanErr := scanBookmark(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("bookmarkRepo.List: scan: %w", scanErr)
		}
		bookmarks = append(bookmarks, b)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("bookmarkRepo.List: rows: %w", err)
	}

	return bookmarks, nil
}

func (r *BookmarkRepo) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookmarks WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("bookmarkRepo.Count: %w", err)
	}
	return n, nil
}

func (r *BookmarkRepo) GetByURL(ctx context.Context, userID uuid.UUID, url string) (*domain.Bookmark, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE user_id = $1 AND url = $2`,
		userID, url,
	)
	b, err := scanBookmark(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bookmarkRepo.GetByURL: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("bookmarkRepo.GetByURL: %w", err)
	}

	return b, nil
}

func (r *BookmarkRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return fmt.Errorf("bookmarkRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookmarkRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanBookmark(row pgx.Row) (*domain.Bookmark, error) {
	var b domain.Bookmark
	var imageURL *string

	err := row.Scan(&b.ID, &b.UserID, &b.ArticleID, &b.Headline, &b.Summary, &b.Source,
		&b.URL, &imageURL, &b.PublishedAt, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.ImageURL = derefStr(imageURL)

	return &b, nil
}
