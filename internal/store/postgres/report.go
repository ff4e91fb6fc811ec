package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/newsroom/internal/domain"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Upsert stores the report, replacing any earlier report for the article.
func (r *ReportRepo) Upsert(ctx context.Context, rep *domain.AnalysisReport) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO analysis_reports (article_id, article_url, headline, report, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (article_id) DO UPDATE
		 SET article_url = EXCLUDED.article_url,
		     headline = EXCLUDED.headline,
		     report = EXCLUDED.report,
		     updated_at = EXCLUDED.updated_at`,
		rep.ArticleID, rep.ArticleURL, rep.Headline, []byte(rep.Report), rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("reportRepo.Upsert: %w", err)
	}

	return nil
}

func (r *ReportRepo) GetByArticleID(ctx context.Context, articleID string) (*domain.AnalysisReport, error) {
	var rep domain.AnalysisReport
	var raw []byte

	err := r.pool.QueryRow(ctx,
		`SELECT article_id, article_url, headline, report, created_at, updated_at
		 FROM analysis_reports WHERE article_id = $1`,
		articleID,
	).Scan(&rep.ArticleID, &rep.ArticleURL, &rep.Headline, &raw, &rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reportRepo.GetByArticleID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reportRepo.GetByArticleID: %w", err)
	}

	rep.Report = raw

	return &rep, nil
}
