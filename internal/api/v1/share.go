package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/share"
	"github.com/gosuda/newsroom/internal/server/middleware"
)

type ShareArticleInput struct {
	Body struct {
		Platform        string       `json:"platform" minLength:"1" maxLength:"50" doc:"Target platform (slack, x, linkedin, email)"`
		ArticleID       string       `json:"article_id,omitempty" maxLength:"64" doc:"ID of an article in the feed"`
		Article         *ArticleBody `json:"article,omitempty" doc:"Inline article when it is not in the feed"`
		Note            string       `json:"note,omitempty" maxLength:"1000" doc:"Personal note"`
		IncludeAnalysis bool         `json:"include_analysis,omitempty" doc:"Attach the stored analysis summary if one exists"`
	}
}

type ShareArticleOutput struct {
	Body share.Receipt
}

type ListPlatformsOutput struct {
	Body struct {
		Platforms []string `json:"platforms"`
	}
}

// RegisterShareRoutes registers share-out operations.
func RegisterShareRoutes(api huma.API, sharer ShareService, articles ArticleFeed, runner AnalysisRunner, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-share-platforms",
		Method:      http.MethodGet,
		Path:        "/share/platforms",
		Summary:     "List platforms articles can be shared to",
		Tags:        []string{"Share"},
	}, func(_ context.Context, _ *struct{}) (*ListPlatformsOutput, error) {
		out := &ListPlatformsOutput{}
		out.Body.Platforms = sharer.Available()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "share-article",
		Method:      http.MethodPost,
		Path:        "/articles/share",
		Summary:     "Share an article to an external platform",
		Tags:        []string{"Share"},
	}, func(ctx context.Context, input *ShareArticleInput) (*ShareArticleOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		a, err := resolveArticle(ctx, articles, input.Body.ArticleID, input.Body.Article)
		if err != nil {
			return nil, err
		}

		item := share.Item{Article: a, Note: input.Body.Note}
		if user, userErr := authSvc.GetUser(ctx, userID); userErr == nil {
			item.SharedBy = user.Name
		}
		if input.Body.IncludeAnalysis {
			item.Analysis = analysisLine(ctx, runner, a.URL)
		}

		receipt, err := sharer.Share(ctx, input.Body.Platform, item)
		if err != nil {
			switch {
			case errors.Is(err, share.ErrNoPlatforms):
				return nil, huma.Error501NotImplemented("sharing is not configured")
			case errors.Is(err, share.ErrPlatformNotFound):
				return nil, huma.Error404NotFound("unknown platform: " + input.Body.Platform)
			}
			return nil, huma.Error502BadGateway("failed to share article", err)
		}

		return &ShareArticleOutput{Body: receipt}, nil
	})
}

// analysisLine returns a one-line summary from the stored report for url, or
// "" when there is none.
func analysisLine(ctx context.Context, runner AnalysisRunner, url string) string {
	rep, err := runner.CachedReport(ctx, url)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("url", url).Msg("v1.analysisLine: report lookup failed")
		}
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rep.Report, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"summary", "headline", "bottom_line"} {
		var s string
		if json.Unmarshal(fields[key], &s) == nil && s != "" {
			return s
		}
	}
	return ""
}
