package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/feed"
)

type ListArticlesInput struct {
	Source   string `query:"source" doc:"Filter by source name"`
	Category string `query:"category" doc:"Filter by category"`
	Search   string `query:"q" maxLength:"200" doc:"Case-insensitive text search"`
	Sort     string `query:"sort" enum:"newest,oldest,source,headline" default:"newest" doc:"Sort order"`
	Limit    int    `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset   int    `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListArticlesOutput struct {
	Body struct {
		Articles []domain.Article `json:"articles"`
		Total    int              `json:"total"`
	}
}

type GetArticleInput struct {
	ID string `path:"id" minLength:"1" maxLength:"64" doc:"Article ID"`
}

type GetArticleOutput struct {
	Body domain.Article
}

type ListSourcesOutput struct {
	Body struct {
		Sources []string `json:"sources"`
	}
}

type RefreshArticlesOutput struct {
	Body struct {
		Count int `json:"count"`
	}
}

// RegisterArticleRoutes registers the public feed operations.
func RegisterArticleRoutes(api huma.API, articles ArticleFeed) {
	huma.Register(api, huma.Operation{
		OperationID: "list-articles",
		Method:      http.MethodGet,
		Path:        "/articles",
		Summary:     "List articles from all sources",
		Tags:        []string{"Articles"},
	}, func(ctx context.Context, input *ListArticlesInput) (*ListArticlesOutput, error) {
		all, err := articles.Articles(ctx)
		if err != nil {
			return nil, feedError(err)
		}

		page, total := feed.Apply(all, feed.Query{
			Source:   input.Source,
			Category: input.Category,
			Search:   input.Search,
			Sort:     input.Sort,
			Limit:    input.Limit,
			Offset:   input.Offset,
		})

		out := &ListArticlesOutput{}
		out.Body.Articles = page
		out.Body.Total = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-article",
		Method:      http.MethodGet,
		Path:        "/articles/{id}",
		Summary:     "Get an article by ID",
		Tags:        []string{"Articles"},
	}, func(ctx context.Context, input *GetArticleInput) (*GetArticleOutput, error) {
		a, err := articles.Article(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("article not found")
			}
			return nil, feedError(err)
		}

		return &GetArticleOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sources",
		Method:      http.MethodGet,
		Path:        "/sources",
		Summary:     "List configured news sources",
		Tags:        []string{"Articles"},
	}, func(_ context.Context, _ *struct{}) (*ListSourcesOutput, error) {
		out := &ListSourcesOutput{}
		out.Body.Sources = articles.Sources()
		return out, nil
	})
}

// RegisterFeedAdminRoutes registers feed maintenance operations. Mount them
// behind middleware.RequireAdmin.
func RegisterFeedAdminRoutes(api huma.API, articles ArticleFeed) {
	huma.Register(api, huma.Operation{
		OperationID: "refresh-articles",
		Method:      http.MethodPost,
		Path:        "/articles/refresh",
		Summary:     "Refetch all sources, bypassing the cache",
		Tags:        []string{"Articles"},
	}, func(ctx context.Context, _ *struct{}) (*RefreshArticlesOutput, error) {
		all, err := articles.Refresh(ctx)
		if err != nil {
			return nil, feedError(err)
		}

		out := &RefreshArticlesOutput{}
		out.Body.Count = len(all)
		return out, nil
	})
}

func feedError(err error) error {
	if errors.Is(err, feed.ErrAllSourcesFailed) {
		return huma.Error502BadGateway("no news source is reachable", err)
	}
	return huma.Error500InternalServerError("failed to load articles", err)
}
