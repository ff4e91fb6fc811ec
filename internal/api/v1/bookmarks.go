package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/server/middleware"
)

// ArticleBody is an article supplied inline by the client, for stories that
// are not (or no longer) in the aggregated feed.
type ArticleBody struct {
	Headline    string    `json:"headline" minLength:"1" maxLength:"500" doc:"Headline"`
	Summary     string    `json:"summary,omitempty" maxLength:"5000" doc:"Summary"`
	Content     string    `json:"content,omitempty" doc:"Full text"`
	Source      string    `json:"source,omitempty" maxLength:"255" doc:"Publisher name"`
	Category    string    `json:"category,omitempty" maxLength:"100" doc:"Category"`
	URL         string    `json:"url" format:"uri" maxLength:"2048" doc:"Canonical article URL"`
	ImageURL    string    `json:"image_url,omitempty" maxLength:"2048" doc:"Image URL"`
	PublishedAt time.Time `json:"published_at,omitempty" doc:"Publication time"`
}

func (b *ArticleBody) article() domain.Article {
	return domain.Article{
		ID:          domain.ArticleID(b.URL),
		Headline:    b.Headline,
		Summary:     b.Summary,
		Content:     b.Content,
		Source:      b.Source,
		Category:    b.Category,
		URL:         b.URL,
		ImageURL:    b.ImageURL,
		PublishedAt: b.PublishedAt,
	}
}

type ListBookmarksInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListBookmarksOutput struct {
	Body struct {
		Bookmarks []*domain.Bookmark `json:"bookmarks"`
		Total     int64              `json:"total"`
	}
}

type CreateBookmarkInput struct {
	Body struct {
		ArticleID string       `json:"article_id,omitempty" maxLength:"64" doc:"ID of an article in the feed"`
		Article   *ArticleBody `json:"article,omitempty" doc:"Inline article when it is not in the feed"`
	}
}

type CreateBookmarkOutput struct {
	Body *domain.Bookmark
}

type DeleteBookmarkInput struct {
	ID uuid.UUID `path:"id" doc:"Bookmark ID"`
}

type CheckBookmarkInput struct {
	URL string `query:"url" required:"true" minLength:"1" maxLength:"2048" doc:"Article URL"`
}

type CheckBookmarkOutput struct {
	Body struct {
		Bookmarked bool             `json:"bookmarked"`
		Bookmark   *domain.Bookmark `json:"bookmark,omitempty"`
	}
}

// RegisterBookmarkRoutes registers the signed-in user's bookmark operations.
func RegisterBookmarkRoutes(api huma.API, store DataStore, articles ArticleFeed) {
	huma.Register(api, huma.Operation{
		OperationID: "list-bookmarks",
		Method:      http.MethodGet,
		Path:        "/bookmarks",
		Summary:     "List bookmarked articles",
		Tags:        []string{"Bookmarks"},
	}, func(ctx context.Context, input *ListBookmarksInput) (*ListBookmarksOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		bookmarks, err := store.Bookmarks().List(ctx, userID, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list bookmarks", err)
		}

		total, err := store.Bookmarks().Count(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count bookmarks", err)
		}

		out := &ListBookmarksOutput{}
		out.Body.Bookmarks = bookmarks
		out.Body.Total = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-bookmark",
		Method:      http.MethodPost,
		Path:        "/bookmarks",
		Summary:     "Bookmark an article",
		Tags:        []string{"Bookmarks"},
	}, func(ctx context.Context, input *CreateBookmarkInput) (*CreateBookmarkOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		a, err := resolveArticle(ctx, articles, input.Body.ArticleID, input.Body.Article)
		if err != nil {
			return nil, err
		}

		b := &domain.Bookmark{
			ID:          uuid.New(),
			UserID:      userID,
			ArticleID:   a.ID,
			Headline:    a.Headline,
			Summary:     a.Summary,
			Source:      a.Source,
			URL:         a.URL,
			ImageURL:    a.ImageURL,
			PublishedAt: a.PublishedAt,
			CreatedAt:   time.Now(),
		}

		if err := store.Bookmarks().Create(ctx, b); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("article already bookmarked")
			}
			return nil, huma.Error500InternalServerError("failed to create bookmark", err)
		}

		return &CreateBookmarkOutput{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-bookmark",
		Method:      http.MethodDelete,
		Path:        "/bookmarks/{id}",
		Summary:     "Remove a bookmark",
		Tags:        []string{"Bookmarks"},
	}, func(ctx context.Context, input *DeleteBookmarkInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		if err := store.Bookmarks().Delete(ctx, userID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("bookmark not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete bookmark", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-bookmark",
		Method:      http.MethodGet,
		Path:        "/bookmarks/check",
		Summary:     "Check whether an article URL is bookmarked",
		Tags:        []string{"Bookmarks"},
	}, func(ctx context.Context, input *CheckBookmarkInput) (*CheckBookmarkOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		out := &CheckBookmarkOutput{}
		b, err := store.Bookmarks().GetByURL(ctx, userID, input.URL)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return out, nil
			}
			return nil, huma.Error500InternalServerError("failed to check bookmark", err)
		}

		out.Body.Bookmarked = true
		out.Body.Bookmark = b
		return out, nil
	})
}

// resolveArticle picks the feed article named by id, or the inline article
// when no id is given.
func resolveArticle(ctx context.Context, articles ArticleFeed, id string, inline *ArticleBody) (domain.Article, error) {
	switch {
	case id != "":
		a, err := articles.Article(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Article{}, huma.Error404NotFound("article not found")
			}
			return domain.Article{}, feedError(err)
		}
		return a, nil
	case inline != nil:
		return inline.article(), nil
	default:
		return domain.Article{}, huma.Error400BadRequest("article_id or article is required")
	}
}
