package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/newsroom/internal/domain"
	"github.com/gosuda/newsroom/internal/relay"
	"github.com/gosuda/newsroom/internal/server/middleware"
)

type StartAnalysisInput struct {
	Body struct {
		ArticleID string       `json:"article_id,omitempty" maxLength:"64" doc:"ID of an article in the feed"`
		Article   *ArticleBody `json:"article,omitempty" doc:"Inline article when it is not in the feed"`
	}
}

type StartAnalysisOutput struct {
	Body relay.Summary
}

type ListAnalysesOutput struct {
	Body []relay.Summary
}

type AnalysisIDInput struct {
	ID uuid.UUID `path:"id" doc:"Analysis run ID"`
}

type GetAnalysisOutput struct {
	Body struct {
		Run      relay.Summary `json:"run"`
		Snapshot relay.Update  `json:"snapshot"`
	}
}

type GetReportInput struct {
	URL string `query:"url" required:"true" minLength:"1" maxLength:"2048" doc:"Article URL"`
}

type GetReportOutput struct {
	Body *domain.AnalysisReport
}

// RegisterAnalysisRoutes registers the deep-analysis operations. Live
// progress is streamed over the /ws/analysis/{id} websocket; these operations
// start, inspect and cancel runs.
func RegisterAnalysisRoutes(api huma.API, runner AnalysisRunner, articles ArticleFeed) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-analysis",
		Method:        http.MethodPost,
		Path:          "/analyses",
		Summary:       "Start a deep analysis of an article",
		Tags:          []string{"Analyses"},
		DefaultStatus: http.StatusAccepted,
	}, func(ctx context.Context, input *StartAnalysisInput) (*StartAnalysisOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		a, err := resolveArticle(ctx, articles, input.Body.ArticleID, input.Body.Article)
		if err != nil {
			return nil, err
		}

		sum, err := runner.Start(ctx, userID, a)
		if err != nil {
			return nil, runError(err, "failed to start analysis")
		}

		return &StartAnalysisOutput{Body: sum}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-analyses",
		Method:      http.MethodGet,
		Path:        "/analyses",
		Summary:     "List the current user's recent analyses",
		Tags:        []string{"Analyses"},
	}, func(ctx context.Context, _ *struct{}) (*ListAnalysesOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		return &ListAnalysesOutput{Body: runner.List(userID)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-analysis",
		Method:      http.MethodGet,
		Path:        "/analyses/{id}",
		Summary:     "Get an analysis run and its latest snapshot",
		Tags:        []string{"Analyses"},
	}, func(ctx context.Context, input *AnalysisIDInput) (*GetAnalysisOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		sum, err := runner.Get(userID, input.ID)
		if err != nil {
			return nil, runError(err, "failed to get analysis")
		}
		snap, err := runner.Snapshot(userID, input.ID)
		if err != nil {
			return nil, runError(err, "failed to get analysis")
		}

		out := &GetAnalysisOutput{}
		out.Body.Run = sum
		out.Body.Snapshot = snap
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-analysis",
		Method:      http.MethodDelete,
		Path:        "/analyses/{id}",
		Summary:     "Cancel a running analysis",
		Tags:        []string{"Analyses"},
	}, func(ctx context.Context, input *AnalysisIDInput) (*struct{}, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("authentication required")
		}

		if err := runner.Cancel(userID, input.ID); err != nil {
			return nil, runError(err, "failed to cancel analysis")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-analysis-report",
		Method:      http.MethodGet,
		Path:        "/analyses/report",
		Summary:     "Get the stored report for an article URL",
		Tags:        []string{"Analyses"},
	}, func(ctx context.Context, input *GetReportInput) (*GetReportOutput, error) {
		rep, err := runner.CachedReport(ctx, input.URL)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no report for this article")
			}
			return nil, huma.Error500InternalServerError("failed to load report", err)
		}

		return &GetReportOutput{Body: rep}, nil
	})
}

func runError(err error, msg string) error {
	switch {
	case errors.Is(err, relay.ErrRunNotFound):
		return huma.Error404NotFound("analysis not found")
	case errors.Is(err, relay.ErrRunFinished):
		return huma.Error409Conflict("analysis already finished")
	case errors.Is(err, relay.ErrTooManyRuns):
		return huma.Error429TooManyRequests("too many analyses in progress")
	case errors.Is(err, relay.ErrShuttingDown):
		return huma.Error503ServiceUnavailable("server is shutting down")
	case errors.Is(err, domain.ErrInvalidInput):
		return huma.Error422UnprocessableEntity("article needs a headline and url")
	}
	return huma.Error500InternalServerError(msg, err)
}
