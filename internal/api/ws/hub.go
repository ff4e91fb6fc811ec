// Package ws serves live analysis progress over websockets. Updates arrive
// through Redis pub/sub; the run itself must be hosted by this server, which
// supplies the initial snapshot.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/newsroom/internal/relay"
	"github.com/gosuda/newsroom/internal/server/middleware"
	redisstore "github.com/gosuda/newsroom/internal/store/redis"
)

// Subscriber abstracts the Redis pub/sub subscribe operation.
// *redisstore.Client satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// Runs looks up the latest snapshot of a user's analysis run.
// *relay.Manager satisfies this interface.
type Runs interface {
	Snapshot(userID, runID uuid.UUID) (relay.Update, error)
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub Subscriber
	runs   Runs
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub Subscriber, runs Runs) *Hub {
	return &Hub{pubsub: pubsub, runs: runs}
}

// ServeAnalysis streams the updates of one analysis run.
// Subscribes to Redis channel "analysis:<runID>", sends the current snapshot,
// then forwards newer updates until the run is done or the client leaves.
func (h *Hub) ServeAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	if _, err = h.runs.Snapshot(userID, runID); err != nil {
		if errors.Is(err, relay.ErrRunNotFound) {
			http.Error(w, "analysis not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to look up analysis", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// Viewers never send; CloseRead handles control frames and ends ctx when
	// the client goes away.
	ctx := conn.CloseRead(r.Context())

	messages, cleanup, err := h.pubsub.Subscribe(ctx, redisstore.AnalysisChannel(runID.String()))
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	// Snapshot after subscribing so no update falls between the two.
	snap, err := h.runs.Snapshot(userID, runID)
	if err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "analysis expired")
		return
	}
	if err = writeJSON(ctx, conn, snap); err != nil {
		log.Debug().Err(err).Msg("websocket write")
		return
	}
	if snap.Done {
		_ = conn.Close(websocket.StatusNormalClosure, "analysis finished")
		return
	}
	lastSeq := snap.Seq

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			var head struct {
				Seq  uint64 `json:"seq"`
				Done bool   `json:"done"`
			}
			if jsonErr := json.Unmarshal(msg, &head); jsonErr != nil {
				log.Warn().Err(jsonErr).Str("run_id", runID.String()).Msg("ws: dropping undecodable update")
				continue
			}
			if head.Seq <= lastSeq {
				continue
			}
			lastSeq = head.Seq

			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
			if head.Done {
				_ = conn.Close(websocket.StatusNormalClosure, "analysis finished")
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}
