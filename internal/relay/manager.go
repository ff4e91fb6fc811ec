// Package relay hosts streaming analyses on the server. Each run owns one
// analysis.Session; its snapshots are fanned out over Redis pub/sub so any
// number of websocket viewers can follow along, and finished reports are
// kept in Postgres with a Redis read-through cache.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/newsroom/internal/analysis"
	"github.com/gosuda/newsroom/internal/domain"
	redisstore "github.com/gosuda/newsroom/internal/store/redis"
)

var (
	// ErrRunNotFound is returned when a run does not exist or belongs to another user.
	ErrRunNotFound = errors.New("relay: run not found")
	// ErrRunFinished is returned when cancelling a run that already ended.
	ErrRunFinished = errors.New("relay: run already finished")
	// ErrTooManyRuns is returned when a user has too many runs in flight.
	ErrTooManyRuns = errors.New("relay: too many active runs")
	// ErrShuttingDown is returned by Start after Shutdown.
	ErrShuttingDown = errors.New("relay: shutting down")
)

// Publisher abstracts the Redis pub/sub publish operation.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Cache abstracts the Redis key/value operations used for finished reports.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options tunes a Manager. Zero values fall back to defaults.
type Options struct {
	ReportTTL      time.Duration
	RetainFinished time.Duration
	MaxRunsPerUser int
	PublishTimeout time.Duration
	SweepInterval  time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReportTTL <= 0 {
		o.ReportTTL = 24 * time.Hour
	}
	if o.RetainFinished <= 0 {
		o.RetainFinished = 10 * time.Minute
	}
	if o.MaxRunsPerUser <= 0 {
		o.MaxRunsPerUser = 3
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 5 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	return o
}

// Update is the message published for every snapshot of a run.
type Update struct {
	RunID  uuid.UUID      `json:"runId"`
	Seq    uint64         `json:"seq"`
	Status string         `json:"status"`
	Done   bool           `json:"done"`
	State  analysis.State `json:"state"`
}

// Summary is a point-in-time view of a run.
type Summary struct {
	ID         uuid.UUID  `json:"id"`
	ArticleID  string     `json:"article_id"`
	ArticleURL string     `json:"article_url"`
	Headline   string     `json:"headline"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// run is one server-hosted analysis.
type run struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ArticleID  string
	ArticleURL string
	Headline   string
	StartedAt  time.Time

	session *analysis.Session
	mailbox *mailbox

	mu         sync.Mutex
	seq        uint64
	latest     analysis.State
	finishedAt time.Time
}

// snapshot returns the latest state of the run with its sequence number.
func (r *run) snapshot() Update {
	r.mu.Lock()
	seq, st, finished := r.seq, r.latest, !r.finishedAt.IsZero()
	r.mu.Unlock()

	status := r.session.Status()
	return Update{
		RunID:  r.ID,
		Seq:    seq,
		Status: status.String(),
		Done:   finished,
		State:  st,
	}
}

func (r *run) summary() Summary {
	r.mu.Lock()
	st, fin := r.latest, r.finishedAt
	r.mu.Unlock()

	sum := Summary{
		ID:         r.ID,
		ArticleID:  r.ArticleID,
		ArticleURL: r.ArticleURL,
		Headline:   r.Headline,
		Status:     r.session.Status().String(),
		Progress:   st.Progress,
		Error:      st.ErrorMessage(),
		StartedAt:  r.StartedAt,
	}
	if !fin.IsZero() {
		sum.FinishedAt = &fin
	}
	return sum
}

// finished returns when the run ended, or the zero time while it is active.
func (r *run) finished() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// record is the session listener. It runs under the session lock, so it only
// stamps a sequence number and hands off to the mailbox.
func (r *run) record(st analysis.State) {
	r.mu.Lock()
	r.seq++
	r.latest = st
	u := Update{RunID: r.ID, Seq: r.seq, Status: statusHint(st), State: st}
	r.mu.Unlock()

	r.mailbox.put(u)
}

// statusHint names the status implied by a snapshot alone. The final Update
// published when the run ends carries the authoritative status.
func statusHint(st analysis.State) string {
	switch {
	case st.IsStreaming:
		return analysis.StatusStreaming.String()
	case st.Error != nil:
		return analysis.StatusError.String()
	default:
		return "stopping"
	}
}

// Manager owns the active and recently finished runs.
type Manager struct {
	streamer analysis.Streamer
	pubsub   Publisher
	cache    Cache
	reports  domain.AnalysisReportRepository
	opts     Options

	mu       sync.RWMutex
	runs     map[uuid.UUID]*run
	closed   bool
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts its sweeper for finished runs.
func NewManager(
	streamer analysis.Streamer,
	pubsub Publisher,
	cache Cache,
	reports domain.AnalysisReportRepository,
	opts Options,
) *Manager {
	m := &Manager{
		streamer: streamer,
		pubsub:   pubsub,
		cache:    cache,
		reports:  reports,
		opts:     opts.withDefaults(),
		runs:     make(map[uuid.UUID]*run),
		done:     make(chan struct{}),
	}

	go m.sweepLoop()

	return m
}

// Start begins analysing article on behalf of userID. The run outlives ctx:
// only ctx's values are carried over, and the run ends on its own, through
// Cancel, or at Shutdown.
func (m *Manager) Start(ctx context.Context, userID uuid.UUID, article domain.Article) (Summary, error) {
	if article.Headline == "" || article.URL == "" {
		return Summary{}, fmt.Errorf("relay.Manager.Start: headline and url are required: %w", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Summary{}, fmt.Errorf("relay.Manager.Start: %w", ErrShuttingDown)
	}
	active := 0
	for _, r := range m.runs {
		if r.UserID == userID && r.finished().IsZero() {
			active++
		}
	}
	if active >= m.opts.MaxRunsPerUser {
		m.mu.Unlock()
		return Summary{}, fmt.Errorf("relay.Manager.Start: %d runs in flight: %w", active, ErrTooManyRuns)
	}

	r := &run{
		ID:         uuid.New(),
		UserID:     userID,
		ArticleID:  domain.ArticleID(article.URL),
		ArticleURL: article.URL,
		Headline:   article.Headline,
		StartedAt:  time.Now(),
		session:    analysis.NewSession(m.streamer, log.Logger),
		mailbox:    newMailbox(),
		latest:     analysis.InitialState(),
	}
	r.session.OnUpdate(r.record)
	m.runs[r.ID] = r
	m.wg.Add(2)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		r.mailbox.drain(func(u Update) { m.publish(r, u) })
	}()

	r.session.Start(context.WithoutCancel(ctx), requestFor(article))

	go func() {
		defer m.wg.Done()
		m.watch(r)
	}()

	log.Info().
		Str("run_id", r.ID.String()).
		Str("user_id", userID.String()).
		Str("url", article.URL).
		Msg("relay: analysis started")

	return r.summary(), nil
}

// Get returns a summary of the run if it exists and belongs to userID.
func (m *Manager) Get(userID, runID uuid.UUID) (Summary, error) {
	r, err := m.lookup(userID, runID)
	if err != nil {
		return Summary{}, fmt.Errorf("relay.Manager.Get: %w", err)
	}
	return r.summary(), nil
}

// Snapshot returns the latest Update of the run. Websocket viewers send it
// first, then forward only published updates with a higher Seq.
func (m *Manager) Snapshot(userID, runID uuid.UUID) (Update, error) {
	r, err := m.lookup(userID, runID)
	if err != nil {
		return Update{}, fmt.Errorf("relay.Manager.Snapshot: %w", err)
	}
	return r.snapshot(), nil
}

// List returns summaries of the user's runs, newest first.
func (m *Manager) List(userID uuid.UUID) []Summary {
	m.mu.RLock()
	mine := make([]*run, 0, len(m.runs))
	for _, r := range m.runs {
		if r.UserID == userID {
			mine = append(mine, r)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(mine, func(a, b *run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	out := make([]Summary, len(mine))
	for i, r := range mine {
		out[i] = r.summary()
	}
	return out
}

func (m *Manager) lookup(userID, runID uuid.UUID) (*run, error) {
	m.mu.RLock()
	r, ok := m.runs[runID]
	m.mu.RUnlock()

	if !ok || r.UserID != userID {
		return nil, ErrRunNotFound
	}
	return r, nil
}

// Cancel aborts a run whose stream is still open, including one whose
// report already arrived but whose stream has not ended.
func (m *Manager) Cancel(userID, runID uuid.UUID) error {
	r, err := m.lookup(userID, runID)
	if err != nil {
		return fmt.Errorf("relay.Manager.Cancel: %w", err)
	}
	if !r.finished().IsZero() {
		return fmt.Errorf("relay.Manager.Cancel: %w", ErrRunFinished)
	}

	r.session.Cancel()
	log.Info().Str("run_id", runID.String()).Msg("relay: analysis cancelled")
	return nil
}

// CachedReport returns the stored report for articleURL, reading Redis first
// and falling back to Postgres, which repopulates Redis.
func (m *Manager) CachedReport(ctx context.Context, articleURL string) (*domain.AnalysisReport, error) {
	articleID := domain.ArticleID(articleURL)
	key := redisstore.ReportKey(articleID)

	raw, ok, err := m.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("relay.CachedReport: cache read failed")
	}
	if ok {
		var rep domain.AnalysisReport
		if jsonErr := json.Unmarshal(raw, &rep); jsonErr == nil {
			return &rep, nil
		}
		log.Warn().Str("key", key).Msg("relay.CachedReport: discarding undecodable cache entry")
	}

	rep, err := m.reports.GetByArticleID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("relay.Manager.CachedReport: %w", err)
	}

	m.cacheReport(ctx, rep)
	return rep, nil
}

// Shutdown cancels every active run and waits for their publishers to drain.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	m.closed = true
	runs := make([]*run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.Unlock()

	for _, r := range runs {
		r.session.Cancel()
	}

	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("relay.Manager.Shutdown: %w", ctx.Err())
	}
}

// watch waits for the run to end, persists a finished report and publishes
// the final Update.
func (m *Manager) watch(r *run) {
	st, _ := r.session.Wait(context.Background())
	status := r.session.Status()

	r.mu.Lock()
	r.finishedAt = time.Now()
	r.seq++
	r.latest = st
	final := Update{RunID: r.ID, Seq: r.seq, Status: status.String(), Done: true, State: st}
	r.mu.Unlock()

	if status == analysis.StatusComplete && st.HasResult() {
		m.saveReport(r, st)
	}

	r.mailbox.put(final)
	r.mailbox.close()

	log.Info().
		Str("run_id", r.ID.String()).
		Stringer("status", status).
		Int("progress", st.Progress).
		Msg("relay: analysis finished")
}

func (m *Manager) publish(r *run, u Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		log.Error().Err(err).Str("run_id", r.ID.String()).Msg("relay.publish: marshal update")
		return
	}

	channel := redisstore.AnalysisChannel(r.ID.String())
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.PublishTimeout)
	defer cancel()
	if pubErr := m.pubsub.Publish(ctx, channel, payload); pubErr != nil {
		log.Error().Err(pubErr).Str("channel", channel).Msg("relay.publish: failed to publish update")
	}
}

func (m *Manager) saveReport(r *run, st analysis.State) {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.PublishTimeout)
	defer cancel()

	now := time.Now()
	rep := &domain.AnalysisReport{
		ArticleID:  r.ArticleID,
		ArticleURL: r.ArticleURL,
		Headline:   r.Headline,
		Report:     st.FinalResponse,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.reports.Upsert(ctx, rep); err != nil {
		log.Error().Err(err).Str("run_id", r.ID.String()).Msg("relay.saveReport: failed to persist report")
	}
	m.cacheReport(ctx, rep)
}

func (m *Manager) cacheReport(ctx context.Context, rep *domain.AnalysisReport) {
	payload, err := json.Marshal(rep)
	if err != nil {
		return
	}
	key := redisstore.ReportKey(rep.ArticleID)
	if setErr := m.cache.Set(ctx, key, payload, m.opts.ReportTTL); setErr != nil {
		log.Warn().Err(setErr).Str("key", key).Msg("relay.cacheReport: cache write failed")
	}
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep drops runs that finished more than RetainFinished before now.
func (m *Manager) sweep(now time.Time) int {
	cutoff := now.Add(-m.opts.RetainFinished)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, r := range m.runs {
		if fin := r.finished(); !fin.IsZero() && fin.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}
	return removed
}

func requestFor(a domain.Article) analysis.ArticleRequest {
	date := ""
	if !a.PublishedAt.IsZero() {
		date = a.PublishedAt.Format(time.DateOnly)
	}
	return analysis.ArticleRequest{
		Headline: a.Headline,
		Summary:  a.Summary,
		Source:   a.Source,
		Date:     date,
		URL:      a.URL,
		Content:  a.Content,
	}
}
