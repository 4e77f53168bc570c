// Package roster keeps the visible page of leave rows in step with the query
// parameters the operator picks.
//
// Every params change bumps a generation counter and schedules a fetch. A fetch
// result is applied only if its generation is still the latest one when it
// arrives, so a slow response for old params can never overwrite newer state.
package roster

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	detach "github.com/syrilster/leave-lop-console/internal/context"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/metrics"
	"github.com/syrilster/leave-lop-console/internal/model"
)

const loadFailedMsg = "Failed to load leave data"

// ErrSuperseded is returned by Refresh when newer params were issued while it ran.
var ErrSuperseded = errors.New("roster fetch superseded by newer params")

type Fetcher interface {
	FetchRoster(ctx context.Context, token string, q model.QueryParams) (*model.RosterPage, error)
}

type TokenSource interface {
	Token() (string, error)
}

type DraftMerger interface {
	MergeSeen(employeeIDs []string) error
}

// View is a consistent snapshot of the engine's state.
type View struct {
	Params         model.QueryParams `json:"params"`
	Rows           []model.LeaveRow  `json:"rows"`
	Total          int               `json:"total"`
	PageCount      int               `json:"page_count"`
	ShowPagination bool              `json:"show_pagination"`
	Loading        bool              `json:"loading"`
	Error          string            `json:"error,omitempty"`
}

type Option func(*Engine)

// WithDebounce sets how long SetParams waits for further changes before fetching.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		e.debounce = d
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

type Engine struct {
	mu         sync.Mutex
	params     model.QueryParams
	rows       []model.LeaveRow
	total      int
	fetched    bool
	loaded     model.QueryParams
	loading    bool
	lastErr    error
	generation uint64
	cancel     context.CancelFunc

	client   Fetcher
	session  TokenSource
	drafts   DraftMerger
	metrics  *metrics.Recorder
	validate *validator.Validate
	debounce time.Duration
	wg       sync.WaitGroup
}

func NewEngine(client Fetcher, session TokenSource, drafts DraftMerger, initial model.QueryParams, opts ...Option) *Engine {
	if initial.Page < 1 {
		initial.Page = 1
	}
	e := &Engine{
		params:   initial,
		rows:     []model.LeaveRow{},
		client:   client,
		session:  session,
		drafts:   drafts,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetParams applies u and schedules a debounced fetch when the params changed.
// Invalid params are rejected and leave the current params untouched.
func (e *Engine) SetParams(ctx context.Context, u ParamsUpdate) (model.QueryParams, error) {
	e.mu.Lock()
	next := Next(e.params, u, e.knownTotal())
	if err := e.validate.Struct(next); err != nil {
		current := e.params
		e.mu.Unlock()
		return current, errors.Wrap(err, "invalid roster params")
	}
	if next == e.params {
		e.mu.Unlock()
		return next, nil
	}
	e.params = next
	gen, fetchCtx, cancel := e.supersede(ctx)
	e.mu.Unlock()

	e.schedule(fetchCtx, cancel, gen, next, e.debounce)
	return next, nil
}

// Reload schedules an immediate fetch of the current params, e.g. after a login.
func (e *Engine) Reload(ctx context.Context) {
	e.mu.Lock()
	params := e.params
	gen, fetchCtx, cancel := e.supersede(ctx)
	e.mu.Unlock()

	e.schedule(fetchCtx, cancel, gen, params, 0)
}

// Refresh fetches the current params and waits for the result.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	params := e.params
	gen := e.nextGeneration()
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	return e.fetch(ctx, gen, params)
}

// Wait blocks until every scheduled fetch has finished or been dropped.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows := make([]model.LeaveRow, len(e.rows))
	copy(rows, e.rows)
	v := View{
		Params:         e.params,
		Rows:           rows,
		Total:          e.total,
		PageCount:      PageCount(e.total, e.params.PageSize),
		ShowPagination: e.total > e.params.PageSize,
		Loading:        e.loading,
	}
	if e.lastErr != nil {
		v.Error = ledger.UserMessage(e.lastErr, loadFailedMsg)
	}
	return v
}

func (e *Engine) Params() model.QueryParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// LoadedParams returns the params that produced the visible rows. It differs
// from Params while a newer change is still debouncing or in flight.
func (e *Engine) LoadedParams() model.QueryParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Reset drops the visible rows and any pending fetch, e.g. on logout.
// The params are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextGeneration()
	e.cancel = nil
	e.rows = []model.LeaveRow{}
	e.total = 0
	e.fetched = false
	e.loaded = model.QueryParams{}
	e.lastErr = nil
}

// Row returns the visible row for employeeID.
func (e *Engine) Row(employeeID string) (model.LeaveRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rows {
		if r.EmployeeID == employeeID {
			return r, true
		}
	}
	return model.LeaveRow{}, false
}

// PatchRow is the one in-place edit of the row set, used after a ledger mutation
// succeeds. It reports false when the row is no longer visible.
func (e *Engine) PatchRow(employeeID string, remaining float64, leaveDetailID int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.rows {
		if e.rows[i].EmployeeID == employeeID {
			id := leaveDetailID
			e.rows[i].RemainingLeaves = remaining
			e.rows[i].LeaveDetailID = &id
			return true
		}
	}
	return false
}

// supersede must be called with e.mu held.
func (e *Engine) supersede(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	gen := e.nextGeneration()
	fetchCtx, cancel := detach.Background(ctx)
	e.cancel = cancel
	return gen, fetchCtx, cancel
}

// nextGeneration must be called with e.mu held. It cancels whatever the previous
// generation was still waiting on. Loading belongs to a generation, so it is
// cleared here and set again only by a fetch of the new one.
func (e *Engine) nextGeneration() uint64 {
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	e.loading = false
	return e.generation
}

func (e *Engine) schedule(ctx context.Context, cancel context.CancelFunc, gen uint64, params model.QueryParams, delay time.Duration) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		if err := gax.Sleep(ctx, delay); err != nil {
			return
		}
		if err := e.fetch(ctx, gen, params); err != nil && !errors.Is(err, ErrSuperseded) {
			log.WithContext(ctx).WithError(err).Debug("Scheduled roster fetch did not apply")
		}
	}()
}

func (e *Engine) fetch(ctx context.Context, gen uint64, params model.QueryParams) error {
	ctxLogger := log.WithContext(ctx)

	token, err := e.session.Token()
	if err != nil {
		e.metrics.RosterFetch(metrics.FetchSkipped)
		return err
	}

	e.mu.Lock()
	if gen == e.generation {
		e.loading = true
	}
	e.mu.Unlock()

	page, err := e.client.FetchRoster(ctx, token, params)

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation {
		e.metrics.RosterFetch(metrics.FetchStale)
		ctxLogger.Debugf("Discarding roster response for superseded params %+v", params)
		return ErrSuperseded
	}
	e.loading = false

	if err != nil {
		e.lastErr = err
		e.metrics.RosterFetch(metrics.FetchError)
		ctxLogger.WithError(err).Error("Failed to load leave data")
		return err
	}

	e.rows = page.Data
	e.total = page.Total
	e.fetched = true
	e.loaded = params
	e.lastErr = nil

	ids := make([]string, 0, len(page.Data))
	for _, r := range page.Data {
		ids = append(ids, r.EmployeeID)
	}
	if err := e.drafts.MergeSeen(ids); err != nil {
		ctxLogger.WithError(err).Warn("Failed to record seen employees in the draft cache")
	}
	e.metrics.RosterFetch(metrics.FetchOK)
	return nil
}

func (e *Engine) knownTotal() int {
	if !e.fetched {
		return -1
	}
	return e.total
}
