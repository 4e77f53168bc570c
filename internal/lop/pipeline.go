// Package lop applies a staged loss-of-pay value to an employee's leave balance
// on the ledger.
package lop

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/drafts"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/metrics"
	"github.com/syrilster/leave-lop-console/internal/model"
)

const (
	defaultTotalLeaves = 15
	lookupPageSize     = 50

	successMsg  = "Leave balance updated successfully!"
	notFoundMsg = "Employee not found in the current view"
)

var (
	ErrNotFound        = errors.New("employee not found in the current view")
	ErrApplyInProgress = errors.New("an update for this employee is already in progress")
)

// ApplyError is a failed mutation carrying the message shown to the user.
type ApplyError struct {
	Message string
	Err     error
}

func (e *ApplyError) Error() string {
	return e.Message
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

type Ledger interface {
	FetchRoster(ctx context.Context, token string, q model.QueryParams) (*model.RosterPage, error)
	SubmitRemainingLeaves(ctx context.Context, token string, req model.MutationRequest) (*model.MutationResponse, error)
}

type TokenSource interface {
	Token() (string, error)
}

// Rows is the visible roster the pipeline reads from and patches.
type Rows interface {
	Params() model.QueryParams
	LoadedParams() model.QueryParams
	Row(employeeID string) (model.LeaveRow, bool)
	PatchRow(employeeID string, remaining float64, leaveDetailID int) bool
}

type Drafts interface {
	Get(employeeID string) string
	ClearIf(employeeID string, applied string) (bool, error)
}

type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Result describes what Apply did. Applied is false when there was nothing to apply.
type Result struct {
	Applied         bool    `json:"applied"`
	EmployeeID      string  `json:"employee_id"`
	LOP             int     `json:"lop,omitempty"`
	RemainingLeaves float64 `json:"remaining_leaves,omitempty"`
	LeaveDetailID   int     `json:"leave_detail_id,omitempty"`
	Message         string  `json:"message,omitempty"`
}

type Pipeline struct {
	ledger  Ledger
	session TokenSource
	rows    Rows
	drafts  Drafts
	notify  Notifier
	metrics *metrics.Recorder

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPipeline(ledger Ledger, session TokenSource, rows Rows, drafts Drafts, notify Notifier, m *metrics.Recorder) *Pipeline {
	return &Pipeline{
		ledger:   ledger,
		session:  session,
		rows:     rows,
		drafts:   drafts,
		notify:   notify,
		metrics:  m,
		inFlight: make(map[string]struct{}),
	}
}

// Apply adds the staged LOP for employeeID to the employee's remaining leaves.
// The base balance is re-read from the ledger so an outdated view cannot be
// written back. On failure neither the row nor the draft changes.
func (p *Pipeline) Apply(ctx context.Context, employeeID string) (*Result, error) {
	ctxLogger := log.WithContext(ctx).WithField("employee_id", employeeID)

	staged := p.drafts.Get(employeeID)
	lop, ok := drafts.ParsePending(staged)
	if !ok {
		p.metrics.Mutation(metrics.MutationSkipped)
		return &Result{EmployeeID: employeeID}, nil
	}

	if !p.acquire(employeeID) {
		p.metrics.Mutation(metrics.MutationRejected)
		return nil, ErrApplyInProgress
	}
	defer p.release(employeeID)

	token, err := p.session.Token()
	if err != nil {
		p.metrics.Mutation(metrics.MutationRejected)
		return nil, err
	}

	row, ok := p.rows.Row(employeeID)
	if !ok {
		ctxLogger.Error("Employee not found in the visible roster")
		return nil, p.notFound(ctx)
	}

	params := p.rows.Params()
	base, err := p.authoritativeRow(ctx, token, row, params)
	if errors.Is(err, ErrNotFound) {
		ctxLogger.Errorf("Employee not found on the ledger for %d/%d", params.Month, params.Year)
		return nil, p.notFound(ctx)
	}
	if err != nil {
		return nil, p.fail(ctx, err)
	}

	total := base.TotalLeaves
	if total == 0 {
		total = defaultTotalLeaves
	}
	req := model.MutationRequest{
		EmployeeID:      employeeID,
		Year:            params.Year,
		LeaveType:       model.LeaveTypeCasual,
		TotalLeaves:     total,
		RemainingLeaves: base.RemainingLeaves + float64(lop),
		LeaveDetailID:   base.LeaveDetailID,
	}

	resp, err := p.ledger.SubmitRemainingLeaves(ctx, token, req)
	if err != nil {
		return nil, p.fail(ctx, err)
	}

	if !p.rows.PatchRow(employeeID, req.RemainingLeaves, resp.ID) {
		ctxLogger.Info("Row left the view before the update completed")
	}
	cleared, err := p.drafts.ClearIf(employeeID, staged)
	if err != nil {
		ctxLogger.WithError(err).Error("Failed to clear applied LOP value")
	} else if !cleared {
		ctxLogger.Info("LOP value changed during the update, keeping the new value")
	}
	p.notify.Success(ctx, successMsg)
	p.metrics.Mutation(metrics.MutationApplied)

	return &Result{
		Applied:         true,
		EmployeeID:      employeeID,
		LOP:             lop,
		RemainingLeaves: req.RemainingLeaves,
		LeaveDetailID:   resp.ID,
		Message:         successMsg,
	}, nil
}

// authoritativeRow looks the employee up on the ledger. When the ledger search
// does not return the exact id the visible row is used, but only if it was
// loaded for the same year and month.
func (p *Pipeline) authoritativeRow(ctx context.Context, token string, row model.LeaveRow, params model.QueryParams) (model.LeaveRow, error) {
	page, err := p.ledger.FetchRoster(ctx, token, model.QueryParams{
		Year:       params.Year,
		Month:      params.Month,
		SearchText: row.EmployeeID,
		Page:       1,
		PageSize:   lookupPageSize,
	})
	if err != nil {
		return model.LeaveRow{}, err
	}

	for _, r := range page.Data {
		if r.EmployeeID == row.EmployeeID {
			if r.LeaveDetailID == nil {
				r.LeaveDetailID = row.LeaveDetailID
			}
			return r, nil
		}
	}
	loaded := p.rows.LoadedParams()
	if loaded.Year != params.Year || loaded.Month != params.Month {
		return model.LeaveRow{}, ErrNotFound
	}
	log.WithContext(ctx).Warnf("Ledger lookup did not return employee %v, using the visible row", row.EmployeeID)
	return row, nil
}

func (p *Pipeline) notFound(ctx context.Context) error {
	p.notify.Error(ctx, notFoundMsg)
	p.metrics.Mutation(metrics.MutationFailed)
	return ErrNotFound
}

func (p *Pipeline) fail(ctx context.Context, err error) error {
	msg := ledger.UserMessage(err, fmt.Sprintf("Failed to update leave: %v", err))
	log.WithContext(ctx).WithError(err).Error("Failed to update leave balance")
	p.notify.Error(ctx, msg)
	p.metrics.Mutation(metrics.MutationFailed)
	return &ApplyError{Message: msg, Err: err}
}

func (p *Pipeline) acquire(employeeID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[employeeID]; busy {
		return false
	}
	p.inFlight[employeeID] = struct{}{}
	return true
}

func (p *Pipeline) release(employeeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, employeeID)
}
