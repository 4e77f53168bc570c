package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/drafts"
	"github.com/syrilster/leave-lop-console/internal/export"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/lop"
	"github.com/syrilster/leave-lop-console/internal/mailer"
	"github.com/syrilster/leave-lop-console/internal/metrics"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/notify"
	"github.com/syrilster/leave-lop-console/internal/profile"
	"github.com/syrilster/leave-lop-console/internal/roster"
	"github.com/syrilster/leave-lop-console/internal/session"
	"github.com/syrilster/leave-lop-console/internal/storage"
)

const (
	emailSentMsg   = "Leave summary emailed successfully!"
	emailFailedMsg = "Failed to email leave summary"
)

// RosterResponse is the visible page together with the staged LOP of each row.
type RosterResponse struct {
	roster.View
	LOP map[string]string `json:"lop"`
}

// Service is the console: one operator's session, drafts and roster view.
type Service struct {
	session *session.Store
	drafts  *drafts.Cache
	roster  *roster.Engine
	lop     *lop.Pipeline
	profile *profile.Service
	feed    *notify.Feed
	mailer  *mailer.Mailer
	metrics *metrics.Recorder

	loginMu sync.Mutex
}

func NewService(client ledger.ClientInterface, blobs storage.BlobStore, m *mailer.Mailer, initial model.QueryParams, debounce time.Duration, rec *metrics.Recorder) *Service {
	sessionStore := session.NewStore(client, blobs)
	draftCache := drafts.Load(blobs)
	feed := notify.NewFeed(0)
	engine := roster.NewEngine(client, sessionStore, draftCache, initial,
		roster.WithDebounce(debounce),
		roster.WithMetrics(rec),
	)

	return &Service{
		session: sessionStore,
		drafts:  draftCache,
		roster:  engine,
		lop:     lop.NewPipeline(client, sessionStore, engine, draftCache, feed, rec),
		profile: profile.NewService(client, sessionStore, feed),
		feed:    feed,
		mailer:  m,
		metrics: rec,
	}
}

// Initialize restores a stored session and, when it is still valid, loads the roster.
func (s *Service) Initialize(ctx context.Context) {
	s.session.Initialize(ctx)
	if s.session.IsAuthenticated() {
		s.roster.Reload(ctx)
	}
}

func (s *Service) Login(ctx context.Context, email string, password string) error {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	if err := s.session.Login(ctx, email, password); err != nil {
		return err
	}
	s.roster.Reload(ctx)
	return nil
}

// Logout ends the session and drops the loaded roster with it.
func (s *Service) Logout(ctx context.Context) {
	s.session.Logout(ctx)
	s.roster.Reset()
}

func (s *Service) Status() session.StatusResponse {
	resp := session.StatusResponse{Authenticated: s.session.IsAuthenticated()}
	if user, ok := s.session.Identity(); ok {
		resp.User = user
	}
	return resp
}

// Token exposes the session capability to callers outside the HTTP surface.
func (s *Service) Token() (string, error) {
	return s.session.Token()
}

func (s *Service) Roster() RosterResponse {
	view := s.roster.View()
	lopValues := make(map[string]string, len(view.Rows))
	for _, r := range view.Rows {
		lopValues[r.EmployeeID] = s.drafts.Get(r.EmployeeID)
	}
	return RosterResponse{View: view, LOP: lopValues}
}

func (s *Service) SetParams(ctx context.Context, u roster.ParamsUpdate) (RosterResponse, error) {
	if _, err := s.roster.SetParams(ctx, u); err != nil {
		return RosterResponse{}, err
	}
	return s.Roster(), nil
}

func (s *Service) Refresh(ctx context.Context) (RosterResponse, error) {
	if err := s.roster.Refresh(ctx); err != nil && !errors.Is(err, roster.ErrSuperseded) {
		return RosterResponse{}, err
	}
	return s.Roster(), nil
}

// Wait blocks until background roster fetches settle.
func (s *Service) Wait() {
	s.roster.Wait()
}

// StageDraft records a LOP value for employeeID and returns the sanitized value.
func (s *Service) StageDraft(ctx context.Context, employeeID string, raw string) (string, error) {
	value, err := s.drafts.Set(employeeID, raw)
	if err != nil {
		log.WithContext(ctx).WithError(err).Errorf("Failed to stage LOP for employee %v", employeeID)
		return value, err
	}
	s.metrics.DraftStaged()
	return value, nil
}

// ImportDrafts stages every LOP value found in an uploaded workbook.
func (s *Service) ImportDrafts(ctx context.Context, data []byte) ([]export.Draft, error) {
	imported, err := export.Import(data)
	if err != nil {
		return nil, err
	}

	staged := make([]export.Draft, 0, len(imported))
	for _, d := range imported {
		value, err := s.StageDraft(ctx, d.EmployeeID, d.LOP)
		if err != nil {
			return staged, err
		}
		staged = append(staged, export.Draft{EmployeeID: d.EmployeeID, LOP: value})
	}
	log.WithContext(ctx).Infof("Imported %d staged LOP values", len(staged))
	return staged, nil
}

func (s *Service) ApplyLOP(ctx context.Context, employeeID string) (*lop.Result, error) {
	return s.lop.Apply(ctx, employeeID)
}

// Export builds the workbook for the rows currently visible.
func (s *Service) Export(ctx context.Context) (*export.File, error) {
	if _, err := s.session.Token(); err != nil {
		return nil, err
	}
	view := s.roster.View()
	file, err := export.Export(view.Rows, s.drafts.Snapshot(), view.Params.Month, view.Params.Year)
	if err != nil {
		log.WithContext(ctx).WithError(err).Error("Failed to build leave summary")
		return nil, err
	}
	return file, nil
}

func (s *Service) EmailExport(ctx context.Context) error {
	file, err := s.Export(ctx)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Leave Summary %d/%d", s.roster.Params().Month, s.roster.Params().Year)
	if err := s.mailer.SendReport(ctx, subject, "Please find the leave summary attached.", file); err != nil {
		s.feed.Error(ctx, emailFailedMsg)
		return err
	}
	s.feed.Success(ctx, emailSentMsg)
	return nil
}

func (s *Service) Profile(ctx context.Context) (*model.Profile, error) {
	return s.profile.Get(ctx)
}

func (s *Service) SaveProfile(ctx context.Context, p model.Profile) error {
	return s.profile.Save(ctx, p)
}

// SetProfileImage replaces the profile image of the logged-in employee and saves the profile.
func (s *Service) SetProfileImage(ctx context.Context, data []byte) (*model.Profile, error) {
	p, err := s.profile.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.profile.SetImage(p, data); err != nil {
		return nil, err
	}
	if err := s.profile.Save(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Notifications(n int) []model.Notification {
	return s.feed.Recent(n)
}
