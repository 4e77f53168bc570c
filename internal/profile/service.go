// Package profile reads and edits the logged-in employee's profile on the ledger.
package profile

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/model"
)

const (
	MaxImageBytes = 2 << 20

	savedMsg      = "Profile updated successfully!"
	saveFailedMsg = "Failed to update profile"
)

var (
	ErrNoIdentity    = errors.New("no logged in employee")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
	ErrImageTooLarge = errors.New("uploaded image is too large")
)

// ValidationError lists the profile fields that failed validation.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type Client interface {
	GetProfile(ctx context.Context, token string, employeeID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, token string, p model.Profile) error
}

type Session interface {
	Token() (string, error)
	Identity() (model.User, bool)
}

type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

type Service struct {
	client   Client
	session  Session
	notify   Notifier
	validate *validator.Validate
}

func NewService(client Client, session Session, notify Notifier) *Service {
	return &Service{
		client:   client,
		session:  session,
		notify:   notify,
		validate: validator.New(),
	}
}

// Get loads the profile of the logged-in employee.
func (s *Service) Get(ctx context.Context) (*model.Profile, error) {
	token, err := s.session.Token()
	if err != nil {
		return nil, err
	}
	user, ok := s.session.Identity()
	if !ok || user.EmployeeID == "" {
		return nil, ErrNoIdentity
	}

	p, err := s.client.GetProfile(ctx, token, user.EmployeeID)
	if err != nil {
		log.WithContext(ctx).WithError(err).Errorf("Failed to load profile for employee %v", user.EmployeeID)
		return nil, err
	}
	return p, nil
}

// Save validates p and sends the full profile to the ledger.
func (s *Service) Save(ctx context.Context, p model.Profile) error {
	ctxLogger := log.WithContext(ctx)

	if err := s.validate.Struct(p); err != nil {
		verr := &ValidationError{Err: err}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verr.Fields = append(verr.Fields, fe.Field())
			}
		}
		return verr
	}

	token, err := s.session.Token()
	if err != nil {
		return err
	}

	if err := s.client.UpdateProfile(ctx, token, p); err != nil {
		ctxLogger.WithError(err).Errorf("Failed to update profile for employee %v", p.EmployeeID)
		s.notify.Error(ctx, ledger.UserMessage(err, saveFailedMsg))
		return err
	}
	s.notify.Success(ctx, savedMsg)
	return nil
}

// SetImage stores data on p as a base64 data URL after checking it is an image.
func (s *Service) SetImage(p *model.Profile, data []byte) error {
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return errors.Wrapf(ErrNotAnImage, "detected %s", mt.String())
	}

	url := fmt.Sprintf("data:%s;base64,%s", mt.String(), base64.StdEncoding.EncodeToString(data))
	p.ProfileImage = &url
	return nil
}
