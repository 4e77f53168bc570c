package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized covers invalid credentials and expired or revoked tokens.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRejected     = errors.New("rejected")
	ErrUnavailable  = errors.New("unavailable")
	// ErrNetwork matches any call that could not complete.
	ErrNetwork = errors.New("network failure")
)

// APIError is a non-2xx answer from the ledger. Detail carries the server's
// user-facing message when it sent one.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to call %s with cause %d %v", e.Op, e.StatusCode, e.kind)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// NetworkError wraps a transport failure, including client timeouts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to execute %s request. Cause %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// UserMessage returns the ledger's detail message for err, or fallback when there is none.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

func getHTTPStatusCode(ctx context.Context, status int, body []byte, apiName string) error {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	contextLogger := log.WithContext(ctx)
	contextLogger.Infof("status returned from ledger service (%s) %d", apiName, status)

	apiErr := &APIError{Op: apiName, StatusCode: status, Detail: parseDetail(body)}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.kind = ErrUnauthorized
	case status == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case status >= http.StatusInternalServerError:
		apiErr.kind = ErrUnavailable
	default:
		apiErr.kind = ErrRejected
	}
	return apiErr
}

// parseDetail understands FastAPI's error bodies: {"detail": "msg"} and
// {"detail": [{"msg": "..."}]} for validation errors.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
