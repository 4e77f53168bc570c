package session

import (
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/util"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StatusResponse describes the current session to the UI.
type StatusResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          interface{} `json:"user,omitempty"`
}

func LoginHandler(handler Handler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		contextLogger := log.WithContext(ctx)

		var req loginRequest
		if err := util.DecodeJSON(r, &req); err != nil {
			contextLogger.WithError(err).Error("could not parse login request")
			util.WithError(invalidInputMsg, http.StatusBadRequest, w)
			return
		}

		if err := handler.Login(ctx, req.Email, req.Password); err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				util.WithError(authErr.Message, http.StatusUnauthorized, w)
				return
			}
			util.WithError(loginFailedMsg, http.StatusInternalServerError, w)
			return
		}
		util.WithBodyAndStatus(handler.Status(), http.StatusOK, w)
	}
}

func LogoutHandler(handler Handler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		handler.Logout(r.Context())
		util.WithBodyAndStatus(nil, http.StatusNoContent, w)
	}
}

func StatusHandler(handler Handler) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		util.WithBodyAndStatus(handler.Status(), http.StatusOK, w)
	}
}
