package session

import (
	"context"
	"net/http"

	"github.com/syrilster/leave-lop-console/internal/config"
)

// Handler is what the session routes drive. The console implements it so that a
// login also reloads the roster.
type Handler interface {
	Login(ctx context.Context, email string, password string) error
	Logout(ctx context.Context)
	Status() StatusResponse
}

func Routes(handler Handler) []config.Route {
	return []config.Route{
		{
			Path:    "/session/login",
			Method:  http.MethodPost,
			Handler: LoginHandler(handler),
		},
		{
			Path:    "/session/logout",
			Method:  http.MethodPost,
			Handler: LogoutHandler(handler),
		},
		{
			Path:    "/session",
			Method:  http.MethodGet,
			Handler: StatusHandler(handler),
		},
	}
}
