package internal

import (
	"context"
	"net/http"

	"github.com/syrilster/leave-lop-console/internal/config"
	"github.com/syrilster/leave-lop-console/internal/export"
	"github.com/syrilster/leave-lop-console/internal/lop"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/roster"
)

// ConsoleHandler is everything the console routes drive besides the session.
type ConsoleHandler interface {
	Roster() RosterResponse
	SetParams(ctx context.Context, u roster.ParamsUpdate) (RosterResponse, error)
	Refresh(ctx context.Context) (RosterResponse, error)
	StageDraft(ctx context.Context, employeeID string, raw string) (string, error)
	ImportDrafts(ctx context.Context, data []byte) ([]export.Draft, error)
	ApplyLOP(ctx context.Context, employeeID string) (*lop.Result, error)
	Export(ctx context.Context) (*export.File, error)
	EmailExport(ctx context.Context) error
	Profile(ctx context.Context) (*model.Profile, error)
	SaveProfile(ctx context.Context, p model.Profile) error
	SetProfileImage(ctx context.Context, data []byte) (*model.Profile, error)
	Notifications(n int) []model.Notification
}

func Route(handler ConsoleHandler) []config.Route {
	return []config.Route{
		{Path: "/roster", Method: http.MethodGet, Handler: RosterHandler(handler)},
		{Path: "/roster/params", Method: http.MethodPatch, Handler: SetParamsHandler(handler)},
		{Path: "/roster/refresh", Method: http.MethodPost, Handler: RefreshHandler(handler)},
		{Path: "/drafts/import", Method: http.MethodPost, Handler: ImportDraftsHandler(handler)},
		{Path: "/drafts/{employeeId}", Method: http.MethodPut, Handler: StageDraftHandler(handler)},
		{Path: "/lop/{employeeId}/apply", Method: http.MethodPost, Handler: ApplyHandler(handler)},
		{Path: "/export", Method: http.MethodGet, Handler: ExportHandler(handler)},
		{Path: "/export/email", Method: http.MethodPost, Handler: EmailExportHandler(handler)},
		{Path: "/profile", Method: http.MethodGet, Handler: ProfileHandler(handler)},
		{Path: "/profile", Method: http.MethodPost, Handler: SaveProfileHandler(handler)},
		{Path: "/profile/image", Method: http.MethodPost, Handler: ProfileImageHandler(handler)},
		{Path: "/notifications", Method: http.MethodGet, Handler: NotificationsHandler(handler)},
	}
}
