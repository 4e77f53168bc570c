package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/export"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/lop"
	"github.com/syrilster/leave-lop-console/internal/mailer"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/profile"
	"github.com/syrilster/leave-lop-console/internal/roster"
	"github.com/syrilster/leave-lop-console/internal/session"
	"github.com/syrilster/leave-lop-console/internal/util"
)

const (
	supportedFileFormat  = ".xlsx"
	maxUploadBytes       = 32 << 20
	defaultNotifications = 20

	loadFailedMsg    = "Failed to load leave data"
	invalidParamsMsg = "Invalid roster parameters"
)

type stageDraftRequest struct {
	LOP string `json:"lop"`
}

type stageDraftResponse struct {
	EmployeeID string `json:"employee_id"`
	LOP        string `json:"lop"`
}

func RosterHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		util.WithBodyAndStatus(handler.Roster(), http.StatusOK, res)
	}
}

func SetParamsHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var update roster.ParamsUpdate
		if err := util.DecodeJSON(req, &update); err != nil {
			log.WithContext(ctx).WithError(err).Error("could not parse roster params")
			util.WithError(invalidParamsMsg, http.StatusBadRequest, res)
			return
		}

		resp, err := handler.SetParams(ctx, update)
		if err != nil {
			writeError(ctx, res, err, invalidParamsMsg)
			return
		}
		util.WithBodyAndStatus(resp, http.StatusAccepted, res)
	}
}

func RefreshHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		resp, err := handler.Refresh(ctx)
		if err != nil {
			writeError(ctx, res, err, loadFailedMsg)
			return
		}
		util.WithBodyAndStatus(resp, http.StatusOK, res)
	}
}

func StageDraftHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		employeeID := mux.Vars(req)["employeeId"]

		var body stageDraftRequest
		if err := util.DecodeJSON(req, &body); err != nil {
			log.WithContext(ctx).WithError(err).Error("could not parse LOP value")
			util.WithError("Invalid LOP value", http.StatusBadRequest, res)
			return
		}

		value, err := handler.StageDraft(ctx, employeeID, body.LOP)
		if err != nil {
			writeError(ctx, res, err, "Failed to save LOP value")
			return
		}
		util.WithBodyAndStatus(stageDraftResponse{EmployeeID: employeeID, LOP: value}, http.StatusOK, res)
	}
}

func ImportDraftsHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		data, name, err := readUpload(req)
		if err != nil {
			util.WithError("A file upload is required", http.StatusBadRequest, res)
			return
		}
		if filepath.Ext(name) != supportedFileFormat {
			log.WithContext(ctx).Errorf("Rejected upload %s", name)
			util.WithError("Unable to open the uploaded file. Please confirm the file is in .xlsx format.", http.StatusBadRequest, res)
			return
		}

		staged, err := handler.ImportDrafts(ctx, data)
		if err != nil {
			writeError(ctx, res, err, "Unable to open the uploaded file. Please confirm the file is in .xlsx format.")
			return
		}
		util.WithBodyAndStatus(staged, http.StatusOK, res)
	}
}

func ApplyHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		employeeID := mux.Vars(req)["employeeId"]

		result, err := handler.ApplyLOP(ctx, employeeID)
		if err != nil {
			writeError(ctx, res, err, "Failed to update leave")
			return
		}
		util.WithBodyAndStatus(result, http.StatusOK, res)
	}
}

func ExportHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		file, err := handler.Export(ctx)
		if err != nil {
			writeError(ctx, res, err, "Failed to export leave summary")
			return
		}

		res.Header().Set("Content-Type", file.ContentType)
		res.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
		res.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
		res.WriteHeader(http.StatusOK)
		if _, err := res.Write(file.Data); err != nil {
			log.WithContext(ctx).WithError(err).Error("Error writing export")
		}
	}
}

func EmailExportHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		if err := handler.EmailExport(ctx); err != nil {
			writeError(ctx, res, err, emailFailedMsg)
			return
		}
		util.WithBodyAndStatus(nil, http.StatusNoContent, res)
	}
}

func ProfileHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		p, err := handler.Profile(ctx)
		if err != nil {
			writeError(ctx, res, err, "Failed to load profile")
			return
		}
		util.WithBodyAndStatus(p, http.StatusOK, res)
	}
}

func SaveProfileHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var p model.Profile
		if err := util.DecodeJSON(req, &p); err != nil {
			log.WithContext(ctx).WithError(err).Error("could not parse profile")
			util.WithError("Invalid profile", http.StatusBadRequest, res)
			return
		}
		if err := handler.SaveProfile(ctx, p); err != nil {
			writeError(ctx, res, err, "Failed to update profile")
			return
		}
		util.WithBodyAndStatus(p, http.StatusOK, res)
	}
}

func ProfileImageHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		data, _, err := readUpload(req)
		if err != nil {
			util.WithError("A file upload is required", http.StatusBadRequest, res)
			return
		}
		p, err := handler.SetProfileImage(ctx, data)
		if err != nil {
			writeError(ctx, res, err, "Failed to update profile image")
			return
		}
		util.WithBodyAndStatus(p, http.StatusOK, res)
	}
}

func NotificationsHandler(handler ConsoleHandler) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		limit := defaultNotifications
		if raw := req.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				util.WithError("Invalid limit", http.StatusBadRequest, res)
				return
			}
			limit = n
		}
		util.WithBodyAndStatus(handler.Notifications(limit), http.StatusOK, res)
	}
}

// readUpload returns the contents and name of the multipart "file" field.
func readUpload(req *http.Request) ([]byte, string, error) {
	contextLogger := log.WithContext(req.Context())

	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		contextLogger.WithError(err).Error("Failed to parse request body")
		return nil, "", err
	}

	file, fileHeader, err := req.FormFile("file")
	if err != nil {
		contextLogger.WithError(err).Error("Failed to get the file from request")
		return nil, "", err
	}
	defer file.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, file); err != nil {
		contextLogger.WithError(err).Error("Failed to copy file contents to buffer")
		return nil, "", err
	}
	return buf.Bytes(), fileHeader.Filename, nil
}

// writeError maps err onto a status and a user-facing message.
func writeError(ctx context.Context, res http.ResponseWriter, err error, fallback string) {
	status, msg := http.StatusInternalServerError, ledger.UserMessage(err, fallback)

	var (
		applyErr   *lop.ApplyError
		authErr    *session.AuthError
		profileErr *profile.ValidationError
		fieldErrs  validator.ValidationErrors
	)
	switch {
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, profile.ErrNoIdentity):
		status, msg = http.StatusUnauthorized, "Please log in"
	case errors.As(err, &authErr):
		status, msg = http.StatusUnauthorized, authErr.Message
	case errors.Is(err, lop.ErrNotFound):
		status, msg = http.StatusNotFound, "Employee not found"
	case errors.Is(err, lop.ErrApplyInProgress):
		status, msg = http.StatusConflict, lop.ErrApplyInProgress.Error()
	case errors.As(err, &profileErr):
		status, msg = http.StatusBadRequest, profileErr.Error()
	case errors.As(err, &fieldErrs):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrInvalidWorkbook):
		status, msg = http.StatusBadRequest, fallback
	case errors.Is(err, profile.ErrNotAnImage):
		status, msg = http.StatusUnsupportedMediaType, "Please upload an image"
	case errors.Is(err, profile.ErrImageTooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "Image is too large"
	case errors.Is(err, mailer.ErrNoRecipients):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrRejected):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrNetwork), errors.Is(err, ledger.ErrUnavailable):
		status = http.StatusBadGateway
	}

	if errors.As(err, &applyErr) {
		msg = applyErr.Message
	}

	log.WithContext(ctx).WithError(err).Errorf("request failed with status %d", status)
	util.WithError(msg, status, res)
}
