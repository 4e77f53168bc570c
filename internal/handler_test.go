package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syrilster/leave-lop-console/internal/config"
	"github.com/syrilster/leave-lop-console/internal/export"
	"github.com/syrilster/leave-lop-console/internal/ledger"
	"github.com/syrilster/leave-lop-console/internal/lop"
	"github.com/syrilster/leave-lop-console/internal/model"
	"github.com/syrilster/leave-lop-console/internal/profile"
	"github.com/syrilster/leave-lop-console/internal/roster"
	"github.com/syrilster/leave-lop-console/internal/session"
	"github.com/syrilster/leave-lop-console/internal/util"
)

type MockConsole struct {
	mock.Mock
}

func (m *MockConsole) Roster() RosterResponse {
	return m.Called().Get(0).(RosterResponse)
}

func (m *MockConsole) SetParams(ctx context.Context, u roster.ParamsUpdate) (RosterResponse, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(RosterResponse), args.Error(1)
}

func (m *MockConsole) Refresh(ctx context.Context) (RosterResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(RosterResponse), args.Error(1)
}

func (m *MockConsole) StageDraft(ctx context.Context, employeeID string, raw string) (string, error) {
	args := m.Called(ctx, employeeID, raw)
	return args.String(0), args.Error(1)
}

func (m *MockConsole) ImportDrafts(ctx context.Context, data []byte) ([]export.Draft, error) {
	args := m.Called(ctx, data)
	drafts, _ := args.Get(0).([]export.Draft)
	return drafts, args.Error(1)
}

func (m *MockConsole) ApplyLOP(ctx context.Context, employeeID string) (*lop.Result, error) {
	args := m.Called(ctx, employeeID)
	res, _ := args.Get(0).(*lop.Result)
	return res, args.Error(1)
}

func (m *MockConsole) Export(ctx context.Context) (*export.File, error) {
	args := m.Called(ctx)
	file, _ := args.Get(0).(*export.File)
	return file, args.Error(1)
}

func (m *MockConsole) EmailExport(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockConsole) Profile(ctx context.Context) (*model.Profile, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *MockConsole) SaveProfile(ctx context.Context, p model.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockConsole) SetProfileImage(ctx context.Context, data []byte) (*model.Profile, error) {
	args := m.Called(ctx, data)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *MockConsole) Notifications(n int) []model.Notification {
	return m.Called(n).Get(0).([]model.Notification)
}

func newTestRouter(console ConsoleHandler) http.Handler {
	return config.NewServer().WithRoutes("/v1", Route(console)...).Handler()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body util.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func multipartUpload(t *testing.T, path string, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestApplyHandler(t *testing.T) {
	tests := []struct {
		name       string
		result     *lop.Result
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "Success",
			result:     &lop.Result{Applied: true, EmployeeID: "E1", RemainingLeaves: 15, Message: "Leave balance updated successfully!"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Nothing staged",
			result:     &lop.Result{EmployeeID: "E1"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Error when not logged in",
			err:        session.ErrUnauthenticated,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Please log in",
		},
		{
			name:       "Error when row not visible",
			err:        lop.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Employee not found",
		},
		{
			name:       "Error when already applying",
			err:        lop.ErrApplyInProgress,
			wantStatus: http.StatusConflict,
		},
		{
			name: "Error from ledger keeps its detail",
			err: &lop.ApplyError{
				Message: "Remaining leaves exceed total",
				Err:     errors.Wrap(ledger.ErrRejected, "Remaining leaves exceed total"),
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Remaining leaves exceed total",
		},
		{
			name: "Error when ledger unreachable",
			err: &lop.ApplyError{
				Message: "Failed to update leave: timeout",
				Err:     &ledger.NetworkError{Op: "SubmitRemainingLeaves", Err: errors.New("timeout")},
			},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Failed to update leave: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console := new(MockConsole)
			console.On("ApplyLOP", mock.Anything, "E1").Return(tt.result, tt.err)

			rec := serve(newTestRouter(console), httptest.NewRequest(http.MethodPost, "/v1/lop/E1/apply", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.err != nil && tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, errorMessage(t, rec))
			}
			if tt.err == nil {
				var got lop.Result
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, *tt.result, got)
			}
			console.AssertExpectations(t)
		})
	}
}

func TestSetParamsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		console := new(MockConsole)
		month := 8
		resp := RosterResponse{View: roster.View{Params: model.QueryParams{Year: 2025, Month: 8, Page: 1, PageSize: 5}, Rows: []model.LeaveRow{}}}
		console.On("SetParams", mock.Anything, roster.ParamsUpdate{Month: &month}).Return(resp, nil)

		req := httptest.NewRequest(http.MethodPatch, "/v1/roster/params", strings.NewReader(`{"month":8}`))
		rec := serve(newTestRouter(console), req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		var got RosterResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 8, got.Params.Month)
	})

	t.Run("Error on unknown fields", func(t *testing.T) {
		console := new(MockConsole)
		req := httptest.NewRequest(http.MethodPatch, "/v1/roster/params", strings.NewReader(`{"quarter":3}`))
		rec := serve(newTestRouter(console), req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		console.AssertNotCalled(t, "SetParams", mock.Anything, mock.Anything)
	})

	t.Run("Error on invalid params", func(t *testing.T) {
		console := new(MockConsole)
		validationErr := validator.New().Struct(model.QueryParams{Year: 2025, Month: 13, Page: 1, PageSize: 5})
		require.Error(t, validationErr)
		console.On("SetParams", mock.Anything, mock.Anything).Return(RosterResponse{}, errors.Wrap(validationErr, "invalid roster params"))

		req := httptest.NewRequest(http.MethodPatch, "/v1/roster/params", strings.NewReader(`{"month":13}`))
		rec := serve(newTestRouter(console), req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, invalidParamsMsg, errorMessage(t, rec))
	})
}

func TestStageDraftHandler(t *testing.T) {
	console := new(MockConsole)
	console.On("StageDraft", mock.Anything, "E7", "12a3").Return("123", nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/drafts/E7", strings.NewReader(`{"lop":"12a3"}`))
	rec := serve(newTestRouter(console), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"employee_id":"E7","lop":"123"}`, rec.Body.String())
}

func TestImportDraftsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		console := new(MockConsole)
		drafts := []export.Draft{{EmployeeID: "E1", LOP: "2"}}
		console.On("ImportDrafts", mock.Anything, []byte("xlsx-bytes")).Return(drafts, nil)

		rec := serve(newTestRouter(console), multipartUpload(t, "/v1/drafts/import", "lop.xlsx", []byte("xlsx-bytes")))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"employee_id":"E1","lop":"2"}]`, rec.Body.String())
	})

	t.Run("Error when not xlsx", func(t *testing.T) {
		console := new(MockConsole)
		rec := serve(newTestRouter(console), multipartUpload(t, "/v1/drafts/import", "lop.csv", []byte("E1,2")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		console.AssertNotCalled(t, "ImportDrafts", mock.Anything, mock.Anything)
	})

	t.Run("Error when workbook unreadable", func(t *testing.T) {
		console := new(MockConsole)
		console.On("ImportDrafts", mock.Anything, mock.Anything).Return(nil, errors.Wrap(export.ErrInvalidWorkbook, "zip: not a valid zip file"))

		rec := serve(newTestRouter(console), multipartUpload(t, "/v1/drafts/import", "lop.xlsx", []byte("nope")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "xlsx format")
	})

	t.Run("Error without a file", func(t *testing.T) {
		console := new(MockConsole)
		rec := serve(newTestRouter(console), httptest.NewRequest(http.MethodPost, "/v1/drafts/import", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExportHandler(t *testing.T) {
	console := new(MockConsole)
	console.On("Export", mock.Anything).Return(&export.File{
		Name:        "leave_summary_7_2025.xlsx",
		ContentType: export.ContentType,
		Data:        []byte("PK-bytes"),
	}, nil)

	rec := serve(newTestRouter(console), httptest.NewRequest(http.MethodGet, "/v1/export", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="leave_summary_7_2025.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK-bytes", rec.Body.String())
}

func TestProfileHandlers(t *testing.T) {
	valid := model.Profile{EmployeeID: "E1", Name: "Ann", Email: "ann@example.com"}

	t.Run("Save rejects invalid profile", func(t *testing.T) {
		console := new(MockConsole)
		console.On("SaveProfile", mock.Anything, mock.Anything).Return(&profile.ValidationError{Fields: []string{"Email"}})

		body, _ := json.Marshal(valid)
		rec := serve(newTestRouter(console), httptest.NewRequest(http.MethodPost, "/v1/profile", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid profile fields: Email", errorMessage(t, rec))
	})

	t.Run("Image rejects non images", func(t *testing.T) {
		console := new(MockConsole)
		console.On("SetProfileImage", mock.Anything, []byte("text")).Return(nil, errors.Wrap(profile.ErrNotAnImage, "detected text/plain"))

		rec := serve(newTestRouter(console), multipartUpload(t, "/v1/profile/image", "me.txt", []byte("text")))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("Get", func(t *testing.T) {
		console := new(MockConsole)
		console.On("Profile", mock.Anything).Return(&valid, nil)

		rec := serve(newTestRouter(console), httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		var got model.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, valid, got)
	})
}

func TestNotificationsHandler(t *testing.T) {
	console := new(MockConsole)
	console.On("Notifications", 3).Return([]model.Notification{{Level: model.LevelSuccess, Message: "ok"}})

	rec := serve(newTestRouter(console), httptest.NewRequest(http.MethodGet, "/v1/notifications?limit=3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestRouter(console), httptest.NewRequest(http.MethodGet, "/v1/notifications?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	console.AssertNumberOfCalls(t, "Notifications", 1)
}
