package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/customhttp"
	"github.com/syrilster/leave-lop-console/internal/model"
)

const (
	headerKeyAuth = "Authorization"
	bearer        = "Bearer"

	loginAPIName         = "Login"
	currentUserAPIName   = "CurrentUser"
	rosterAPIName        = "FetchRoster"
	remainingAPIName     = "SubmitRemainingLeaves"
	getProfileAPIName    = "GetProfile"
	updateProfileAPIName = "UpdateProfile"
)

// ClientInterface is the remote leave ledger as seen by the console.
type ClientInterface interface {
	Login(ctx context.Context, email string, password string) (*model.TokenResponse, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)
	FetchRoster(ctx context.Context, token string, q model.QueryParams) (*model.RosterPage, error)
	SubmitRemainingLeaves(ctx context.Context, token string, req model.MutationRequest) (*model.MutationResponse, error)
	GetProfile(ctx context.Context, token string, employeeID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, token string, p model.Profile) error
}

func NewClient(endpoint string, c customhttp.HTTPCommand) *client {
	return &client{
		URL:    strings.TrimRight(endpoint, "/"),
		Client: c,
	}
}

type client struct {
	URL    string
	Client customhttp.HTTPCommand
}

func (c *client) Login(ctx context.Context, email string, password string) (*model.TokenResponse, error) {
	contextLogger := log.WithContext(ctx)
	contextLogger.Info("Requesting ledger token for user: ", email)

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildTokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	response := &model.TokenResponse{}
	if err := c.do(ctx, loginAPIName, req, response); err != nil {
		return nil, err
	}
	if response.AccessToken == "" {
		return nil, fmt.Errorf("%s returned an empty access token", loginAPIName)
	}
	return response, nil
}

func (c *client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, c.buildCurrentUserEndpoint(), token, nil)
	if err != nil {
		return nil, err
	}

	response := &model.User{}
	if err := c.do(ctx, currentUserAPIName, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) FetchRoster(ctx context.Context, token string, q model.QueryParams) (*model.RosterPage, error) {
	contextLogger := log.WithContext(ctx)
	contextLogger.WithFields(log.Fields{
		"year":   q.Year,
		"month":  q.Month,
		"search": q.SearchText,
		"page":   q.Page,
		"limit":  q.PageSize,
	}).Info("Fetching leave roster")

	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, c.buildRosterEndpoint(q), token, nil)
	if err != nil {
		return nil, err
	}

	response := &model.RosterPage{}
	if err := c.do(ctx, rosterAPIName, req, response); err != nil {
		return nil, err
	}
	if response.Data == nil {
		response.Data = []model.LeaveRow{}
	}
	return response, nil
}

func (c *client) SubmitRemainingLeaves(ctx context.Context, token string, mutation model.MutationRequest) (*model.MutationResponse, error) {
	contextLogger := log.WithContext(ctx)
	contextLogger.Infof("Submitting remaining leaves for Employee: %v", mutation.EmployeeID)

	payload, err := json.Marshal(mutation)
	if err != nil {
		return nil, err
	}

	req, err := c.newAuthorizedRequest(ctx, http.MethodPost, c.buildRemainingLeavesEndpoint(), token, payload)
	if err != nil {
		return nil, err
	}

	response := &model.MutationResponse{}
	if err := c.do(ctx, remainingAPIName, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) GetProfile(ctx context.Context, token string, employeeID string) (*model.Profile, error) {
	req, err := c.newAuthorizedRequest(ctx, http.MethodGet, c.buildProfileEndpoint(employeeID), token, nil)
	if err != nil {
		return nil, err
	}

	response := &model.Profile{}
	if err := c.do(ctx, getProfileAPIName, req, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) UpdateProfile(ctx context.Context, token string, p model.Profile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req, err := c.newAuthorizedRequest(ctx, http.MethodPost, c.buildProfileUpdateEndpoint(), token, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, updateProfileAPIName, req, nil)
}

func (c *client) newAuthorizedRequest(ctx context.Context, method string, endpoint string, token string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		log.WithContext(ctx).WithError(err).Errorf("failed to build HTTP request")
		return nil, err
	}

	req.Header.Set(headerKeyAuth, fmt.Sprintf("%s %s", bearer, token))
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes req and decodes a successful body into out. A nil out discards the body.
func (c *client) do(ctx context.Context, apiName string, req *http.Request, out interface{}) error {
	contextLogger := log.WithContext(ctx)

	resp, err := c.Client.Do(req)
	if err != nil {
		contextLogger.WithError(err).Errorf("there was an error calling the ledger %s API. %v", apiName, err)
		return &NetworkError{Op: apiName, Err: err}
	}

	defer func() {
		if err = resp.Body.Close(); err != nil {
			contextLogger.WithError(err).Errorf("Error closing the ioReader. %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		contextLogger.WithError(err).Errorf("error reading ledger API data resp body (%s)", body)
		return &NetworkError{Op: apiName, Err: err}
	}

	if err := getHTTPStatusCode(ctx, resp.StatusCode, body, apiName); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		contextLogger.WithError(err).Errorf("there was an error un marshalling the ledger API resp. %v", err)
		return errors.Errorf("there was an error un marshalling the %s resp. cause: %v", apiName, err)
	}
	return nil
}

func (c *client) buildTokenEndpoint() string {
	return c.URL + "/auth/token"
}

func (c *client) buildCurrentUserEndpoint() string {
	return c.URL + "/users/me"
}

func (c *client) buildRosterEndpoint(q model.QueryParams) string {
	v := url.Values{}
	v.Set("year", strconv.Itoa(q.Year))
	v.Set("month", strconv.Itoa(q.Month))
	v.Set("search", q.SearchText)
	v.Set("limit", strconv.Itoa(q.PageSize))
	v.Set("offset", strconv.Itoa(q.Offset()))
	return c.URL + "/combined/all_leave_details?" + v.Encode()
}

func (c *client) buildRemainingLeavesEndpoint() string {
	return c.URL + "/remaining-leaves/"
}

func (c *client) buildProfileEndpoint(employeeID string) string {
	return c.URL + "/profile/" + url.PathEscape(employeeID)
}

func (c *client) buildProfileUpdateEndpoint() string {
	return c.URL + "/profile/update"
}
