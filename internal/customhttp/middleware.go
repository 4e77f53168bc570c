package customhttp

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const HeaderRequestID = "X-Request-ID"

// Observer receives the outcome of each outbound call.
type Observer func(method string, status int, elapsed time.Duration)

type middleware func(next httpCommandFunc) httpCommandFunc

func chainMiddleware(m ...middleware) middleware {
	return func(final httpCommandFunc) httpCommandFunc {
		last := final
		for i := len(m) - 1; i >= 0; i-- {
			last = m[i](last)
		}

		return func(req *http.Request) (resp *http.Response, err error) {
			return last(req)
		}
	}
}

func noOpsMiddleware() middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			return next(req)
		}
	}
}

func requestIDMiddleware() middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			if req.Header.Get(HeaderRequestID) == "" {
				req.Header.Set(HeaderRequestID, uuid.NewString())
			}
			return next(req)
		}
	}
}

func loggingMiddleware() middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			start := time.Now()
			resp, err = next(req)
			entry := log.WithContext(req.Context()).WithFields(log.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"request_id": req.Header.Get(HeaderRequestID),
				"elapsed":    time.Since(start).String(),
			})
			if err != nil {
				entry.WithError(err).Debug("outbound call failed")
				return resp, err
			}
			entry.WithField("status", resp.StatusCode).Debug("outbound call")
			return resp, err
		}
	}
}

func observerMiddleware(obs Observer) middleware {
	return func(next httpCommandFunc) httpCommandFunc {
		return func(req *http.Request) (resp *http.Response, err error) {
			start := time.Now()
			resp, err = next(req)
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			obs(req.Method, status, time.Since(start))
			return resp, err
		}
	}
}
