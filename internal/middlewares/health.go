package middlewares

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/util"
)

// Check reports whether a dependency is usable.
type Check func() error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

//RuntimeHealthCheck runs every named check and answers 503 when one fails
func RuntimeHealthCheck(checks map[string]Check) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "All OK", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK

		for name, check := range checks {
			if err := check(); err != nil {
				log.WithContext(r.Context()).WithError(err).Warnf("health check %s failed", name)
				resp.Checks[name] = err.Error()
				resp.Status = "Degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		util.WithBodyAndStatus(resp, status, w)
	}
}
