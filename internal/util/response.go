package util

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// ErrorBody is the JSON shape of every failed console response.
type ErrorBody struct {
	Error string `json:"error"`
}

//WithBodyAndStatus writes body as JSON with the given status. A nil body writes only the status.
func WithBodyAndStatus(body interface{}, status int, w http.ResponseWriter) {
	if body == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Error writing response body")
	}
}

//WithError writes msg in the standard error envelope
func WithError(msg string, status int, w http.ResponseWriter) {
	WithBodyAndStatus(ErrorBody{Error: msg}, status, w)
}

//DecodeJSON reads the request body into v
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
