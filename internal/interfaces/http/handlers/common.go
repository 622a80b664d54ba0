// Package handlers implements the HTTP endpoints of the tracker API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// maxBodyBytes bounds request bodies.  Rendered request text is the largest
// payload the API accepts.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps an error to its HTTP status through the error code table.
// Server-side failures are logged and masked.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", logging.Err(err), logging.String("code", code.String()))
		writeJSON(w, status, ErrorResponse{
			Code:    code.String(),
			Message: errors.DefaultMessageForCode(code),
		})
		return
	}

	resp := ErrorResponse{Code: code.String(), Message: err.Error()}
	var ae *errors.AppError
	if errors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.InvalidParam("request body is required")
		}
		return errors.InvalidParam("invalid request body").WithDetail(err.Error())
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(field, s string) (time.Time, error) {
	if t, err := common.ParseDate(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.InvalidParam("invalid " + field).
			WithDetail("expected " + common.DateLayout + " or RFC 3339, got " + strconv.Quote(s))
	}
	return t.UTC(), nil
}

// queryDate returns the named date parameter, or fallback when absent.
func queryDate(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	return parseDate(name, v)
}

// queryInt returns the named integer parameter, or fallback when absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.InvalidParam("invalid " + name).WithDetail(strconv.Quote(v))
	}
	return n, nil
}

// parsePage reads limit and offset.  Clamping is left to the service.
func parsePage(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// splitList splits a comma separated query value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

//Personal.AI order the ending
