package util

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	hferrors "github.com/hobbyfarm/examdesk/pkg/errors"
)

type HTTPContent struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type HTTPError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type HTTPMessage struct {
	Success bool      `json:"success"`
	Error   HTTPError `json:"error"`
}

func writeJSON(w http.ResponseWriter, httpStatus int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		glog.Errorf("error writing response body: %v", err)
	}
}

// ReturnHTTPContent writes data inside a success envelope. A nil data is
// written as JSON null, which is how "not found" probes answer.
func ReturnHTTPContent(w http.ResponseWriter, r *http.Request, httpStatus int, data any) {
	writeJSON(w, httpStatus, HTTPContent{
		Success: true,
		Data:    data,
	})
}

func ReturnHTTPMessage(w http.ResponseWriter, r *http.Request, httpStatus int, code string, message string, details map[string]any) {
	writeJSON(w, httpStatus, HTTPMessage{
		Success: false,
		Error: HTTPError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// ReturnHTTPError answers with the domain error found in err, or with a
// generic internal error when err carries none.
func ReturnHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	ee, ok := hferrors.AsExamdeskError(err)
	if !ok {
		glog.Errorf("unexpected error serving %s %s: %v", r.Method, r.URL.Path, err)
		ee = hferrors.NewInternal("Unexpected error")
	}
	ReturnHTTPMessage(w, r, ee.Status, ee.Code, ee.Message, ee.Details)
}

func StringPtr(s string) *string {
	return &s
}

func IntPtr(i int) *int {
	return &i
}

// OptionalString returns the value of raw if it is a JSON string and nil for
// anything else, null and absent included.
func OptionalString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}
