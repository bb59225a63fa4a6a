package dictapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/kosha-admin/kosha/internal/platform/httpx"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dictapi: status %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the shared sentinel errors so callers can use
// errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return httpx.ErrNotFound
	case http.StatusConflict:
		return httpx.ErrDuplicate
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return httpx.ErrValidation
	case http.StatusUnauthorized:
		return httpx.ErrUnauthorized
	case http.StatusForbidden:
		return httpx.ErrForbidden
	}
	if e.Status >= http.StatusInternalServerError {
		return httpx.ErrUpstream
	}
	return nil
}

// newAPIError extracts a human message from the body. The backend answers
// errors as a single-entry object such as {"detail": "..."} or
// {"error": "..."}; the first value is the message.
func newAPIError(status int, body []byte) *APIError {
	msg := strings.TrimSpace(firstValue(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

func firstValue(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || len(obj) == 0 {
		return ""
	}
	for _, key := range []string{"message", "detail", "error"} {
		if raw, ok := obj[key]; ok {
			return rawText(raw)
		}
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return rawText(obj[keys[0]])
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return strings.TrimSpace(string(raw))
}
