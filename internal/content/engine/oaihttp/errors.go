package oaihttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// HTTPError is a non-2xx reply from the completions endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
}

func newHTTPError(status int, raw []byte) *HTTPError {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &env) == nil {
		msg = strings.TrimSpace(env.Error.Message)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return &HTTPError{StatusCode: status, Message: msg}
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Message == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d: %s", e.StatusCode, e.Message)
}

// CredentialRejected reports whether the key itself was refused or exhausted.
func (e *HTTPError) CredentialRejected() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return false
}
