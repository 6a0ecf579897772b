package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	// Detail is the server's error message, if one could be extracted.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
}

// maxDetail caps how much of a non-JSON error body is kept.
const maxDetail = 300

// serverDetail extracts a human-readable message from an error body.
// FastAPI uses {"detail": "..."} or a list of validation errors; other
// services use "message" or "error".
func serverDetail(body []byte) string {
	var env struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		switch v := env.Detail.(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		case []any:
			if len(v) > 0 {
				if m, ok := v[0].(map[string]any); ok {
					if s, ok := m["msg"].(string); ok && s != "" {
						return s
					}
					if s, ok := m["message"].(string); ok && s != "" {
						return s
					}
				}
			}
		}
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}

	s := strings.TrimSpace(string(body))
	if len(s) > maxDetail {
		cut := maxDetail
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
