package client

import (
	"bytes"
	"encoding/json"
	"time"
)

// Source is a citation attached to an assistant reply.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	// Type is "Document" or "Web".
	Type string `json:"type"`
}

// SessionSummary is one entry of the server's recent-sessions list.
type SessionSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
	Category  string    `json:"category,omitempty"`
}

// TranscriptEntry is one stored message of a session.
type TranscriptEntry struct {
	ID        FlexID    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at,omitempty"`
}

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	Message  string `json:"message"`
	Category string `json:"category"`
	// SessionID is sent as null when empty.
	SessionID    string `json:"-"`
	UseWebSearch bool   `json:"use_web_search"`
}

// MarshalJSON encodes an empty SessionID as null.
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	var sid *string
	if r.SessionID != "" {
		sid = &r.SessionID
	}
	return json.Marshal(struct {
		Message      string  `json:"message"`
		Category     string  `json:"category"`
		SessionID    *string `json:"session_id"`
		UseWebSearch bool    `json:"use_web_search"`
	}{r.Message, r.Category, sid, r.UseWebSearch})
}

// ChatResponse is the server's reply to a chat turn.
type ChatResponse struct {
	Response  string   `json:"response"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}

// CompliantTerm is a contract term found to be acceptable.
type CompliantTerm struct {
	Term    string `json:"term"`
	Details string `json:"details"`
}

// Concern is a contract clause flagged as risky.
type Concern struct {
	Clause         string `json:"clause"`
	RiskLevel      string `json:"risk_level"`
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
}

// Analysis is the contract risk assessment. The service owns its semantics;
// Raw keeps the exact payload for callers that need fields not modeled here.
type Analysis struct {
	OverallScore      float64         `json:"overall_score"`
	AssessmentSummary string          `json:"assessment_summary"`
	CompliantTerms    []CompliantTerm `json:"compliant_terms"`
	AreasOfConcern    []Concern       `json:"areas_of_concern"`
	MissingClauses    []string        `json:"missing_clauses"`
	Raw               json.RawMessage `json:"-"`
}

// Timestamp accepts RFC 3339 as well as the naive ISO-8601 strings the
// service emits for database timestamps. A null or empty value is the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// FlexID is an identifier the server may encode as a string or a number.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}
