package render

import (
	"strings"
	"testing"
	"time"

	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/client"
)

func TestMarkdown(t *testing.T) {
	r := New()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"emphasis", "Hello **world** and _you_", "Hello world and you"},
		{"heading", "# Title\n\nBody text", "Title\n\nBody text"},
		{"soft break", "line1\nline2", "line1\nline2"},
		{"bullets", "- one\n- two", "• one\n• two"},
		{"ordered", "1. a\n2. b", "1. a\n2. b"},
		{"link", "See [site](https://x.org)", "See site (https://x.org)"},
		{"autolink", "<https://x.org>", "https://x.org"},
		{"code block", "```\nif a < b {}\n```", "    if a < b {}"},
		{"quote", "> quoted", "> quoted"},
		{"inline html", "Hi <b>there</b>", "Hi there"},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", "a | b\n-----\n1 | 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Markdown(tt.in); got != tt.want {
				t.Errorf("Markdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarkdown_Bullet(t *testing.T) {
	r := New(WithBullet("-"))
	if got := r.Markdown("* x"); got != "- x" {
		t.Errorf("got %q", got)
	}
}

func TestStrip(t *testing.T) {
	r := New()
	got := r.Strip(`<script>alert(1)</script><p>Tom & Jerry</p>`)
	if got != "Tom & Jerry" {
		t.Errorf("Strip() = %q", got)
	}
}

func TestMessage(t *testing.T) {
	r := New()

	user := r.Message(chat.Message{Role: chat.RoleUser, Content: "What is **minimum** wage?", Timestamp: "14:30"})
	if !strings.HasPrefix(user, "🧑 You  14:30\n") || !strings.Contains(user, "**minimum**") {
		t.Errorf("user message = %q", user)
	}

	reply := r.Message(chat.Message{
		Role:      chat.RoleAssistant,
		Content:   "It is **set** by law.",
		Timestamp: "14:31",
		Sources: []client.Source{
			{Title: "Employment Act", Type: "Document"},
			{Title: "Gazette", URL: "https://example.org/g", Type: "Web"},
		},
	})
	for _, want := range []string{
		"🤖 Assistant  14:31",
		"It is set by law.",
		"Sources:",
		"[1] Employment Act (Document)",
		"[2] Gazette (Web)",
		"https://example.org/g",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}

	failed := r.Message(chat.Message{Role: chat.RoleAssistant, Content: chat.TextChatError, Failed: true})
	if !strings.HasPrefix(failed, "❌ Assistant") {
		t.Errorf("failed message = %q", failed)
	}
}

func TestAnalysis(t *testing.T) {
	r := New()
	out := r.Analysis(&client.Analysis{
		OverallScore:      72.5,
		AssessmentSummary: "Mostly fair.",
		AreasOfConcern: []client.Concern{
			{Clause: "Termination without notice", RiskLevel: "High", Explanation: "Breaks the notice rule.", Recommendation: "Add 30 days."},
			{Clause: "Overtime"},
		},
		CompliantTerms: []client.CompliantTerm{{Term: "Annual leave", Details: "21 days"}},
		MissingClauses: []string{"Grievance procedure"},
	})
	for _, want := range []string{
		"score 72.5/100 (fair)",
		`"Mostly fair."`,
		`[High Risk] "Termination without notice"`,
		"Recommendation: Add 30 days.",
		`[Low Risk] "Overtime"`,
		"• Annual leave: 21 days",
		"Missing Standard Clauses",
		"• Grievance procedure",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("analysis missing %q:\n%s", want, out)
		}
	}
}

func TestAnalysis_EmptySections(t *testing.T) {
	out := New().Analysis(&client.Analysis{OverallScore: 90})
	if strings.Contains(out, "Missing") || strings.Contains(out, "Concern") {
		t.Errorf("empty sections rendered:\n%s", out)
	}
}

func TestScoreBand(t *testing.T) {
	tests := map[float64]string{100: "good", 80: "good", 79.9: "fair", 50: "fair", 49: "poor", 0: "poor"}
	for score, want := range tests {
		if got := ScoreBand(score); got != want {
			t.Errorf("ScoreBand(%v) = %q, want %q", score, got, want)
		}
	}
}

func TestSessions(t *testing.T) {
	r := New()
	if got := r.Sessions(nil, ""); got != "No recent chats." {
		t.Errorf("empty = %q", got)
	}

	out := r.Sessions([]client.SessionSummary{
		{ID: "s2", Title: "Overtime pay", CreatedAt: client.Timestamp{Time: time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)}, Category: "general"},
		{ID: "s1", Title: "  "},
	}, "s1")

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "   1. Overtime pay  2024-03-09  [General Employment]" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[2] != "*  2. Untitled Conversation" {
		t.Errorf("line 2 = %q", lines[2])
	}
	if strings.TrimSpace(lines[3]) != "s1" {
		t.Errorf("line 3 = %q", lines[3])
	}
}
