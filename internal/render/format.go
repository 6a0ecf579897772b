package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knowyourrights/kyr/internal/chat"
	"github.com/knowyourrights/kyr/internal/client"
)

// UntitledSession is shown for sessions without a title.
const UntitledSession = "Untitled Conversation"

// Message renders one log entry with its header, body, sources and analysis.
func (r *Renderer) Message(m chat.Message) string {
	var b strings.Builder

	who := "🤖 Assistant"
	if m.Role == chat.RoleUser {
		who = "🧑 You"
	}
	if m.Failed {
		who = "❌ " + strings.TrimPrefix(who, "🤖 ")
	}
	fmt.Fprintf(&b, "%s  %s\n", who, m.Timestamp)

	if m.Role == chat.RoleUser {
		b.WriteString(r.Strip(m.Content))
	} else {
		b.WriteString(r.Markdown(m.Content))
	}

	if len(m.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(r.Sources(m.Sources))
	}
	if m.Analysis != nil {
		b.WriteString("\n\n")
		b.WriteString(r.Analysis(m.Analysis))
	}
	return b.String()
}

// Sources renders the citation list of a reply.
func (r *Renderer) Sources(sources []client.Source) string {
	var b strings.Builder
	b.WriteString("Sources:")
	for i, s := range sources {
		title := r.Strip(s.Title)
		if title == "" {
			title = s.URL
		}
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, title)
		if s.Type != "" {
			fmt.Fprintf(&b, " (%s)", s.Type)
		}
		if s.URL != "" && s.URL != title {
			fmt.Fprintf(&b, "\n      %s", s.URL)
		}
	}
	return b.String()
}

// ScoreBand classifies an overall score: 80 and above is "good", 50 and
// above is "fair", anything lower is "poor".
func ScoreBand(score float64) string {
	switch {
	case score >= 80:
		return "good"
	case score >= 50:
		return "fair"
	default:
		return "poor"
	}
}

// Analysis renders a contract risk assessment.
func (r *Renderer) Analysis(a *client.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📄 Contract Analysis  score %s/100 (%s)\n",
		strconv.FormatFloat(a.OverallScore, 'f', -1, 64), ScoreBand(a.OverallScore))
	if s := strings.TrimSpace(r.Strip(a.AssessmentSummary)); s != "" {
		fmt.Fprintf(&b, "\n  %q\n", s)
	}

	if len(a.AreasOfConcern) > 0 {
		b.WriteString("\n⚠️  Areas of Concern\n")
		for _, c := range a.AreasOfConcern {
			level := c.RiskLevel
			if level == "" {
				level = "Low"
			}
			fmt.Fprintf(&b, "  [%s Risk] %q\n", level, r.Strip(c.Clause))
			if c.Explanation != "" {
				fmt.Fprintf(&b, "      %s\n", r.Strip(c.Explanation))
			}
			if c.Recommendation != "" {
				fmt.Fprintf(&b, "      Recommendation: %s\n", r.Strip(c.Recommendation))
			}
		}
	}

	if len(a.CompliantTerms) > 0 {
		b.WriteString("\n✅ Compliant Terms\n")
		for _, t := range a.CompliantTerms {
			fmt.Fprintf(&b, "  %s %s", r.bullet, r.Strip(t.Term))
			if t.Details != "" {
				fmt.Fprintf(&b, ": %s", r.Strip(t.Details))
			}
			b.WriteByte('\n')
		}
	}

	if len(a.MissingClauses) > 0 {
		b.WriteString("\n❔ Missing Standard Clauses\n")
		for _, c := range a.MissingClauses {
			fmt.Fprintf(&b, "  %s %s\n", r.bullet, r.Strip(c))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// Sessions renders a numbered list of sessions, marking current with "*".
func (r *Renderer) Sessions(sessions []client.SessionSummary, current string) string {
	if len(sessions) == 0 {
		return "No recent chats."
	}
	var b strings.Builder
	for i, s := range sessions {
		mark := " "
		if s.ID == current {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %2d. %s", mark, i+1, r.SessionTitle(s))
		if !s.CreatedAt.IsZero() {
			fmt.Fprintf(&b, "  %s", s.CreatedAt.Local().Format(time.DateOnly))
		}
		if s.Category != "" {
			fmt.Fprintf(&b, "  [%s]", chat.Category(s.Category).Label())
		}
		fmt.Fprintf(&b, "\n      %s\n", s.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SessionTitle returns the display title of s.
func (r *Renderer) SessionTitle(s client.SessionSummary) string {
	if t := strings.TrimSpace(r.Strip(s.Title)); t != "" {
		return t
	}
	return UntitledSession
}
