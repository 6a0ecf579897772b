package chat

import (
	"fmt"

	"github.com/knowyourrights/kyr/internal/client"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Fixed texts appended by the orchestrator.
const (
	TextChatError     = "Sorry, I encountered an error connecting to the server."
	TextAnalyzeError  = "Sorry, I encountered an error processing your document."
	TextAnalyzeLeadIn = "I've analyzed your document. Here is the risk assessment:"
)

// UploadText is the user entry recorded for a document upload.
func UploadText(filename string) string {
	return fmt.Sprintf("Uploaded for analysis: %s", filename)
}

// TimestampLayout formats Message.Timestamp as local hours and minutes.
const TimestampLayout = "15:04"

// Message is one entry of the conversation log. Messages are never modified
// after they are appended.
type Message struct {
	ID      string
	Role    Role
	Content string
	Sources []client.Source
	// Analysis is set on the assistant reply to a successful upload.
	Analysis  *client.Analysis
	Timestamp string
	// ReplyTo is the ID of the user entry this assistant entry resolves.
	ReplyTo string
	// Failed marks the fixed-text error replies.
	Failed bool
}

// IsWelcome reports whether m is the synthetic greeting.
func (m Message) IsWelcome() bool {
	return m.ID == welcomeID
}

const welcomeID = "welcome"

func welcomeMessage(c Category, ts string) Message {
	return Message{
		ID:        welcomeID,
		Role:      RoleAssistant,
		Content:   WelcomeText(c),
		Timestamp: ts,
	}
}
