package chat

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one message/response exchange in a conversation.
type Turn struct {
	MessageID       uuid.UUID `json:"message_id"`
	ChatID          string    `json:"chat_id"`
	UserID          string    `json:"user_id"`
	BotID           string    `json:"bot_id"`
	Message         string    `json:"message"`
	Response        string    `json:"response"`
	IsSystemMessage bool      `json:"is_system_message"`
	BotAvatarBase64 *string   `json:"bot_avatar_base64,omitempty"`
	Timestamp       time.Time `json:"-"`
}

// TurnView is a Turn prepared for API responses: the timestamp is rendered
// as RFC 3339 UTC text, falling back to the current time when the stored
// value is missing.
type TurnView struct {
	Turn
	Timestamp string `json:"timestamp"`
}

// ChatID derives the conversation identifier for a user/bot pair. It is a
// pure function, so the same pair always addresses the same transcript.
func ChatID(userID, botID string) string {
	return userID + "_" + botID
}

// NewTurnView normalizes a stored turn for output.
func NewTurnView(t *Turn, now time.Time) TurnView {
	ts := t.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return TurnView{
		Turn:      *t,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
}
