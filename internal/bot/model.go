package bot

import (
	"time"

	"github.com/google/uuid"
)

// Privacy values accepted for a persona.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
)

// Bot is a user-authored chatbot persona. The persona fields feed directly
// into the prompt the chat relay sends to the generator.
type Bot struct {
	BotID        uuid.UUID `json:"bot_id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Bio          string    `json:"bio"`
	FirstMessage string    `json:"first_message"`
	Situation    string    `json:"situation"`
	BackStory    string    `json:"back_story"`
	Personality  string    `json:"personality"`
	ChattingWay  string    `json:"chatting_way"`
	TypeOfBot    string    `json:"type_of_bot"`
	Privacy      string    `json:"privacy"`
	AvatarBase64 *string   `json:"avatar_base64,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fields carries the mutable persona attributes for create and update calls.
type Fields struct {
	Name         string
	Bio          string
	FirstMessage string
	Situation    string
	BackStory    string
	Personality  string
	ChattingWay  string
	TypeOfBot    string
	Privacy      string
	AvatarBase64 *string
}
