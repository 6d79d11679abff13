package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database model for a registered account. Pending OTP state for
// signup verification and password reset lives directly on the row; a NULL
// pair means no code is outstanding for that purpose.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID           uuid.UUID  `bun:"user_id,pk,type:uuid"`
	FullName         string     `bun:"full_name,notnull"`
	Email            string     `bun:"email,notnull,unique"`
	PasswordHash     string     `bun:"password_hash,notnull"`
	IsVerified       bool       `bun:"is_verified,notnull,default:false"`
	OTP              *string    `bun:"otp"`
	OTPCreatedAt     *time.Time `bun:"otp_created_at"`
	ResetOTP         *string    `bun:"reset_otp"`
	ResetOTPCreated  *time.Time `bun:"reset_otp_created_at"`
	CreatedAt        time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Bot is the database model for a user-authored chatbot persona.
type Bot struct {
	bun.BaseModel `bun:"table:bots,alias:b"`

	BotID        uuid.UUID `bun:"bot_id,pk,type:uuid"`
	UserID       string    `bun:"user_id,notnull"`
	Name         string    `bun:"name,notnull"`
	Bio          string    `bun:"bio"`
	FirstMessage string    `bun:"first_message"`
	Situation    string    `bun:"situation"`
	BackStory    string    `bun:"back_story"`
	Personality  string    `bun:"personality"`
	ChattingWay  string    `bun:"chatting_way"`
	TypeOfBot    string    `bun:"type_of_bot"`
	Privacy      string    `bun:"privacy,notnull"`
	AvatarBase64 *string   `bun:"avatar_base64"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ChatTurn is one message/response pair in a conversation. ChatID is derived
// from the owning user and bot, so one conversation exists per pair. Rows are
// never updated after insert; a conversation reset deletes them in bulk.
type ChatTurn struct {
	bun.BaseModel `bun:"table:chats,alias:c"`

	MessageID       uuid.UUID `bun:"message_id,pk,type:uuid"`
	ChatID          string    `bun:"chat_id,notnull"`
	UserID          string    `bun:"user_id,notnull"`
	BotID           string    `bun:"bot_id,notnull"`
	Message         string    `bun:"message"`
	Response        string    `bun:"response"`
	IsSystemMessage bool      `bun:"is_system_message,notnull,default:false"`
	BotAvatarBase64 *string   `bun:"bot_avatar_base64"`
	Timestamp       time.Time `bun:"timestamp,notnull,default:current_timestamp"`
}
