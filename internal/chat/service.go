package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/companion-labs/companion-api/internal/bot"
	"github.com/companion-labs/companion-api/internal/llm"
	"github.com/companion-labs/companion-api/internal/logging"
)

var (
	ErrBotNotFound = errors.New("bot not found")
	ErrUpstream    = errors.New("upstream generation failed")
)

// The persona prompt template. Field order and phrasing follow the product's
// established prompt, which the persona authors tune against.
const promptTemplate = `
        You are an AI bot named %s with the following details:
        Personality: %s
        Situation: %s
        Backstory: %s
        Chatting Style: %s
        Your role is like a %s.

        Respond naturally, casually, like a human texting, with short one-line replies — no long paragraphs, no formal tone, just chill and real.

        Start the chat from the perspective of %s and continue accordingly.

        User: %s
        AI:
    `

// PersonaSource resolves bot personas for prompt construction.
type PersonaSource interface {
	Get(ctx context.Context, botID uuid.UUID) (*bot.Bot, error)
}

// TurnStore is the transcript repository consumed by the service.
type TurnStore interface {
	Insert(ctx context.Context, turn *Turn) error
	ListByChatID(ctx context.Context, chatID string) ([]*Turn, error)
	DeleteByChatID(ctx context.Context, chatID string) (int64, error)
}

// SendInput carries the parameters of one chat turn.
type SendInput struct {
	UserID          string
	BotID           string
	Message         string
	IsSystemMessage bool
	Response        string
	MessageID       string
}

// Service relays user messages to the generator and persists transcripts.
type Service struct {
	turns     TurnStore
	personas  PersonaSource
	generator llm.Generator
	logger    *logging.Logger
}

func NewService(turns TurnStore, personas PersonaSource, generator llm.Generator, logger *logging.Logger) *Service {
	return &Service{
		turns:     turns,
		personas:  personas,
		generator: generator,
		logger:    logger,
	}
}

// Send processes one chat turn. System turns that carry a response are
// stored verbatim and never reach the generator; everything else is prompted
// through the persona template and the generated reply is persisted.
// The returned string is the stored response text.
func (s *Service) Send(ctx context.Context, in SendInput) (string, error) {
	persona, err := s.resolveBot(ctx, in.BotID)
	if err != nil {
		return "", err
	}

	chatID := ChatID(in.UserID, in.BotID)

	turn := &Turn{
		MessageID:       s.messageID(in.MessageID),
		ChatID:          chatID,
		UserID:          in.UserID,
		BotID:           in.BotID,
		Message:         in.Message,
		BotAvatarBase64: persona.AvatarBase64,
		Timestamp:       time.Now().UTC(),
	}

	if in.IsSystemMessage && in.Response != "" {
		turn.Response = in.Response
		turn.IsSystemMessage = true
		if err := s.turns.Insert(ctx, turn); err != nil {
			return "", err
		}
		return in.Response, nil
	}

	prompt := buildPrompt(persona, in.Message)

	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	turn.Response = response
	if err := s.turns.Insert(ctx, turn); err != nil {
		return "", err
	}

	return response, nil
}

// History returns the conversation's turns in timestamp order with
// normalized textual timestamps.
func (s *Service) History(ctx context.Context, userID, botID string) ([]TurnView, error) {
	turns, err := s.turns.ListByChatID(ctx, ChatID(userID, botID))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]TurnView, 0, len(turns))
	for _, t := range turns {
		views = append(views, NewTurnView(t, now))
	}

	return views, nil
}

// Reset deletes the conversation's transcript and returns the removed count.
func (s *Service) Reset(ctx context.Context, userID, botID string) (int64, error) {
	chatID := ChatID(userID, botID)

	deleted, err := s.turns.DeleteByChatID(ctx, chatID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("chat history cleared", "chat_id", chatID, "deleted", deleted)
	return deleted, nil
}

func (s *Service) resolveBot(ctx context.Context, botID string) (*bot.Bot, error) {
	id, err := uuid.Parse(botID)
	if err != nil {
		return nil, ErrBotNotFound
	}

	persona, err := s.personas.Get(ctx, id)
	if err != nil {
		if errors.Is(err, bot.ErrNotFound) {
			return nil, ErrBotNotFound
		}
		return nil, err
	}

	return persona, nil
}

func (s *Service) messageID(supplied string) uuid.UUID {
	if supplied != "" {
		if id, err := uuid.Parse(supplied); err == nil {
			return id
		}
	}
	return uuid.New()
}

func buildPrompt(persona *bot.Bot, userMessage string) string {
	return fmt.Sprintf(promptTemplate,
		persona.Name,
		persona.Personality,
		persona.Situation,
		persona.BackStory,
		persona.ChattingWay,
		persona.TypeOfBot,
		persona.Name,
		userMessage,
	)
}
