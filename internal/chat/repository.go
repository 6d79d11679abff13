package chat

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/companion-labs/companion-api/internal/database"
)

// Repository handles chat transcript persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one turn to the transcript.
func (r *Repository) Insert(ctx context.Context, turn *Turn) error {
	dbTurn := &database.ChatTurn{
		MessageID:       turn.MessageID,
		ChatID:          turn.ChatID,
		UserID:          turn.UserID,
		BotID:           turn.BotID,
		Message:         turn.Message,
		Response:        turn.Response,
		IsSystemMessage: turn.IsSystemMessage,
		BotAvatarBase64: turn.BotAvatarBase64,
		Timestamp:       turn.Timestamp,
	}

	if _, err := r.db.NewInsert().
		Model(dbTurn).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert chat turn: %w", err)
	}

	return nil
}

// ListByChatID returns a conversation's turns ordered by timestamp ascending.
func (r *Repository) ListByChatID(ctx context.Context, chatID string) ([]*Turn, error) {
	var dbTurns []*database.ChatTurn
	err := r.db.NewSelect().
		Model(&dbTurns).
		Where("chat_id = ?", chatID).
		Order("timestamp ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list chat turns: %w", err)
	}

	turns := make([]*Turn, 0, len(dbTurns))
	for _, dbt := range dbTurns {
		turns = append(turns, &Turn{
			MessageID:       dbt.MessageID,
			ChatID:          dbt.ChatID,
			UserID:          dbt.UserID,
			BotID:           dbt.BotID,
			Message:         dbt.Message,
			Response:        dbt.Response,
			IsSystemMessage: dbt.IsSystemMessage,
			BotAvatarBase64: dbt.BotAvatarBase64,
			Timestamp:       dbt.Timestamp,
		})
	}

	return turns, nil
}

// DeleteByChatID removes a conversation's turns and reports how many went.
func (r *Repository) DeleteByChatID(ctx context.Context, chatID string) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*database.ChatTurn)(nil)).
		Where("chat_id = ?", chatID).
		Exec(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to delete chat turns: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
