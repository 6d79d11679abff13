package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/companion-labs/companion-api/internal/database"
)

var ErrNotFound = errors.New("bot not found")

// Repository handles bot persona persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new persona with a fresh id and timestamps.
func (r *Repository) Create(ctx context.Context, ownerID string, fields Fields) (*Bot, error) {
	now := time.Now().UTC()
	dbBot := &database.Bot{
		BotID:        uuid.New(),
		UserID:       ownerID,
		Name:         fields.Name,
		Bio:          fields.Bio,
		FirstMessage: fields.FirstMessage,
		Situation:    fields.Situation,
		BackStory:    fields.BackStory,
		Personality:  fields.Personality,
		ChattingWay:  fields.ChattingWay,
		TypeOfBot:    fields.TypeOfBot,
		Privacy:      fields.Privacy,
		AvatarBase64: fields.AvatarBase64,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.db.NewInsert().
		Model(dbBot).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return mapDBBotToModel(dbBot), nil
}

// Get retrieves a persona by id
func (r *Repository) Get(ctx context.Context, botID uuid.UUID) (*Bot, error) {
	dbBot := new(database.Bot)
	err := r.db.NewSelect().
		Model(dbBot).
		Where("bot_id = ?", botID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}

	return mapDBBotToModel(dbBot), nil
}

// ListPublic returns all personas whose privacy is public.
func (r *Repository) ListPublic(ctx context.Context) ([]*Bot, error) {
	var dbBots []*database.Bot
	err := r.db.NewSelect().
		Model(&dbBots).
		Where("privacy = ?", PrivacyPublic).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list public bots: %w", err)
	}

	return mapDBBotsToModels(dbBots), nil
}

// ListByOwner returns all personas owned by the given user.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*Bot, error) {
	var dbBots []*database.Bot
	err := r.db.NewSelect().
		Model(&dbBots).
		Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list bots by owner: %w", err)
	}

	return mapDBBotsToModels(dbBots), nil
}

// Update merges the given fields into an existing persona. The avatar column
// is only touched when a new non-empty value is supplied.
func (r *Repository) Update(ctx context.Context, botID uuid.UUID, fields Fields) error {
	q := r.db.NewUpdate().
		Model((*database.Bot)(nil)).
		Set("name = ?", fields.Name).
		Set("bio = ?", fields.Bio).
		Set("first_message = ?", fields.FirstMessage).
		Set("situation = ?", fields.Situation).
		Set("back_story = ?", fields.BackStory).
		Set("personality = ?", fields.Personality).
		Set("chatting_way = ?", fields.ChattingWay).
		Set("type_of_bot = ?", fields.TypeOfBot).
		Set("privacy = ?", fields.Privacy).
		Set("updated_at = ?", time.Now().UTC()).
		Where("bot_id = ?", botID)

	if fields.AvatarBase64 != nil && *fields.AvatarBase64 != "" {
		q = q.Set("avatar_base64 = ?", *fields.AvatarBase64)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a persona by id
func (r *Repository) Delete(ctx context.Context, botID uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Bot)(nil)).
		Where("bot_id = ?", botID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete bot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBBotToModel(dbb *database.Bot) *Bot {
	return &Bot{
		BotID:        dbb.BotID,
		UserID:       dbb.UserID,
		Name:         dbb.Name,
		Bio:          dbb.Bio,
		FirstMessage: dbb.FirstMessage,
		Situation:    dbb.Situation,
		BackStory:    dbb.BackStory,
		Personality:  dbb.Personality,
		ChattingWay:  dbb.ChattingWay,
		TypeOfBot:    dbb.TypeOfBot,
		Privacy:      dbb.Privacy,
		AvatarBase64: dbb.AvatarBase64,
		CreatedAt:    dbb.CreatedAt,
		UpdatedAt:    dbb.UpdatedAt,
	}
}

func mapDBBotsToModels(dbBots []*database.Bot) []*Bot {
	bots := make([]*Bot, 0, len(dbBots))
	for _, dbb := range dbBots {
		bots = append(bots, mapDBBotToModel(dbb))
	}
	return bots
}
