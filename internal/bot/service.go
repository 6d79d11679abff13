package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/companion-labs/companion-api/internal/logging"
)

var (
	ErrPermissionDenied = errors.New("you don't have permission to modify this bot")
	ErrOwnerRequired    = errors.New("user_id is required")
	ErrNameRequired     = errors.New("name is required")
	ErrInvalidPrivacy   = errors.New("privacy must be public or private")
)

// Store is the persona repository consumed by the service.
type Store interface {
	Create(ctx context.Context, ownerID string, fields Fields) (*Bot, error)
	Get(ctx context.Context, botID uuid.UUID) (*Bot, error)
	ListPublic(ctx context.Context) ([]*Bot, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Bot, error)
	Update(ctx context.Context, botID uuid.UUID, fields Fields) error
	Delete(ctx context.Context, botID uuid.UUID) error
}

// Service enforces validation and ownership over the persona store.
type Service struct {
	store  Store
	logger *logging.Logger
}

func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create stores a new persona owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, fields Fields) (*Bot, error) {
	if err := validate(ownerID, fields); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, ownerID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	s.logger.Info("bot created", "bot_id", created.BotID, "owner", ownerID)
	return created, nil
}

// Get returns a persona by id.
func (s *Service) Get(ctx context.Context, botID uuid.UUID) (*Bot, error) {
	return s.store.Get(ctx, botID)
}

// ListPublic returns every persona marked public.
func (s *Service) ListPublic(ctx context.Context) ([]*Bot, error) {
	return s.store.ListPublic(ctx)
}

// ListOwned returns the personas belonging to ownerID.
func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]*Bot, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	return s.store.ListByOwner(ctx, ownerID)
}

// Update merges fields into the persona after checking the actor owns it.
func (s *Service) Update(ctx context.Context, botID uuid.UUID, actorID string, fields Fields) error {
	if err := validate(actorID, fields); err != nil {
		return err
	}

	existing, err := s.store.Get(ctx, botID)
	if err != nil {
		return err
	}

	if existing.UserID != actorID {
		return ErrPermissionDenied
	}

	return s.store.Update(ctx, botID, fields)
}

// Delete removes the persona after checking the actor owns it.
func (s *Service) Delete(ctx context.Context, botID uuid.UUID, actorID string) error {
	if actorID == "" {
		return ErrOwnerRequired
	}

	existing, err := s.store.Get(ctx, botID)
	if err != nil {
		return err
	}

	if existing.UserID != actorID {
		return ErrPermissionDenied
	}

	return s.store.Delete(ctx, botID)
}

func validate(ownerID string, fields Fields) error {
	if ownerID == "" {
		return ErrOwnerRequired
	}
	if fields.Name == "" {
		return ErrNameRequired
	}
	if fields.Privacy != PrivacyPublic && fields.Privacy != PrivacyPrivate {
		return ErrInvalidPrivacy
	}
	return nil
}
