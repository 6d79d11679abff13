package bot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/companion-labs/companion-api/internal/logging"
)

type fakeStore struct {
	bots map[uuid.UUID]*Bot
}

func newFakeStore() *fakeStore {
	return &fakeStore{bots: make(map[uuid.UUID]*Bot)}
}

func (f *fakeStore) Create(_ context.Context, ownerID string, fields Fields) (*Bot, error) {
	b := &Bot{
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
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.bots[b.BotID] = b
	return b, nil
}

func (f *fakeStore) Get(_ context.Context, botID uuid.UUID) (*Bot, error) {
	b, ok := f.bots[botID]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListPublic(_ context.Context) ([]*Bot, error) {
	var out []*Bot
	for _, b := range f.bots {
		if b.Privacy == PrivacyPublic {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]*Bot, error) {
	var out []*Bot
	for _, b := range f.bots {
		if b.UserID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, botID uuid.UUID, fields Fields) error {
	b, ok := f.bots[botID]
	if !ok {
		return ErrNotFound
	}
	b.Name = fields.Name
	b.Bio = fields.Bio
	b.FirstMessage = fields.FirstMessage
	b.Situation = fields.Situation
	b.BackStory = fields.BackStory
	b.Personality = fields.Personality
	b.ChattingWay = fields.ChattingWay
	b.TypeOfBot = fields.TypeOfBot
	b.Privacy = fields.Privacy
	if fields.AvatarBase64 != nil && *fields.AvatarBase64 != "" {
		b.AvatarBase64 = fields.AvatarBase64
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, botID uuid.UUID) error {
	if _, ok := f.bots[botID]; !ok {
		return ErrNotFound
	}
	delete(f.bots, botID)
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, logging.NewLogger(true))
}

func validFields() Fields {
	return Fields{
		Name:        "Luna",
		Bio:         "A thoughtful companion",
		Personality: "warm and curious",
		Privacy:     PrivacyPublic,
	}
}

func TestCreateAssignsID(t *testing.T) {
	svc := newTestService(newFakeStore())

	created, err := svc.Create(context.Background(), "user-1", validFields())

	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.BotID)
	require.Equal(t, "user-1", created.UserID)
	require.Equal(t, "Luna", created.Name)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, "", validFields())
	require.ErrorIs(t, err, ErrOwnerRequired)

	fields := validFields()
	fields.Name = ""
	_, err = svc.Create(ctx, "user-1", fields)
	require.ErrorIs(t, err, ErrNameRequired)

	fields = validFields()
	fields.Privacy = "friends-only"
	_, err = svc.Create(ctx, "user-1", fields)
	require.ErrorIs(t, err, ErrInvalidPrivacy)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner", validFields())
	require.NoError(t, err)

	fields := validFields()
	fields.Bio = "rewritten"

	err = svc.Update(ctx, created.BotID, "intruder", fields)
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Equal(t, "A thoughtful companion", store.bots[created.BotID].Bio)

	err = svc.Update(ctx, created.BotID, "owner", fields)
	require.NoError(t, err)
	require.Equal(t, "rewritten", store.bots[created.BotID].Bio)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner", validFields())
	require.NoError(t, err)

	err = svc.Delete(ctx, created.BotID, "intruder")
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Contains(t, store.bots, created.BotID)

	err = svc.Delete(ctx, created.BotID, "owner")
	require.NoError(t, err)
	require.NotContains(t, store.bots, created.BotID)
}

func TestUpdateUnknownBot(t *testing.T) {
	svc := newTestService(newFakeStore())

	err := svc.Update(context.Background(), uuid.New(), "owner", validFields())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateKeepsAvatarWhenOmitted(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	avatar := "aGVsbG8="
	fields := validFields()
	fields.AvatarBase64 = &avatar
	created, err := svc.Create(ctx, "owner", fields)
	require.NoError(t, err)

	// An update without an avatar must not blank the stored one.
	update := validFields()
	require.NoError(t, svc.Update(ctx, created.BotID, "owner", update))
	require.NotNil(t, store.bots[created.BotID].AvatarBase64)
	require.Equal(t, avatar, *store.bots[created.BotID].AvatarBase64)

	// An explicit empty string is treated the same as omitted.
	empty := ""
	update.AvatarBase64 = &empty
	require.NoError(t, svc.Update(ctx, created.BotID, "owner", update))
	require.Equal(t, avatar, *store.bots[created.BotID].AvatarBase64)
}

func TestListOwnedRequiresOwner(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.ListOwned(ctx, "")
	require.ErrorIs(t, err, ErrOwnerRequired)

	_, err = svc.Create(ctx, "owner", validFields())
	require.NoError(t, err)

	private := validFields()
	private.Privacy = PrivacyPrivate
	_, err = svc.Create(ctx, "other", private)
	require.NoError(t, err)

	owned, err := svc.ListOwned(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, owned, 1)

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	require.Equal(t, "owner", public[0].UserID)
}
