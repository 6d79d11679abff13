package bot

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/companion-labs/companion-api/internal/httputil"
	"github.com/companion-labs/companion-api/internal/logging"
)

// Handler contains HTTP handlers for the persona endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// BotRequest is the request body shared by create and update calls.
type BotRequest struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Bio          string  `json:"bio"`
	FirstMessage string  `json:"first_message"`
	Situation    string  `json:"situation"`
	BackStory    string  `json:"back_story"`
	Personality  string  `json:"personality"`
	ChattingWay  string  `json:"chatting_way"`
	TypeOfBot    string  `json:"type_of_bot"`
	Privacy      string  `json:"privacy"`
	AvatarBase64 *string `json:"avatar_base64,omitempty"`
}

// BotMutationResponse confirms a create, update or delete.
type BotMutationResponse struct {
	Message string `json:"message"`
	BotID   string `json:"bot_id"`
}

func (r *BotRequest) fields() Fields {
	return Fields{
		Name:         r.Name,
		Bio:          r.Bio,
		FirstMessage: r.FirstMessage,
		Situation:    r.Situation,
		BackStory:    r.BackStory,
		Personality:  r.Personality,
		ChattingWay:  r.ChattingWay,
		TypeOfBot:    r.TypeOfBot,
		Privacy:      r.Privacy,
		AvatarBase64: r.AvatarBase64,
	}
}

// Create handles persona creation
// @Summary      Create a bot persona
// @Tags         bots
// @Accept       json
// @Produce      json
// @Param        request body BotRequest true "Persona fields"
// @Success      200 {object} BotMutationResponse
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /bots/createbot [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req BotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create bot request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.service.Create(r.Context(), req.UserID, req.fields())
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, BotMutationResponse{
		Message: "Bot created successfully",
		BotID:   created.BotID.String(),
	}, http.StatusOK)
}

// ListPublic handles listing public personas
// @Summary      List public bots
// @Tags         bots
// @Produce      json
// @Success      200 {array} Bot
// @Router       /bots/public [get]
func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	bots, err := h.service.ListPublic(r.Context())
	if err != nil {
		logger.Error("failed to list public bots", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list public bots", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, bots, http.StatusOK)
}

// ListMine handles listing the requester's personas
// @Summary      List my bots
// @Tags         bots
// @Produce      json
// @Param        user_id query string true "Owner user id"
// @Success      200 {array} Bot
// @Failure      400 {object} httputil.ErrorResponse
// @Router       /bots/my [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	bots, err := h.service.ListOwned(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, bots, http.StatusOK)
}

// Get handles fetching one persona
// @Summary      Get a bot
// @Tags         bots
// @Produce      json
// @Param        bot_id path string true "Bot id"
// @Success      200 {object} Bot
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /bots/{bot_id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	botID, ok := h.parseBotID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Get(r.Context(), botID)
	if err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, found, http.StatusOK)
}

// Update handles persona updates
// @Summary      Update a bot
// @Description  Merge fields into the persona. Only the owner may update; the avatar is retained when not resupplied.
// @Tags         bots
// @Accept       json
// @Produce      json
// @Param        bot_id path string true "Bot id"
// @Param        request body BotRequest true "Persona fields"
// @Success      200 {object} BotMutationResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /bots/{bot_id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	botID, ok := h.parseBotID(w, r)
	if !ok {
		return
	}

	var req BotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update bot request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.Update(r.Context(), botID, req.UserID, req.fields()); err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, BotMutationResponse{
		Message: "Bot updated successfully",
		BotID:   botID.String(),
	}, http.StatusOK)
}

// Delete handles persona deletion
// @Summary      Delete a bot
// @Description  Remove the persona. Only the owner may delete.
// @Tags         bots
// @Produce      json
// @Param        bot_id path string true "Bot id"
// @Param        user_id query string true "Acting user id"
// @Success      200 {object} BotMutationResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /bots/{bot_id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	botID, ok := h.parseBotID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), botID, r.URL.Query().Get("user_id")); err != nil {
		h.respondServiceError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, BotMutationResponse{
		Message: "Bot deleted successfully",
		BotID:   botID.String(),
	}, http.StatusOK)
}

func (h *Handler) parseBotID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	botID, err := uuid.Parse(chi.URLParam(r, "bot_id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "Bot not found", httputil.CodeBotNotFound, http.StatusNotFound)
		return uuid.Nil, false
	}
	return botID, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "Bot not found", httputil.CodeBotNotFound, http.StatusNotFound)
	case errors.Is(err, ErrPermissionDenied):
		httputil.RespondErrorWithCode(w, "You don't have permission to modify this bot", httputil.CodePermissionDenied, http.StatusForbidden)
	case errors.Is(err, ErrOwnerRequired), errors.Is(err, ErrNameRequired), errors.Is(err, ErrInvalidPrivacy):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationError, http.StatusBadRequest)
	default:
		logger.Error("bot operation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
