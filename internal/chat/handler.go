package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/companion-labs/companion-api/internal/httputil"
	"github.com/companion-labs/companion-api/internal/logging"
)

// Handler contains HTTP handlers for the chat endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AskRequest represents the chat turn request body
type AskRequest struct {
	UserID          string `json:"user_id"`
	BotID           string `json:"bot_id"`
	Message         string `json:"message"`
	IsSystemMessage bool   `json:"is_system_message"`
	Response        string `json:"response,omitempty"`
	MessageID       string `json:"message_id,omitempty"`
}

// AskResponse carries the generated reply
type AskResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

// SystemStoredResponse confirms a stored system turn
type SystemStoredResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HistoryResponse carries an ordered transcript
type HistoryResponse struct {
	Status string     `json:"status"`
	Data   []TurnView `json:"data"`
}

// RestartResponse reports a cleared conversation
type RestartResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

// Ask handles one chat turn
// @Summary      Send a chat message
// @Description  Relay a message to the bot. System turns with a supplied response are stored verbatim without calling the generator.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body AskRequest true "Chat turn"
// @Success      200 {object} AskResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /chat/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid chat request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	response, err := h.service.Send(r.Context(), SendInput{
		UserID:          req.UserID,
		BotID:           req.BotID,
		Message:         req.Message,
		IsSystemMessage: req.IsSystemMessage,
		Response:        req.Response,
		MessageID:       req.MessageID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBotNotFound):
			httputil.RespondErrorWithCode(w, "Bot not found", httputil.CodeBotNotFound, http.StatusNotFound)
		case errors.Is(err, ErrUpstream):
			logger.Error("chat generation failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to generate a response", httputil.CodeUpstreamFailure, http.StatusInternalServerError)
		default:
			logger.Error("chat turn failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if req.IsSystemMessage && req.Response != "" {
		httputil.RespondJSON(w, SystemStoredResponse{Status: "success", Message: "System message stored"}, http.StatusOK)
		return
	}

	httputil.RespondJSON(w, AskResponse{Status: "success", Response: response}, http.StatusOK)
}

// History handles transcript retrieval
// @Summary      Get chat history
// @Tags         chat
// @Produce      json
// @Param        user_id query string true "User id"
// @Param        bot_id query string true "Bot id"
// @Success      200 {object} HistoryResponse
// @Router       /chat/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID := r.URL.Query().Get("user_id")
	botID := r.URL.Query().Get("bot_id")

	views, err := h.service.History(r.Context(), userID, botID)
	if err != nil {
		logger.Error("failed to load chat history", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load chat history", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, HistoryResponse{Status: "success", Data: views}, http.StatusOK)
}

// Restart handles conversation reset
// @Summary      Clear chat history
// @Description  Delete every turn of the user/bot conversation and report the removed count.
// @Tags         chat
// @Produce      json
// @Param        user_id query string true "User id"
// @Param        bot_id query string true "Bot id"
// @Success      200 {object} RestartResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /chat/restart [delete]
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID := r.URL.Query().Get("user_id")
	botID := r.URL.Query().Get("bot_id")

	deleted, err := h.service.Reset(r.Context(), userID, botID)
	if err != nil {
		logger.Error("failed to clear chat history", "error", err.Error())
		httputil.RespondErrorWithCode(w, "Failed to clear chat history", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, RestartResponse{
		Status:       "success",
		Message:      "Chat history cleared successfully",
		DeletedCount: deleted,
	}, http.StatusOK)
}
