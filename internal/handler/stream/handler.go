package stream

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/whispers/backend/internal/handler/httperr"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	chatService "github.com/zhouzirui/whispers/backend/internal/service/chat"
	companionService "github.com/zhouzirui/whispers/backend/internal/service/companion"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// Handler runs one exchange and reports its stages as Server-Sent Events.
type Handler struct {
	chatSvc      *chatService.Service
	companionSvc *companionService.Service
	log          *logger.Logger
}

func New(chatSvc *chatService.Service, companionSvc *companionService.Service, log *logger.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, companionSvc: companionSvc, log: log.With("handler", "stream")}
}

// StreamResponse represents one SSE payload.
type StreamResponse struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId,omitempty"`
	Content        string `json:"content,omitempty"`
	Data           any    `json:"data,omitempty"`
	Finished       bool   `json:"finished,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{conversationID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	message := strings.TrimSpace(r.URL.Query().Get("message"))
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	if _, err := h.chatSvc.Conversation(r.Context(), conversationID); err != nil {
		httperr.Write(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	utils.SetupSSEHeaders(w)

	send := func(resp StreamResponse) {
		resp.ConversationID = conversationID
		if err := utils.SendSSEEvent(w, flusher, resp.Event, resp); err != nil {
			h.log.Warn("sse write failed", "event", resp.Event, "error", err)
		}
	}

	send(StreamResponse{Event: "start"})

	result, err := h.companionSvc.Send(r.Context(), conversationID, message)
	if err != nil {
		h.log.Error("exchange failed", "conversation", conversationID, "error", err)
		msg := err.Error()
		if httperr.Status(err) == http.StatusInternalServerError {
			msg = "internal error"
		}
		send(StreamResponse{Event: "error", Error: msg})
		return
	}

	send(StreamResponse{Event: "message", Content: result.CompanionMessage.Text, Data: result.CompanionMessage})
	send(StreamResponse{Event: "emotion", Content: result.Emotion, Data: map[string]any{
		"emotion":   result.Emotion,
		"mood":      result.Mood,
		"memoryTag": result.MemoryTag,
		"fallback":  result.Fallback,
	}})
	send(StreamResponse{Event: "rewards", Data: map[string]any{
		"seedsEarned":   result.SeedsEarned,
		"newBadges":     result.NewBadges,
		"affirmation":   result.Affirmation,
		"comfortItem":   result.ComfortItem,
		"journalMemory": result.JournalMemory,
	}})
	send(StreamResponse{Event: "end", Finished: true})
}
