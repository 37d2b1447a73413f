// Package httperr 将领域错误映射为 HTTP 状态码。
package httperr

import (
	"errors"
	"net/http"

	"github.com/zhouzirui/whispers/backend/internal/service/chat"
	"github.com/zhouzirui/whispers/backend/internal/service/companion"
	"github.com/zhouzirui/whispers/backend/internal/service/gamification"
	"github.com/zhouzirui/whispers/backend/internal/service/journal"
	"github.com/zhouzirui/whispers/backend/internal/store"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, journal.ErrMemoryNotFound),
		errors.Is(err, gamification.ErrBadgeNotFound),
		errors.Is(err, gamification.ErrQuestNotFound),
		errors.Is(err, gamification.ErrMilestoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrPersonaNotFound),
		errors.Is(err, companion.ErrEmptyMessage),
		errors.Is(err, gamification.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write replies with the mapped status and the error text. Internal errors
// are not echoed to the client.
func Write(w http.ResponseWriter, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	utils.RespondError(w, status, msg)
}
