package handler

import (
	"context"
	"net/http"

	"github.com/fintrack/loan-engine/internal/domain"
	"github.com/fintrack/loan-engine/pkg/response"
)

// ReminderDispatcher is the batch surface the HTTP layer depends on.
type ReminderDispatcher interface {
	Dispatch(ctx context.Context) (*domain.DispatchReport, error)
}

type ReminderHandler struct {
	dispatcher ReminderDispatcher
}

func NewReminderHandler(dispatcher ReminderDispatcher) *ReminderHandler {
	return &ReminderHandler{dispatcher: dispatcher}
}

// Dispatch triggers one reminder batch. The caller is an external
// scheduler or a manual trigger; the batch itself decides what to send.
func (h *ReminderHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.dispatcher.Dispatch(r.Context())
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, report)
}
