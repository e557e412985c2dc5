package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// CallHandler serves on-demand telephony snapshots. The same data flows
// continuously over WebSocket; these endpoints exist for initial page
// loads and non-realtime consumers.
type CallHandler struct {
	telephony    ports.TelephonyGateway
	errorHandler *ErrorHandler
}

// NewCallHandler creates a new call handler
func NewCallHandler(telephony ports.TelephonyGateway, errorHandler *ErrorHandler) *CallHandler {
	return &CallHandler{telephony: telephony, errorHandler: errorHandler}
}

// HandleQueue returns the live call queue snapshot
func (h *CallHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	stats, err := h.telephony.QueueStats(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewUpstreamError(err, "telephony"))
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// HandleAgentActivity returns the live agent activity snapshot
func (h *CallHandler) HandleAgentActivity(w http.ResponseWriter, r *http.Request) {
	agents, err := h.telephony.AgentActivity(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewUpstreamError(err, "telephony"))
		return
	}
	WriteList(w, agents)
}

// HandleTicket returns the details of one support ticket
func (h *CallHandler) HandleTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid ticket ID"))
		return
	}

	ticket, err := h.telephony.Ticket(r.Context(), ticketID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewUpstreamError(err, "telephony"))
		return
	}
	WriteJSON(w, http.StatusOK, ticket)
}

// HandleAgentCSAT returns the satisfaction summary for one agent
func (h *CallHandler) HandleAgentCSAT(w http.ResponseWriter, r *http.Request) {
	agentID, err := strconv.ParseInt(chi.URLParam(r, "agentID"), 10, 64)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid agent ID"))
		return
	}

	summary, err := h.telephony.CSATScores(r.Context(), agentID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewUpstreamError(err, "telephony"))
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
