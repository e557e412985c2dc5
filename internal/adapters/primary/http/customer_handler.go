package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/insuredesk-backend/internal/core/errors"
	"github.com/lorrc/insuredesk-backend/internal/core/ports"
)

// CustomerHandler serves the customer 360 view backed by the CRM.
type CustomerHandler struct {
	crm          ports.CRMGateway
	errorHandler *ErrorHandler
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(crm ports.CRMGateway, errorHandler *ErrorHandler) *CustomerHandler {
	return &CustomerHandler{crm: crm, errorHandler: errorHandler}
}

// Customer360Response is the composite customer view
type Customer360Response struct {
	Profile *domain.CustomerProfile `json:"profile"`
	Policy  *domain.PolicyDetails   `json:"policy"`
	Claims  []domain.Claim          `json:"claims"`
	Billing []domain.Payment        `json:"billing"`
}

// HandleCustomer360 assembles the full profile for one policy number.
// The profile is mandatory; policy, claims and billing are best-effort
// so a partial CRM outage still renders the header card.
func (h *CustomerHandler) HandleCustomer360(w http.ResponseWriter, r *http.Request) {
	if h.crm == nil || !h.crm.Connected() {
		h.errorHandler.Handle(w, r, apperrors.ErrCRMNotConnected)
		return
	}

	policyNumber := chi.URLParam(r, "policyNumber")
	ctx := r.Context()

	profile, err := h.crm.CustomerProfile(ctx, policyNumber)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	response := Customer360Response{
		Profile: profile,
		Claims:  []domain.Claim{},
		Billing: []domain.Payment{},
	}

	policy, err := h.crm.PolicyDetails(ctx, policyNumber)
	if err == nil {
		response.Policy = policy

		if claims, err := h.crm.Claims(ctx, policy.ID); err == nil {
			response.Claims = claims
		}
		if billing, err := h.crm.BillingHistory(ctx, policy.ID); err == nil {
			response.Billing = billing
		}
	}

	WriteJSON(w, http.StatusOK, response)
}
