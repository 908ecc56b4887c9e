package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fieldcollect/collection-engine/internal/domain"
	"github.com/fieldcollect/collection-engine/internal/service"
	"github.com/fieldcollect/collection-engine/pkg/response"
)

type CollectionHandler struct {
	service   *service.CollectionService
	validator *validator.Validate
}

func NewCollectionHandler(service *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{
		service:   service,
		validator: validator.New(),
	}
}

// RecordPayment handles POST /api/v1/loans/{loanId}/payments
func (h *CollectionHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	entry, err := h.service.RecordPayment(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, entry)
}

// RecordVisit handles POST /api/v1/loans/{loanId}/visits
func (h *CollectionHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.RecordVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	entry, err := h.service.RecordVisit(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, entry)
}

// AmendEntry handles PUT /api/v1/collections/{entryId}
func (h *CollectionHandler) AmendEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(mux.Vars(r)["entryId"])
	if err != nil {
		response.BadRequest(w, "invalid entry id", err)
		return
	}

	var request domain.AmendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	if err := h.service.AmendEntry(r.Context(), entryID, &request); err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"entry_id": entryID.String()})
}

// DeleteEntry handles DELETE /api/v1/collections/{entryId}
func (h *CollectionHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(mux.Vars(r)["entryId"])
	if err != nil {
		response.BadRequest(w, "invalid entry id", err)
		return
	}

	if err := h.service.DeleteEntry(r.Context(), entryID); err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"entry_id": entryID.String()})
}
