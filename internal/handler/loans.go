package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/fieldcollect/collection-engine/internal/domain"
	"github.com/fieldcollect/collection-engine/internal/service"
	customError "github.com/fieldcollect/collection-engine/pkg/errors"
	"github.com/fieldcollect/collection-engine/pkg/response"
	"github.com/fieldcollect/collection-engine/pkg/utils"
)

type LoanHandler struct {
	service   *service.CollectionService
	validator *validator.Validate
}

func NewLoanHandler(service *service.CollectionService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	loan, schedule, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, &domain.CreateLoanResponse{
		Loan:     loan,
		Schedule: domain.NewScheduleResponse(loan.LoanID, schedule).Schedule,
	})
}

// GetSchedule handles GET /api/v1/loans/{loanId}/schedule
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	schedule, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.NewScheduleResponse(loanID, schedule))
}

// UpdateTerms handles PUT /api/v1/loans/{loanId}/terms
func (h *LoanHandler) UpdateTerms(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.UpdateTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	schedule, err := h.service.UpdateTerms(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, domain.NewScheduleResponse(loanID, schedule))
}

// GetArrears handles GET /api/v1/loans/{loanId}/arrears?as_of=YYYY-MM-DD
func (h *LoanHandler) GetArrears(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	asOf := utils.DateOnly(time.Now().UTC())
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := utils.ParseDate(raw)
		if err != nil {
			response.BadRequest(w, "invalid as_of date", err)
			return
		}
		asOf = parsed
	}

	days, err := h.service.DaysOverdue(r.Context(), loanID, asOf)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, &domain.ArrearsResponse{
		LoanID:      loanID,
		AsOf:        utils.FormatDate(asOf),
		DaysOverdue: days,
	})
}

// GetOutstanding handles GET /api/v1/loans/{loanId}/outstanding
func (h *LoanHandler) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	outstanding, err := h.service.Outstanding(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, &domain.OutstandingResponse{
		LoanID:      loanID,
		Outstanding: outstanding,
	})
}

// writeBusinessError maps domain errors onto HTTP statuses.
func writeBusinessError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customError.ErrLoanNotFound), errors.Is(err, customError.ErrEntryNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, customError.ErrLoanAlreadyExists):
		response.Conflict(w, "loan already exists", err)
	case errors.Is(err, customError.ErrInvalidTerms),
		errors.Is(err, customError.ErrInvalidPaymentAmount),
		errors.Is(err, customError.ErrEmptySchedule):
		response.BadRequest(w, "invalid input", err)
	case errors.Is(err, customError.ErrLoanClosed), errors.Is(err, customError.ErrEntryNotAmendable):
		response.UnprocessableEntity(w, "operation not allowed", err)
	default:
		response.InternalServerError(w, "internal error", err)
	}
}
