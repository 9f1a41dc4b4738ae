// Package handler exposes the estate orchestrator over HTTP. The surface is
// a narrow JSON mapping: reads for the estate summary, conflict report and
// net value, commands for the lifecycle operations.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"urithi/internal/bequest/conflict"
	estatemodels "urithi/internal/estate/models"
	taxmodels "urithi/internal/tax/models"
	id "urithi/pkg/domain"
	dErrors "urithi/pkg/domain-errors"
	"urithi/pkg/money"
)

// EstateService is the orchestrator surface the handler maps.
type EstateService interface {
	CreateEstate(ctx context.Context, estateID id.EstateID, deceasedID id.PersonID, currency string) (*estatemodels.Estate, error)
	GetEstate(ctx context.Context, estateID id.EstateID) (*estatemodels.Estate, error)
	Activate(ctx context.Context, estateID id.EstateID) (*estatemodels.Estate, error)
	AddMember(ctx context.Context, estateID id.EstateID, member estatemodels.Member) (*estatemodels.Estate, error)
	RecordDeath(ctx context.Context, estateID id.EstateID, dateOfDeath time.Time) (*estatemodels.Estate, error)
	Unfreeze(ctx context.Context, estateID id.EstateID, reason string) (*estatemodels.Estate, error)
	ValidateBequests(ctx context.Context, estateID id.EstateID, facts conflict.Facts) (*conflict.Report, error)
	NetDistributableValue(ctx context.Context, estateID id.EstateID) (money.Money, error)
	AuthorizeDistribution(ctx context.Context, estateID id.EstateID) (money.Money, error)
}

// TaxReader reads the estate's compliance gate for the status endpoint.
type TaxReader interface {
	GetGate(ctx context.Context, estateID id.EstateID) (*taxmodels.ComplianceGate, error)
}

// Handler handles estate endpoints.
type Handler struct {
	estates EstateService
	taxes   TaxReader
	logger  *slog.Logger
}

// New creates an estate Handler.
func New(estates EstateService, taxes TaxReader, logger *slog.Logger) *Handler {
	return &Handler{estates: estates, taxes: taxes, logger: logger}
}

// Register registers the estate routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/estates", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{estateID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/activate", h.handleActivate)
			r.Post("/members", h.handleAddMember)
			r.Post("/death", h.handleRecordDeath)
			r.Post("/unfreeze", h.handleUnfreeze)
			r.Post("/validate", h.handleValidate)
			r.Get("/net", h.handleNetValue)
			r.Post("/distribution", h.handleAuthorizeDistribution)
			r.Get("/tax", h.handleTaxStatus)
		})
	})
}

type createEstateRequest struct {
	DeceasedID string `json:"deceased_id"`
	Currency   string `json:"currency"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createEstateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	deceasedID, err := id.ParsePersonID(req.DeceasedID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	estate, err := h.estates.CreateEstate(ctx, id.NewEstateID(), deceasedID, req.Currency)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusCreated, estate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	estate, err := h.estates.GetEstate(ctx, estateID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, estate)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	estate, err := h.estates.Activate(ctx, estateID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, estate)
}

type addMemberRequest struct {
	Kind          string       `json:"kind"`
	RefID         string       `json:"ref_id"`
	DeclaredValue *money.Money `json:"declared_value,omitempty"`
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	member := estatemodels.Member{
		Kind:          estatemodels.MemberKind(req.Kind),
		RefID:         req.RefID,
		DeclaredValue: req.DeclaredValue,
	}
	estate, err := h.estates.AddMember(ctx, estateID, member)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, estate)
}

type recordDeathRequest struct {
	DateOfDeath string `json:"date_of_death"`
}

func (h *Handler) handleRecordDeath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var req recordDeathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	dateOfDeath, err := time.Parse("2006-01-02", req.DateOfDeath)
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeInvalidInput, "date_of_death must be YYYY-MM-DD"))
		return
	}

	estate, err := h.estates.RecordDeath(ctx, estateID, dateOfDeath)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, estate)
}

type unfreezeRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var req unfreezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	estate, err := h.estates.Unfreeze(ctx, estateID, req.Reason)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, estate)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var facts conflict.Facts
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&facts); err != nil {
			h.writeError(ctx, w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
			return
		}
	}

	report, err := h.estates.ValidateBequests(ctx, estateID, facts)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, report)
}

type netValueResponse struct {
	EstateID string      `json:"estate_id"`
	NetValue money.Money `json:"net_value"`
}

func (h *Handler) handleNetValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	net, err := h.estates.NetDistributableValue(ctx, estateID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, netValueResponse{EstateID: estateID.String(), NetValue: net})
}

func (h *Handler) handleAuthorizeDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	net, err := h.estates.AuthorizeDistribution(ctx, estateID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, netValueResponse{EstateID: estateID.String(), NetValue: net})
}

func (h *Handler) handleTaxStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	estateID, err := h.estateID(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	gate, err := h.taxes.GetGate(ctx, estateID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, gate)
}

func (h *Handler) estateID(r *http.Request) (id.EstateID, error) {
	return id.ParseEstateID(chi.URLParam(r, "estateID"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := dErrors.CodeInternal
	message := "internal error"

	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
		switch de.Code {
		case dErrors.CodeInvalidInput:
			status = http.StatusBadRequest
		case dErrors.CodeNotFound:
			status = http.StatusNotFound
		case dErrors.CodeConflict, dErrors.CodePreconditionFailed:
			status = http.StatusConflict
		case dErrors.CodeLegalRuleViolation:
			status = http.StatusUnprocessableEntity
		}
	}
	if status == http.StatusInternalServerError && h.logger != nil {
		h.logger.ErrorContext(ctx, "request failed", "error", err)
	}
	h.writeJSONRaw(w, status, errorResponse{Code: string(code), Message: message})
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && h.logger != nil {
		h.logger.ErrorContext(ctx, "response encode failed", "error", err)
	}
}

func (h *Handler) writeJSONRaw(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
