// Package handler is the thin HTTP layer over the donation lifecycle
// engine. It delegates to the service without embedding business logic so
// transport concerns stay isolated.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"givetrack/internal/donation/models"
	"givetrack/internal/platform/middleware"
	id "givetrack/pkg/domain"
	dErrors "givetrack/pkg/domain-errors"
	"givetrack/pkg/platform/httputil"
)

// Service defines the engine operations the handler needs.
type Service interface {
	Create(ctx context.Context, donorID id.UserID, fields models.DonationFields) (*models.Donation, error)
	Update(ctx context.Context, donationID id.DonationID, actorID id.UserID, fields models.DonationFields) (*models.Donation, error)
	Delete(ctx context.Context, donationID id.DonationID, actorID id.UserID) error
	Get(ctx context.Context, donationID id.DonationID) (*models.Donation, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Donation, int, error)
	Apply(ctx context.Context, donationID id.DonationID, actorID id.UserID) (*models.Candidacy, error)
	Withdraw(ctx context.Context, donationID id.DonationID, actorID id.UserID) error
	ListCandidates(ctx context.Context, donationID id.DonationID, actorID id.UserID) ([]*models.Candidacy, error)
	ChooseReceiver(ctx context.Context, donationID id.DonationID, actorID id.UserID, receiverID id.UserID) (*models.Donation, error)
	CancelReceiving(ctx context.Context, donationID id.DonationID, actorID id.UserID) (*models.Donation, error)
	UpdateProgress(ctx context.Context, donationID id.DonationID, actorID id.UserID, updates []models.FlagUpdate) (*models.Donation, models.Summary, error)
	SignalReturn(ctx context.Context, donationID id.DonationID, actorID id.UserID, reason string) (*models.Donation, error)
	ConfirmReturn(ctx context.Context, donationID id.DonationID, actorID id.UserID) (*models.Donation, error)
	GetProgress(ctx context.Context, donationID id.DonationID, actorID id.UserID) (models.Summary, error)
	DonationHistory(ctx context.Context, donationID id.DonationID) ([]*models.EditHistoryEntry, error)
	ProfileHistory(ctx context.Context, profileID id.UserID, actorID id.UserID) ([]*models.EditHistoryEntry, error)
}

// Handler handles donation endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the donation routes. The caller has already installed the
// platform middleware chain, auth included.
func (h *Handler) Register(r chi.Router) {
	r.Route("/donations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{donationID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
			r.Get("/history", h.handleHistory)
			r.Post("/apply", h.handleApply)
			r.Delete("/candidacy", h.handleWithdraw)
			r.Get("/candidates", h.handleListCandidates)
			r.Post("/choose-receiver", h.handleChooseReceiver)
			r.Post("/cancel-receiving", h.handleCancelReceiving)
			r.Patch("/progress", h.handleUpdateProgress)
			r.Get("/progress", h.handleGetProgress)
			r.Post("/signal-return", h.handleSignalReturn)
			r.Post("/confirm-return", h.handleConfirmReturn)
		})
	})
	r.Get("/profiles/{profileID}/history", h.handleProfileHistory)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)

	var req donationFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.service.Create(ctx, actorID, req.toFields())
	if err != nil {
		h.writeServiceError(ctx, w, "create donation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDonationResponse(d, actorID))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)

	f, err := listFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	items, total, err := h.service.List(ctx, f)
	if err != nil {
		h.writeServiceError(ctx, w, "list donations", err)
		return
	}

	f = f.Normalize()
	resp := listResponse{Items: make([]donationResponse, 0, len(items)), Total: total, Page: f.Page, Limit: f.Limit}
	for _, d := range items {
		resp.Items = append(resp.Items, toDonationResponse(d, actorID))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Get(ctx, donationID)
	if err != nil {
		h.writeServiceError(ctx, w, "get donation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d, middleware.GetUserID(ctx)))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req donationFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actorID := middleware.GetUserID(ctx)
	d, err := h.service.Update(ctx, donationID, actorID, req.toFields())
	if err != nil {
		h.writeServiceError(ctx, w, "update donation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d, actorID))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, donationID, middleware.GetUserID(ctx)); err != nil {
		h.writeServiceError(ctx, w, "delete donation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.DonationHistory(ctx, donationID)
	if err != nil {
		h.writeServiceError(ctx, w, "donation history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponses(entries))
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Apply(ctx, donationID, middleware.GetUserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "apply for donation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, candidacyResponse{
		DonationID:  c.DonationID.String(),
		ApplicantID: c.ApplicantID.String(),
		CreatedAt:   c.CreatedAt,
	})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Withdraw(ctx, donationID, middleware.GetUserID(ctx)); err != nil {
		h.writeServiceError(ctx, w, "withdraw candidacy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListCandidates(ctx, donationID, middleware.GetUserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "list candidates", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCandidacyResponses(list))
}

func (h *Handler) handleChooseReceiver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req chooseReceiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	receiverID, err := id.ParseUserID(req.ReceiverID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "receiver_id is not a valid user ID"))
		return
	}

	actorID := middleware.GetUserID(ctx)
	d, err := h.service.ChooseReceiver(ctx, donationID, actorID, receiverID)
	if err != nil {
		h.writeServiceError(ctx, w, "choose receiver", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d, actorID))
}

func (h *Handler) handleCancelReceiving(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actorID := middleware.GetUserID(ctx)
	d, err := h.service.CancelReceiving(ctx, donationID, actorID)
	if err != nil {
		h.writeServiceError(ctx, w, "cancel receiving", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d, actorID))
}

func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req progressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actorID := middleware.GetUserID(ctx)
	d, summary, err := h.service.UpdateProgress(ctx, donationID, actorID, req.toUpdates())
	if err != nil {
		h.writeServiceError(ctx, w, "update progress", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"donation": toDonationResponse(d, actorID),
		"progress": summary,
	})
}

func (h *Handler) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.GetProgress(ctx, donationID, middleware.GetUserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "get progress", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleSignalReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req signalReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actorID := middleware.GetUserID(ctx)
	d, err := h.service.SignalReturn(ctx, donationID, actorID, req.Reason)
	if err != nil {
		h.writeServiceError(ctx, w, "signal return", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d, actorID))
}

func (h *Handler) handleConfirmReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := donationIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actorID := middleware.GetUserID(ctx)
	d, err := h.service.ConfirmReturn(ctx, donationID, actorID)
	if err != nil {
		h.writeServiceError(ctx, w, "confirm return", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDonationResponse(d, actorID))
}

func (h *Handler) handleProfileHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profileID, err := id.ParseUserID(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.ProfileHistory(ctx, profileID, middleware.GetUserID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "profile history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponses(entries))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "operation failed",
			"op", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to "+op))
		return
	}
	h.logger.WarnContext(ctx, "request rejected",
		"op", op,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
	httputil.WriteError(w, err)
}

func donationIDFromURL(r *http.Request) (id.DonationID, error) {
	return id.ParseDonationID(chi.URLParam(r, "donationID"))
}

func listFilterFromQuery(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	f := models.ListFilter{
		City:  q.Get("city"),
		State: q.Get("state"),
	}
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if raw := q.Get("category"); raw != "" {
		category := models.Category(raw)
		if !category.IsValid() {
			return f, dErrors.New(dErrors.CodeBadRequest, "unknown category: "+raw)
		}
		f.Category = &category
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return f, dErrors.New(dErrors.CodeBadRequest, "page must be a positive integer")
		}
		f.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return f, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer")
		}
		f.Limit = limit
	}
	return f, nil
}
