// Lead HTTP handlers.
//
// This file exposes the lead-capture endpoints:
//   - POST /form/webhook   (idempotent intake from form frontends)
//   - GET  /leads          (list, paginated, for operators)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The webhook payload keeps the
// Spanish field names the form frontends already send (nombre, correo, …);
// translation to the internal model happens here and nowhere else.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/services"
	"github.com/tbourn/go-leads-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// LeadService defines the lead persistence operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LeadService interface {
	// CreateOrGet persists a submission if new, or returns the existing lead
	// for a duplicate delivery. created reports which case occurred.
	CreateOrGet(ctx context.Context, in services.LeadInput) (*domain.Lead, bool, error)
	// ListPage returns a page of stored leads and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Lead, int64, error)
}

// LeadSyncer mirrors newly created leads into the external task tracker.
// The sync is best-effort: it returns an outcome, never an error.
type LeadSyncer interface {
	SyncIfNew(ctx context.Context, lead *domain.Lead, created bool) services.SyncOutcome
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for lead intake and listing.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	leadSvc LeadService
	syncSvc LeadSyncer
}

// New constructs and returns a Handlers instance bound to the given services.
func New(leadSvc LeadService, syncSvc LeadSyncer) *Handlers {
	return &Handlers{leadSvc: leadSvc, syncSvc: syncSvc}
}

//
// DTOs
//

// WebhookRequest is the JSON payload posted by form frontends. Field names
// are the Spanish keys of the existing forms and are part of the wire
// contract.
type WebhookRequest struct {
	// Nombre is the lead's full name.
	Nombre string `json:"nombre" binding:"required" example:"Roman Riquelme"`
	// Correo is the lead's email address.
	Correo string `json:"correo" binding:"required,email" example:"roman@example.com"`
	// Telefono optionally carries a phone number.
	Telefono *string `json:"telefono" example:"+57 899898998"`
	// InteresesServicios lists the services the lead is interested in.
	// An empty or absent list is valid.
	InteresesServicios []string `json:"intereses_servicios" example:"diseño,riego"`
	// Mensaje optionally carries a free-form message.
	Mensaje *string `json:"mensaje" example:"Proyecto de jardín frontal"`
}

// LeadResponse is the lead resource as returned to API clients, using the
// same Spanish field names as the webhook payload.
type LeadResponse struct {
	ID                 uint      `json:"id"`
	Nombre             string    `json:"nombre"`
	Correo             string    `json:"correo"`
	Telefono           *string   `json:"telefono,omitempty"`
	InteresesServicios []string  `json:"intereses_servicios"`
	Mensaje            *string   `json:"mensaje,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListLeadsResponse wraps a page of leads and pagination information.
type ListLeadsResponse struct {
	Leads      []LeadResponse `json:"leads"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// leadResponse maps the persistence model onto the wire representation.
func leadResponse(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                 l.ID,
		Nombre:             l.Name,
		Correo:             l.Email,
		Telefono:           l.Phone,
		InteresesServicios: l.Interests(),
		Mensaje:            l.Message,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Receive a lead form submission
// @Description Persists the lead idempotently (one row per person per UTC day) and mirrors
// @Description new leads into the configured task tracker. Retried or duplicate deliveries
// @Description return the existing lead with HTTP 200 instead of creating a second row.
// @Tags        Leads
// @Accept      json
// @Produce     json
//
// @Param       X-Form-Secret  header  string  true  "Shared webhook secret"
// @Param       body           body    handlers.WebhookRequest  true  "Form submission payload"
//
// @Success     201  {object}  handlers.LeadResponse  "Lead created"
// @Success     200  {object}  handlers.LeadResponse  "Duplicate delivery; existing lead returned"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Invalid or missing secret"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /form/webhook [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload: nombre and a valid correo are required")
		return
	}
	if strings.TrimSpace(req.Nombre) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nombre must not be blank")
		return
	}

	ctx := c.Request.Context()
	lead, created, err := h.leadSvc.CreateOrGet(ctx, services.LeadInput{
		Name:      req.Nombre,
		Email:     req.Correo,
		Phone:     req.Telefono,
		Interests: req.InteresesServicios,
		Message:   req.Mensaje,
	})
	if err != nil {
		if errors.Is(err, services.ErrLeadConflictUnresolved) {
			fail(c, http.StatusInternalServerError, ErrCodeConflict, "lead conflict could not be resolved")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeLeadFailed, "could not store lead")
		return
	}

	// Best-effort mirror into the task tracker. The lead is already durable;
	// the response status below reflects persistence only.
	h.syncSvc.SyncIfNew(ctx, lead, created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, leadResponse(lead))
}

// ListLeads godoc
// @ID          listLeads
// @Summary     List captured leads (paginated)
// @Description Returns a page of stored leads, most recent first.
// @Tags        Leads
// @Produce     json
//
// @Param       X-Form-Secret  header  string  true  "Shared webhook secret"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListLeadsResponse
// @Failure     401  {object}  handlers.ErrorResponse "Invalid or missing secret"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /leads [get]
func (h *Handlers) ListLeads(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.leadSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list leads")
		return
	}

	leads := make([]LeadResponse, 0, len(items))
	for i := range items {
		leads = append(leads, leadResponse(&items[i]))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListLeadsResponse{
		Leads: leads,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}
