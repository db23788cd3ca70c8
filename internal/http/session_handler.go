package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/domain/model"
	"github.com/guttosm/bundle-service/internal/i18n"
	"github.com/guttosm/bundle-service/internal/middleware"
	"github.com/guttosm/bundle-service/internal/service"
)

// SessionHandler serves selection sessions: the server-side owner of one
// shopper's selection, re-quoted after every change.
type SessionHandler struct {
	sessions       service.SessionService
	loggingService service.LoggingService
}

// NewSessionHandler creates a SessionHandler. loggingService may be nil.
func NewSessionHandler(sessions service.SessionService, loggingService service.LoggingService) *SessionHandler {
	return &SessionHandler{sessions: sessions, loggingService: loggingService}
}

// OpenSession handles POST /api/bundles/:id/sessions.
//
// @Summary      Open a selection session
// @Description  Starts an empty selection for the bundle and returns it with its first quote.
// @Tags         Sessions
// @Produce      json
// @Param        id path string true "Bundle id"
// @Success      201 {object} dto.SuccessResponse{data=dto.SessionResponse}
// @Failure      404 {object} dto.ErrorResponse "Bundle not found"
// @Failure      503 {object} dto.ErrorResponse "Catalog unavailable"
// @Security     BearerAuth
// @Router       /api/bundles/{id}/sessions [post]
func (h *SessionHandler) OpenSession(c *gin.Context) {
	builder := NewResponseBuilder(c)
	middleware.SetAuditContext(c, c.Param("id"), "")

	view, err := h.sessions.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}

	middleware.SetAuditContext(c, "", view.Session.ID)
	middleware.AuditLog(h.loggingService, c, model.AuditActionSessionOpen, "Selection session opened", nil)
	builder.Created(sessionResponse(c, view))
}

// GetSession handles GET /api/sessions/:id.
//
// @Summary      Get a selection session
// @Description  Returns the current selection re-quoted against the current bundle.
// @Tags         Sessions
// @Produce      json
// @Param        id path string true "Session id"
// @Success      200 {object} dto.SuccessResponse{data=dto.SessionResponse}
// @Failure      404 {object} dto.ErrorResponse "Session not found or expired"
// @Security     BearerAuth
// @Router       /api/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	builder := NewResponseBuilder(c)
	middleware.SetAuditContext(c, "", c.Param("id"))

	view, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		builder.ServiceError(err)
		return
	}
	middleware.SetAuditContext(c, view.Session.BundleID, "")
	builder.OK(sessionResponse(c, view))
}

// ApplyActions handles POST /api/sessions/:id/actions.
//
// @Summary      Change a selection
// @Description  Applies the actions in order. If one fails, none is kept. Returns the new selection with its quote.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session id"
// @Param        request body dto.ActionsRequest true "Actions to apply"
// @Success      200 {object} dto.SuccessResponse{data=dto.SessionResponse}
// @Failure      400 {object} dto.ErrorResponse "Invalid request body"
// @Failure      404 {object} dto.ErrorResponse "Session not found or expired"
// @Failure      422 {object} dto.ErrorResponse "An action cannot be applied"
// @Security     BearerAuth
// @Router       /api/sessions/{id}/actions [post]
func (h *SessionHandler) ApplyActions(c *gin.Context) {
	builder := NewResponseBuilder(c)
	sessionID := c.Param("id")
	middleware.SetAuditContext(c, "", sessionID)

	req, err := bindJSON[dto.ActionsRequest](c)
	if err != nil {
		builder.BadRequest(err)
		return
	}

	view, err := h.sessions.Apply(c.Request.Context(), sessionID, req.Actions...)
	if err != nil {
		middleware.AuditLogError(h.loggingService, c, model.AuditActionSessionAction, "Selection change rejected", err, map[string]interface{}{
			"actions": len(req.Actions),
		})
		builder.ServiceError(err)
		return
	}

	middleware.SetAuditContext(c, view.Session.BundleID, "")
	middleware.AuditLog(h.loggingService, c, model.AuditActionSessionAction, "Selection changed", map[string]interface{}{
		"actions":          len(req.Actions),
		"version":          view.Session.Version,
		"unit_price_cents": view.Quote.UnitPriceCents,
		"valid":            view.Quote.Valid,
	})
	builder.OKWithMessage(i18n.SuccessKeySessionUpdated, sessionResponse(c, view))
}

// SubmitSession handles POST /api/sessions/:id/cart.
//
// @Summary      Add a session's selection to the cart
// @Description  Submits the session's selection. A second submission of the same session while one is running is refused with 409. The session is kept, so the shopper can continue editing.
// @Tags         Cart
// @Produce      json
// @Param        id path string true "Session id"
// @Param        Idempotency-Key header string false "Idempotency key for request deduplication"
// @Success      200 {object} dto.SuccessResponse{data=model.SubmitResult}
// @Failure      404 {object} dto.ErrorResponse "Session not found or expired"
// @Failure      409 {object} dto.ErrorResponse "Submission already in progress"
// @Failure      422 {object} dto.ErrorResponse "Selection breaks the bundle rules"
// @Failure      502 {object} dto.ErrorResponse "Prepare or cart endpoint failed"
// @Failure      504 {object} dto.ErrorResponse "Timeout"
// @Security     BearerAuth
// @Router       /api/sessions/{id}/cart [post]
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	builder := NewResponseBuilder(c)
	middleware.SetAuditContext(c, "", c.Param("id"))

	result, err := h.sessions.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AuditLogError(h.loggingService, c, model.AuditActionCartSubmit, "Cart submission failed", err, nil)
		builder.ServiceError(err)
		return
	}

	middleware.AuditLog(h.loggingService, c, model.AuditActionCartSubmit, "Cart submitted", map[string]interface{}{
		"line_items":   len(result.LineItems),
		"redirect":     string(result.Redirect),
		"has_discount": result.DiscountCode != "",
	})
	builder.OKWithMessage(i18n.SuccessKeyCartSubmitted, result)
}

// CloseSession handles DELETE /api/sessions/:id.
//
// @Summary      Discard a selection session
// @Tags         Sessions
// @Param        id path string true "Session id"
// @Success      204 "Session discarded"
// @Failure      404 {object} dto.ErrorResponse "Session not found or expired"
// @Security     BearerAuth
// @Router       /api/sessions/{id} [delete]
func (h *SessionHandler) CloseSession(c *gin.Context) {
	middleware.SetAuditContext(c, "", c.Param("id"))

	if err := h.sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		NewResponseBuilder(c).ServiceError(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func sessionResponse(c *gin.Context, view *model.SessionView) dto.SessionResponse {
	return dto.SessionResponse{
		Session:    view.Session,
		Quote:      view.Quote,
		Violations: violationDetails(c, view.Quote.Violations),
	}
}
