package joinrequest

import (
	"net/http"
	"strconv"

	"courtbooking/internal/middleware"
	"courtbooking/internal/pkg/response"
	"courtbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ResolveRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept decline"`
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/bookings/:id/join-requests", h.RequestJoin)
	protected.GET("/bookings/:id/join-requests", h.List)
	protected.POST("/bookings/:id/join-requests/:request_id/resolve", h.Resolve)
}

func (h *Handler) RequestJoin(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	jr, created, err := h.service.RequestJoin(c.Request.Context(), bookingID, middleware.ActorFrom(c).UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"join_request": jr})
}

func (h *Handler) List(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), bookingID, middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"join_requests": items})
}

func (h *Handler) Resolve(c *gin.Context) {
	bookingID, ok := parseID(c, "id")
	if !ok {
		return
	}
	requestID, ok := parseID(c, "request_id")
	if !ok {
		return
	}
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "decision must be accept or decline", errs)
		return
	}

	jr, err := h.service.ResolveJoinRequest(c.Request.Context(), bookingID, requestID, middleware.ActorFrom(c).UserID, Decision(req.Decision))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"join_request": jr})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}
