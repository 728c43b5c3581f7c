package membership

import (
	"net/http"
	"strconv"

	"courtbooking/internal/domain"
	"courtbooking/internal/middleware"
	"courtbooking/internal/pkg/response"
	"courtbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service   *Service
	scheduler *Scheduler
}

func NewHandler(service *Service, scheduler *Scheduler) *Handler {
	return &Handler{service: service, scheduler: scheduler}
}

type ExtendRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

type PushTokenRequest struct {
	Token string `json:"token" validate:"required,max=255"`
}

type RunRequest struct {
	Date string `json:"date" validate:"omitempty,day"`
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/users/me/push-token", h.RegisterPushToken)
	protected.POST("/users/:id/membership/extend", middleware.AdminOnly(), h.Extend)
}

// RegisterInternalRoutes mounts the run trigger for an external daily timer.
func (h *Handler) RegisterInternalRoutes(internal *gin.RouterGroup) {
	internal.POST("/membership/expiry-run", h.Run)
}

func (h *Handler) Extend(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}
	var req ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "days must be positive", errs)
		return
	}

	u, err := h.service.Extend(c.Request.Context(), userID, req.Days, middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) RegisterPushToken(c *gin.Context) {
	var req PushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid push token", errs)
		return
	}
	if err := h.service.RegisterPushToken(c.Request.Context(), middleware.ActorFrom(c).UserID, req.Token); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "registered"})
}

// Run executes one expiry scan, by default for today in the membership time zone.
func (h *Handler) Run(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD", errs)
		return
	}

	day := h.service.Today()
	if req.Date != "" {
		day, _ = domain.ParseDay(req.Date)
	}
	report, ran, err := h.scheduler.RunFor(c.Request.Context(), day)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !ran {
		response.CustomError(c, http.StatusConflict, "RUN_IN_PROGRESS", "An expiry run is already in progress")
		return
	}
	response.Success(c, http.StatusOK, report)
}
