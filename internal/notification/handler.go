package notification

import (
	"net/http"
	"strconv"

	"courtbooking/internal/pkg/jwt"
	"courtbooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store *Store
	hub   *Hub
	jwt   *jwt.Service
}

func NewHandler(store *Store, hub *Hub, jwtService *jwt.Service) *Handler {
	return &Handler{store: store, hub: hub, jwt: jwtService}
}

// RegisterRoutes mounts the in-app endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/notifications", h.List)
	protected.POST("/notifications/:id/read", h.MarkRead)
}

// GET /notifications?limit=&offset=
func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit := 20
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = min(v, 100)
		}
	}
	offset := 0
	if s := c.Query("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	items, unread, err := h.store.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"notifications": items,
		"unread_count":  unread,
	})
}

// POST /notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.CustomError(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}
	if err := h.store.MarkRead(c.Request.Context(), id, userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}

// GET /ws/notifications?token=JWT
//
// Browsers cannot set headers on a websocket handshake, so the token travels
// in the query string.
func (h *Handler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Token is required")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	h.hub.Serve(c.Writer, c.Request, claims.UserID)
}
