package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/macrolens/tracker/internal/domain"
	"github.com/macrolens/tracker/internal/usecase"
	"go.uber.org/zap"
)

// Services bundles the usecases the handlers delegate to
type Services struct {
	Barcode *usecase.BarcodeService
	Search  *usecase.SearchService
	Foods   *usecase.FoodService
	Logs    *usecase.LogService
	Pairing *usecase.PairingService
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	barcode *usecase.BarcodeService
	search  *usecase.SearchService
	foods   *usecase.FoodService
	logs    *usecase.LogService
	pairing *usecase.PairingService
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		barcode: services.Barcode,
		search:  services.Search,
		foods:   services.Foods,
		logs:    services.Logs,
		pairing: services.Pairing,
		logger:  logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "macrolens-tracker",
		"version": "1.0.0",
	})
}

// GetFoodByBarcode resolves a barcode through the local store and the external sources
func (h *Handler) GetFoodByBarcode(c *gin.Context) {
	food, err := h.barcode.Resolve(c.Request.Context(), c.Param("barcode"), userIDFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

// SearchFoods merges local matches with government previews
func (h *Handler) SearchFoods(c *gin.Context) {
	foods, err := h.search.Search(c.Request.Context(), c.Query("q"), userIDFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// CreateFood persists a preview or a user-entered food, reusing an existing row when one matches
func (h *Handler) CreateFood(c *gin.Context) {
	var food domain.Food
	if err := c.ShouldBindJSON(&food); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	saved, err := h.foods.Persist(c.Request.Context(), &food, userIDFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// LogFood adds a food to the caller's daily log
func (h *Handler) LogFood(c *gin.Context) {
	var req usecase.LogFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.logs.LogFood(c.Request.Context(), userIDFrom(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// LogMeal adds one of the caller's meals to the daily log
func (h *Handler) LogMeal(c *gin.Context) {
	var req usecase.LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.logs.LogMeal(c.Request.Context(), userIDFrom(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// UpdateLog changes the servings and/or the food of a log entry
func (h *Handler) UpdateLog(c *gin.Context) {
	var req usecase.LogEntryUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	entry, err := h.logs.UpdateEntry(c.Request.Context(), userIDFrom(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type pairingRequestBody struct {
	DeviceName string `json:"device_name"`
	DeviceType string `json:"device_type"`
	DeviceInfo string `json:"device_info"`
}

// PairingRequest issues a pairing code to an unauthenticated device
func (h *Handler) PairingRequest(c *gin.Context) {
	var body pairingRequestBody
	// the body is optional
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
	}

	ticket, err := h.pairing.Request(c.Request.Context(), c.ClientIP(), domain.DeviceMetadata{
		Name: strings.TrimSpace(body.DeviceName),
		Type: strings.TrimSpace(body.DeviceType),
		Info: strings.TrimSpace(body.DeviceInfo),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// PairingStatus is polled by the device with its pairing token
func (h *Handler) PairingStatus(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		return
	}

	status, err := h.pairing.Status(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

type pairingClaimBody struct {
	Code string `json:"code" binding:"required"`
}

// PairingClaim links the device behind a code to the signed-in user
func (h *Handler) PairingClaim(c *gin.Context) {
	var body pairingClaimBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.pairing.Claim(c.Request.Context(), userIDFrom(c), body.Code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired code"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"linked": true})
}

// ListDevices lists the caller's paired devices
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.pairing.ListDevices(c.Request.Context(), userIDFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if devices == nil {
		devices = []*domain.DeviceToken{}
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// RevokeDevice disables one of the caller's devices
func (h *Handler) RevokeDevice(c *gin.Context) {
	if err := h.pairing.RevokeDevice(c.Request.Context(), userIDFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
