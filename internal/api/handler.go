package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/healthwatch/go-health-alerts/internal/models"
	"github.com/healthwatch/go-health-alerts/internal/monitor"
	"github.com/healthwatch/go-health-alerts/internal/repository"
)

// AlertCreator is the manual-alert entry point the handler delegates to.
type AlertCreator interface {
	CreateManualAlert(ctx context.Context, p monitor.ManualAlertParams) (string, error)
}

type Handler struct {
	store   repository.Store
	creator AlertCreator
}

func NewHandler(store repository.Store, creator AlertCreator) *Handler {
	return &Handler{
		store:   store,
		creator: creator,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/alerts", h.getActiveAlerts)
	r.POST("/api/alerts", h.createAlert)
	r.POST("/api/alerts/:id/revoke", h.revokeAlert)
	r.GET("/api/alerts/:id/deliveries", h.getDeliveries)
	r.POST("/api/subscriptions", h.subscribe)
	r.DELETE("/api/subscriptions", h.unsubscribe)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type alertResponse struct {
	ID                 string   `json:"id"`
	Type               string   `json:"alert_type"`
	Severity           string   `json:"severity"`
	Region             string   `json:"region"`
	Disease            string   `json:"disease"`
	Message            string   `json:"message"`
	Recommendations    []string `json:"recommendations"`
	CreatedAt          string   `json:"created_at"`
	ExpiresAt          string   `json:"expires_at"`
	AffectedPopulation int      `json:"affected_population"`
	Sources            []string `json:"sources"`
	Status             string   `json:"status"`
}

func toAlertResponse(a *models.Alert) alertResponse {
	return alertResponse{
		ID:                 a.ID,
		Type:               string(a.Type),
		Severity:           string(a.Severity),
		Region:             a.Region,
		Disease:            a.Disease,
		Message:            a.Message,
		Recommendations:    a.Recommendations,
		CreatedAt:          a.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:          a.ExpiresAt.UTC().Format(time.RFC3339),
		AffectedPopulation: a.AffectedPopulation,
		Sources:            a.Sources,
		Status:             string(a.EffectiveStatus(time.Now())),
	}
}

func (h *Handler) getActiveAlerts(c *gin.Context) {
	alerts, err := h.store.ActiveAlerts(c.Request.Context(), c.Query("region"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch alerts",
		})
		return
	}

	resp := make([]alertResponse, 0, len(alerts))
	for i := range alerts {
		resp = append(resp, toAlertResponse(&alerts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"alerts": resp})
}

type createAlertRequest struct {
	AlertType       string   `json:"alert_type" binding:"required"`
	Severity        string   `json:"severity" binding:"required"`
	Region          string   `json:"region" binding:"required"`
	Disease         string   `json:"disease" binding:"required"`
	Message         string   `json:"message" binding:"required"`
	Recommendations []string `json:"recommendations"`
}

func (h *Handler) createAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alertType, err := models.ParseAlertType(req.AlertType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	severity, err := models.ParseSeverity(req.Severity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.creator.CreateManualAlert(c.Request.Context(), monitor.ManualAlertParams{
		Type:            alertType,
		Severity:        severity,
		Region:          req.Region,
		Disease:         req.Disease,
		Message:         req.Message,
		Recommendations: req.Recommendations,
	})
	if err != nil && id == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) revokeAlert(c *gin.Context) {
	err := h.store.RevokeAlert(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

type deliveryResponse struct {
	AlertID     string `json:"alert_id"`
	PhoneNumber string `json:"phone_number"`
	Channel     string `json:"channel"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	DeliveredAt string `json:"delivered_at"`
}

func (h *Handler) getDeliveries(c *gin.Context) {
	records, err := h.store.DeliveriesByAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch deliveries"})
		return
	}

	resp := make([]deliveryResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, deliveryResponse{
			AlertID:     r.AlertID,
			PhoneNumber: r.PhoneNumber,
			Channel:     string(r.Channel),
			Status:      string(r.Status),
			Error:       r.Error,
			DeliveredAt: r.DeliveredAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": resp})
}

type subscribeRequest struct {
	PhoneNumber string   `json:"phone_number" binding:"required"`
	Region      string   `json:"region" binding:"required"`
	AlertTypes  []string `json:"alert_types" binding:"required,min=1"`
	Language    string   `json:"language"`
	Channel     string   `json:"channel"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	types := make([]models.AlertType, 0, len(req.AlertTypes))
	for _, raw := range req.AlertTypes {
		t, err := models.ParseAlertType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		types = append(types, t)
	}

	channel := models.ChannelSMS
	if req.Channel != "" {
		var err error
		if channel, err = models.ParseChannel(req.Channel); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	language := req.Language
	if language == "" {
		language = "english"
	}

	sub := &models.Subscription{
		PhoneNumber:  req.PhoneNumber,
		Region:       req.Region,
		AlertTypes:   types,
		Language:     language,
		Channel:      channel,
		Active:       true,
		SubscribedAt: time.Now(),
	}
	if err := h.store.UpsertSubscription(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": true})
}

func (h *Handler) unsubscribe(c *gin.Context) {
	phone := c.Query("phone_number")
	region := c.Query("region")
	if phone == "" || region == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number and region are required"})
		return
	}

	err := h.store.DeactivateSubscription(c.Request.Context(), phone, region)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unsubscribed": true})
}
