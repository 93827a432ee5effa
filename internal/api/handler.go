package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/reliefconnect/relief-connect/internal/broadcast"
	"github.com/reliefconnect/relief-connect/internal/live"
	"github.com/reliefconnect/relief-connect/internal/models"
	"github.com/reliefconnect/relief-connect/internal/query"
	"github.com/reliefconnect/relief-connect/internal/session"
)

type Handler struct {
	exec     *query.Executor
	view     *live.View
	local    *broadcast.Broadcaster
	sessions *session.DB
}

func NewHandler(exec *query.Executor, view *live.View, local *broadcast.Broadcaster, sessions *session.DB) *Handler {
	return &Handler{
		exec:     exec,
		view:     view,
		local:    local,
		sessions: sessions,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/alerts", h.getAlerts)
	r.GET("/api/alerts/count", h.getCount)
	r.GET("/api/alerts/stream", h.stream)
	r.PATCH("/api/alerts/:id/active", h.setActive)
	r.GET("/api/live", h.getLive)
	r.POST("/api/incidents", h.createIncident)
	r.GET("/api/lostfound", h.getLostFound)
	r.POST("/api/lostfound", h.createLostFound)
	r.POST("/api/auth/register", h.register)
	r.GET("/api/location", h.getLocation)
	r.POST("/api/location", h.saveLocation)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getAlerts(c *gin.Context) {
	res := h.exec.Execute(query.Select{
		AlertType:  c.Query("alert_type"),
		ActiveOnly: true,
		Ordered:    true,
	})
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": res.Data, "count": res.Count})
}

func (h *Handler) getCount(c *gin.Context) {
	res := h.exec.Execute(query.Count{})
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": res.Count})
}

// getLive serves the live-updates page: the polled view with its severity
// and region filters. refresh=true forces an immediate reload.
func (h *Handler) getLive(c *gin.Context) {
	if c.Query("refresh") == "true" {
		h.view.Refresh()
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts":       h.view.AlertsWith(c.Query("severity"), c.Query("region")),
		"last_updated": h.view.LastUpdated(),
		"loading":      h.view.Loading(),
	})
}

type incidentRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Location    string  `json:"location"`
	AlertType   string  `json:"alert_type"`
	Source      string  `json:"source"`
	ImageURL    string  `json:"image_url"`
	ContactInfo string  `json:"contact_info"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Notify      *bool   `json:"notify"`
}

func (h *Handler) createIncident(c *gin.Context) {
	var req incidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" || req.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and description are required"})
		return
	}
	if req.AlertType == "" {
		req.AlertType = "incident"
	}

	// Broadcasting is on unless the reporter opted out.
	notify := req.Notify == nil || *req.Notify

	res := h.exec.Execute(query.Insert{
		Record: models.Record{
			Title:       req.Title,
			Description: req.Description,
			Severity:    models.Severity(req.Severity),
			Location:    req.Location,
			AlertType:   req.AlertType,
			Source:      req.Source,
			ImageURL:    req.ImageURL,
			ContactInfo: req.ContactInfo,
			Lat:         req.Lat,
			Lng:         req.Lng,
		},
		Broadcast: notify,
	})
	if !res.Success {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusCreated, res.Data[0])
}

func (h *Handler) getLostFound(c *gin.Context) {
	alertType := c.Query("alert_type")
	if alertType == "" {
		alertType = "missing_person"
	}
	// Resolved entries stay listed with their found status.
	res := h.exec.Execute(query.Select{AlertType: alertType, Ordered: true})
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": res.Data, "count": res.Count})
}

type lostFoundRequest struct {
	AlertType    string `json:"alert_type"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Source       string `json:"source"`
	ImageURL     string `json:"image_url"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	LastSeenDate string `json:"last_seen_date"`
	Category     string `json:"category"`
	ContactInfo  string `json:"contact_info"`
	Notify       *bool  `json:"notify"`
}

func (h *Handler) createLostFound(c *gin.Context) {
	var req lostFoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.AlertType != "missing_person" && req.AlertType != "lost_item" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "alert_type must be missing_person or lost_item"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	severity := models.SeverityHigh
	if req.AlertType == "lost_item" {
		severity = models.SeverityLow
	}
	notify := req.Notify == nil || *req.Notify

	res := h.exec.Execute(query.Insert{
		Record: models.Record{
			Title:        req.Title,
			Description:  req.Description,
			Severity:     severity,
			Location:     req.Location,
			AlertType:    req.AlertType,
			Source:       req.Source,
			ImageURL:     req.ImageURL,
			Age:          req.Age,
			Gender:       req.Gender,
			LastSeenDate: req.LastSeenDate,
			Category:     req.Category,
			ContactInfo:  req.ContactInfo,
		},
		Broadcast: notify,
	})
	if !res.Success {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusCreated, res.Data[0])
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) setActive(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}

	res := h.exec.Execute(query.Update{ID: id, Active: *req.Active})
	if !res.Success {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// stream pushes new incidents to the client as server-sent events until the
// client goes away.
func (h *Handler) stream(c *gin.Context) {
	id, ch := h.local.Subscribe()
	defer h.local.Unsubscribe(id)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case rec, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("new-incident", rec)
			return true
		}
	})
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	user := &session.User{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := h.sessions.RegisterUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "name": user.Name, "email": user.Email})
}

type locationRequest struct {
	UserID int64   `json:"user_id"`
	Place  string  `json:"place"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

func (h *Handler) saveLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Place == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "place is required"})
		return
	}

	loc := &session.Location{UserID: req.UserID, Place: req.Place, Lat: req.Lat, Lng: req.Lng}
	if err := h.sessions.SaveLocation(c.Request.Context(), loc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save location"})
		return
	}

	// The live view's fallback region match follows the saved place.
	h.view.SetPlace(req.Place)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getLocation(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	loc, err := h.sessions.GetLocation(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load location"})
		return
	}
	if loc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no saved location"})
		return
	}
	c.JSON(http.StatusOK, loc)
}
