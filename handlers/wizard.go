package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthtrip/models"
	"healthtrip/services/wizard"
	"healthtrip/utils"
)

// WizardHandler exposes the reservation wizard over HTTP.
type WizardHandler struct {
	Sessions *wizard.SessionService
	Logger   *zap.Logger
}

func NewWizardHandler(sessions *wizard.SessionService, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{Sessions: sessions, Logger: logger}
}

// OpenSession creates a new wizard session.
func (h *WizardHandler) OpenSession(c *gin.Context) {
	state, err := h.Sessions.Open(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to open wizard session", err.Error())
		return
	}
	c.JSON(http.StatusCreated, state)
}

// GetSession returns the session's current step, draft and price breakdown.
func (h *WizardHandler) GetSession(c *gin.Context) {
	state, err := h.Sessions.Get(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "wizard session not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, state)
}

// UpdateSelection applies partial field updates to the draft.
func (h *WizardHandler) UpdateSelection(c *gin.Context) {
	var input wizard.SelectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	state, err := h.Sessions.UpdateSelection(c.Request.Context(), c.Param("sessionID"), input)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ListSlots returns the presented slots for the requested day. An empty array
// means no availability.
func (h *WizardHandler) ListSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
		return
	}

	slots, err := h.Sessions.Slots(c.Request.Context(), c.Param("sessionID"), date)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if slots == nil {
		slots = []models.SlotInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

// NextStep advances the wizard when the current step's gate passes.
func (h *WizardHandler) NextStep(c *gin.Context) {
	state, err := h.Sessions.Next(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// PrevStep returns to the previous step, selections intact.
func (h *WizardHandler) PrevStep(c *gin.Context) {
	state, err := h.Sessions.Back(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SubmitSession runs the final conflict re-check and commits the draft.
func (h *WizardHandler) SubmitSession(c *gin.Context) {
	receipt, err := h.Sessions.Submit(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// CancelSession discards the session and its draft.
func (h *WizardHandler) CancelSession(c *gin.Context) {
	if err := h.Sessions.Cancel(c.Request.Context(), c.Param("sessionID")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// renderError maps the wizard's typed errors onto HTTP statuses. Validation
// and conflict outcomes are expected flow, not server faults.
func (h *WizardHandler) renderError(c *gin.Context, err error) {
	var (
		validation *wizard.ValidationError
		unknown    *wizard.UnknownOptionError
		conflict   *wizard.ConflictError
		transport  *wizard.TransportError
		submission *wizard.SubmissionError
		transition *wizard.InvalidTransitionError
	)
	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "unknown selection id",
			"field": unknown.Field,
			"id":    unknown.ID,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "validation failed",
			"step":  validation.Step,
			"field": validation.Field,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "slot unavailable, please choose another time or date",
			"date":  conflict.Date,
			"time":  conflict.Time,
		})
	case errors.As(err, &transport):
		utils.JSONError(c, http.StatusBadGateway, "upstream service unavailable, please retry", transport.Error())
	case errors.As(err, &submission):
		utils.JSONError(c, http.StatusBadGateway, "submission not confirmed, please retry", submission.Error())
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error()})
	default:
		utils.JSONError(c, http.StatusNotFound, "wizard session error", err.Error())
	}
}
