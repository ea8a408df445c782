package handlers

import (
	"net/http"

	"matchday/internal/models"
	"matchday/internal/repository"
	"matchday/internal/services"
	"matchday/internal/validation"

	"github.com/gin-gonic/gin"
)

// PredictionHandler handles prediction endpoints
type PredictionHandler struct {
	predictionService *services.PredictionService
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictionService *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

type predictionRequest struct {
	MatchID uint     `json:"match_id"`
	Pick    string   `json:"pick"`
	PHome   *float64 `json:"p_home"`
	PDraw   *float64 `json:"p_draw"`
	PAway   *float64 `json:"p_away"`
}

func parsePick(c *gin.Context, raw string) (models.Pick, bool) {
	pick, ok := models.ParsePick(raw)
	if !ok {
		respondError(c, &validation.PredictionError{Reason: validation.InvalidPick, Field: "pick"})
		return "", false
	}
	return pick, true
}

// ListPredictions returns predictions newest first
// GET /api/predictions?match_id=&mine=true
func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}
	matchID, ok := queryID(c, "match_id")
	if !ok {
		return
	}

	filter := repository.PredictionFilter{MatchID: matchID, Page: p}
	if isTrue(c.Query("mine")) {
		filter.UserID = &actor
	}

	predictions, total, err := h.predictionService.ListPredictions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("predictions", predictions, total, p))
}

// GetPrediction returns one prediction
// GET /api/predictions/:id
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	prediction, err := h.predictionService.GetPrediction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": prediction, "permissions": permissionsFor(actor, prediction)})
}

// CreatePrediction records the caller's prediction for a match
// POST /api/predictions
func (h *PredictionHandler) CreatePrediction(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req predictionRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.MatchID == 0 {
		badRequest(c, "match_id", "this field is required")
		return
	}
	pick, ok := parsePick(c, req.Pick)
	if !ok {
		return
	}

	prediction, err := h.predictionService.CreatePrediction(c.Request.Context(), actor, services.PredictionInput{
		MatchID: req.MatchID,
		Pick:    pick,
		PHome:   req.PHome,
		PDraw:   req.PDraw,
		PAway:   req.PAway,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"prediction": prediction})
}

// UpdatePrediction replaces pick and probabilities
// PUT /api/predictions/:id
func (h *PredictionHandler) UpdatePrediction(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req predictionRequest
	if !bindJSON(c, &req) {
		return
	}
	pick, ok := parsePick(c, req.Pick)
	if !ok {
		return
	}

	prediction, err := h.predictionService.UpdatePrediction(c.Request.Context(), actor, id, services.PredictionUpdate{
		Pick:  pick,
		PHome: req.PHome,
		PDraw: req.PDraw,
		PAway: req.PAway,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": prediction})
}

// DeletePrediction deletes one of the caller's predictions
// DELETE /api/predictions/:id
func (h *PredictionHandler) DeletePrediction(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.predictionService.DeletePrediction(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
