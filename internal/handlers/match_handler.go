package handlers

import (
	"net/http"
	"time"

	"matchday/internal/models"
	"matchday/internal/repository"
	"matchday/internal/services"
	"matchday/internal/validation"

	"github.com/gin-gonic/gin"
)

// MatchHandler handles match endpoints
type MatchHandler struct {
	matchService *services.MatchService
	now          func() time.Time
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService, now: time.Now}
}

// matchResponse adds the derived outcome to a match.
type matchResponse struct {
	*models.Match
	Outcome         *models.Pick `json:"outcome"`
	PredictionCount *int64       `json:"prediction_count,omitempty"`
}

func newMatchResponse(m *models.Match, count *int64) matchResponse {
	return matchResponse{Match: m, Outcome: m.Outcome(), PredictionCount: count}
}

type createMatchRequest struct {
	HomeTeamID uint    `json:"home_team_id"`
	AwayTeamID uint    `json:"away_team_id"`
	KickoffAt  Kickoff `json:"kickoff_at"`
	Venue      string  `json:"venue"`
	Status     string  `json:"status"`
}

type updateMatchRequest struct {
	KickoffAt Kickoff `json:"kickoff_at"`
	Venue     string  `json:"venue"`
	Status    string  `json:"status"`
	HomeScore *int    `json:"home_score"`
	AwayScore *int    `json:"away_score"`
}

// parseStatus accepts an empty status (default) or any known spelling.
func parseStatus(c *gin.Context, raw string) (models.MatchStatus, bool) {
	if raw == "" {
		return "", true
	}
	status, ok := models.ParseMatchStatus(raw)
	if !ok {
		respondError(c, &validation.MatchError{Reason: validation.InvalidStatus, Field: "status"})
		return "", false
	}
	return status, true
}

// ListMatches returns matches ordered by kickoff
// GET /api/matches?status=&team_id=&from=&to=&upcoming=true&mine=true
func (h *MatchHandler) ListMatches(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}
	status, ok := parseStatus(c, c.Query("status"))
	if !ok {
		return
	}
	teamID, ok := queryID(c, "team_id")
	if !ok {
		return
	}

	filter := repository.MatchFilter{Status: status, TeamID: teamID, Page: p}
	if isTrue(c.Query("upcoming")) {
		now := h.now().UTC()
		filter.From = &now
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := ParseKickoff(raw)
		if err != nil {
			badRequest(c, key, err.Error())
			return
		}
		*dst = &t
	}
	if isTrue(c.Query("mine")) {
		filter.OwnerID = &actor
	}

	matches, total, err := h.matchService.ListMatches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]matchResponse, len(matches))
	for i := range matches {
		out[i] = newMatchResponse(&matches[i], nil)
	}
	c.JSON(http.StatusOK, listResponse("matches", out, total, p))
}

// GetMatch returns one match with its outcome and prediction count
// GET /api/matches/:id
func (h *MatchHandler) GetMatch(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	match, err := h.matchService.GetMatch(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	count, err := h.matchService.PredictionCount(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"match":       newMatchResponse(match, &count),
		"permissions": permissionsFor(actor, match),
	})
}

// CreateMatch schedules a match owned by the caller
// POST /api/matches
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req createMatchRequest
	if !bindJSON(c, &req) {
		return
	}
	switch {
	case req.HomeTeamID == 0:
		badRequest(c, "home_team_id", "this field is required")
		return
	case req.AwayTeamID == 0:
		badRequest(c, "away_team_id", "this field is required")
		return
	case req.KickoffAt.IsZero():
		badRequest(c, "kickoff_at", "this field is required")
		return
	}
	status, ok := parseStatus(c, req.Status)
	if !ok {
		return
	}

	match, err := h.matchService.CreateMatch(c.Request.Context(), actor, services.MatchInput{
		HomeTeamID: req.HomeTeamID,
		AwayTeamID: req.AwayTeamID,
		KickoffAt:  req.KickoffAt.Time,
		Venue:      req.Venue,
		Status:     status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"match": newMatchResponse(match, nil)})
}

// UpdateMatch replaces kickoff, venue, status and scores
// PUT /api/matches/:id
func (h *MatchHandler) UpdateMatch(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateMatchRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.KickoffAt.IsZero() {
		badRequest(c, "kickoff_at", "this field is required")
		return
	}
	status, ok := parseStatus(c, req.Status)
	if !ok {
		return
	}

	match, err := h.matchService.UpdateMatch(c.Request.Context(), actor, id, services.MatchUpdate{
		KickoffAt: req.KickoffAt.Time,
		Venue:     req.Venue,
		Status:    status,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": newMatchResponse(match, nil)})
}

// DeleteMatch deletes a match and its predictions
// DELETE /api/matches/:id
func (h *MatchHandler) DeleteMatch(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.matchService.DeleteMatch(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
