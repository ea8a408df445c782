package handlers

import (
	"net/http"
	"strings"

	"matchday/internal/repository"
	"matchday/internal/services"

	"github.com/gin-gonic/gin"
)

// TeamHandler handles team endpoints
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

type teamRequest struct {
	Name        string `json:"name"`
	ShortCode   string `json:"short_code"`
	FoundedYear *int   `json:"founded_year"`
}

func (r teamRequest) input() services.TeamInput {
	return services.TeamInput{Name: r.Name, ShortCode: r.ShortCode, FoundedYear: r.FoundedYear}
}

// ListTeams returns teams ordered by name
// GET /api/teams?q=&mine=true
func (h *TeamHandler) ListTeams(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}

	filter := repository.TeamFilter{Name: strings.TrimSpace(c.Query("q")), Page: p}
	if isTrue(c.Query("mine")) {
		filter.OwnerID = &actor
	}

	teams, total, err := h.teamService.ListTeams(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse("teams", teams, total, p))
}

// GetTeam returns one team
// GET /api/teams/:id
func (h *TeamHandler) GetTeam(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	team, err := h.teamService.GetTeam(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team, "permissions": permissionsFor(actor, team)})
}

// CreateTeam creates a team owned by the caller
// POST /api/teams
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req teamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), actor, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"team": team})
}

// UpdateTeam replaces a team's fields
// PUT /api/teams/:id
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req teamRequest
	if !bindJSON(c, &req) {
		return
	}

	team, err := h.teamService.UpdateTeam(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}

// DeleteTeam deletes a team, or lists the matches that prevent it
// DELETE /api/teams/:id
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.teamService.DeleteTeam(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadLogo stores the multipart "logo" file for a team
// POST /api/teams/:id/logo
func (h *TeamHandler) UploadLogo(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("logo")
	if err != nil {
		badRequest(c, "logo", "a logo file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "logo", "could not read the uploaded file")
		return
	}
	defer file.Close()

	team, err := h.teamService.UploadLogo(c.Request.Context(), actor, id, services.LogoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": team})
}
