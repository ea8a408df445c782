package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"matchday/internal/auth"
	"matchday/internal/policy"
	"matchday/internal/repository"

	"github.com/gin-gonic/gin"
)

// kickoffLayouts are tried in order. Values without an offset are UTC.
var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

// Kickoff accepts the datetime-local form value as well as RFC 3339.
type Kickoff struct {
	time.Time
}

func (k *Kickoff) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("kickoff_at must be a string")
	}
	if s == "" {
		return nil
	}
	t, err := ParseKickoff(s)
	if err != nil {
		return err
	}
	k.Time = t
	return nil
}

// ParseKickoff parses a kickoff timestamp in any accepted layout.
func ParseKickoff(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range kickoffLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid kickoff_at %q: use YYYY-MM-DDTHH:MM or RFC 3339", s)
}

// actorID returns the authenticated user. The auth middleware guarantees
// one is present on /api routes.
func actorID(c *gin.Context) (uint, bool) {
	id, ok := auth.GetUserID(c)
	if !ok || id == 0 {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: "unauthorized"})
		return 0, false
	}
	return id, true
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "id", "invalid id")
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter; 0 means absent.
func queryID(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(c, key, "must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// page reads limit and offset.
func page(c *gin.Context) (repository.Page, bool) {
	var p repository.Page
	var err error
	if raw := c.Query("limit"); raw != "" {
		if p.Limit, err = strconv.Atoi(raw); err != nil || p.Limit < 0 {
			badRequest(c, "limit", "must be a non-negative integer")
			return p, false
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if p.Offset, err = strconv.Atoi(raw); err != nil || p.Offset < 0 {
			badRequest(c, "offset", "must be a non-negative integer")
			return p, false
		}
	}
	return p, true
}

// bindJSON decodes the body, replying 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid"})
		return false
	}
	return true
}

func listResponse(key string, items interface{}, total int64, p repository.Page) gin.H {
	return gin.H{
		key:      items,
		"total":  total,
		"limit":  p.Limit,
		"offset": p.Offset,
	}
}

// permissions tells the client which actions to offer on a record.
type permissions struct {
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func permissionsFor(actorID uint, record policy.Owned) permissions {
	return permissions{
		CanEdit:   policy.CanModify(actorID, record),
		CanDelete: policy.CanDelete(actorID, record),
	}
}

func isTrue(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
