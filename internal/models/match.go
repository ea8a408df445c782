package models

import (
	"fmt"
	"strings"
	"time"
)

// MatchStatus is the lifecycle state of a fixture.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusLive      MatchStatus = "LIVE"
	MatchStatusFullTime  MatchStatus = "FULL_TIME"
	MatchStatusPostponed MatchStatus = "POSTPONED"
	MatchStatusCancelled MatchStatus = "CANCELLED"
)

// MatchStatuses lists every accepted status in display order.
var MatchStatuses = []MatchStatus{
	MatchStatusScheduled,
	MatchStatusLive,
	MatchStatusFullTime,
	MatchStatusPostponed,
	MatchStatusCancelled,
}

// ParseMatchStatus normalises user input into a MatchStatus. "FT" is
// accepted as shorthand for full time.
func ParseMatchStatus(s string) (MatchStatus, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "FT" {
		return MatchStatusFullTime, true
	}
	for _, st := range MatchStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the known statuses.
func (s MatchStatus) Valid() bool {
	for _, st := range MatchStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Match is a scheduled fixture between two distinct teams.
type Match struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	HomeTeamID  uint        `gorm:"not null;uniqueIndex:idx_matches_fixture,priority:1" json:"home_team_id"`
	HomeTeam    *Team       `gorm:"foreignKey:HomeTeamID;constraint:OnDelete:RESTRICT" json:"home_team,omitempty"`
	AwayTeamID  uint        `gorm:"not null;uniqueIndex:idx_matches_fixture,priority:2;check:chk_matches_distinct_teams,home_team_id <> away_team_id" json:"away_team_id"`
	AwayTeam    *Team       `gorm:"foreignKey:AwayTeamID;constraint:OnDelete:RESTRICT" json:"away_team,omitempty"`
	KickoffAt   time.Time   `gorm:"not null;uniqueIndex:idx_matches_fixture,priority:3;index:idx_matches_kickoff_at" json:"kickoff_at"`
	Venue       string      `gorm:"size:120" json:"venue"`
	Status      MatchStatus `gorm:"size:12;not null;default:'SCHEDULED';index:idx_matches_status;check:chk_matches_status,status IN ('SCHEDULED','LIVE','FULL_TIME','POSTPONED','CANCELLED')" json:"status"`
	HomeScore   *int        `gorm:"check:chk_matches_home_score,home_score IS NULL OR home_score >= 0" json:"home_score"`
	AwayScore   *int        `gorm:"check:chk_matches_away_score,away_score IS NULL OR away_score >= 0" json:"away_score"`
	CreatedByID *uint       `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy   *User       `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName specifies the table name for Match model
func (Match) TableName() string {
	return "matches"
}

// OwnerID returns the user recorded as the match's creator.
func (m *Match) OwnerID() *uint {
	return m.CreatedByID
}

// Outcome derives the result from the scores; nil until both are known.
func (m *Match) Outcome() *Pick {
	return Outcome(m.HomeScore, m.AwayScore)
}

// Scored reports whether the match has a final, scoreable result.
func (m *Match) Scored() bool {
	return m.Status == MatchStatusFullTime && m.Outcome() != nil
}

func (m *Match) String() string {
	home, away := fmt.Sprintf("team %d", m.HomeTeamID), fmt.Sprintf("team %d", m.AwayTeamID)
	if m.HomeTeam != nil {
		home = m.HomeTeam.Name
	}
	if m.AwayTeam != nil {
		away = m.AwayTeam.Name
	}
	return fmt.Sprintf("%s vs %s @ %s", home, away, m.KickoffAt.Format("2006-01-02 15:04"))
}

// Outcome maps a pair of scores onto HOME, AWAY or DRAW. Either score
// missing yields nil.
func Outcome(homeScore, awayScore *int) *Pick {
	if homeScore == nil || awayScore == nil {
		return nil
	}
	var p Pick
	switch {
	case *homeScore > *awayScore:
		p = PickHome
	case *homeScore < *awayScore:
		p = PickAway
	default:
		p = PickDraw
	}
	return &p
}
