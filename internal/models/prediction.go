package models

import (
	"fmt"
	"strings"
	"time"
)

// Pick is a predicted (or actual) match result category.
type Pick string

const (
	PickHome Pick = "HOME"
	PickDraw Pick = "DRAW"
	PickAway Pick = "AWAY"
)

// ParsePick normalises user input into a Pick.
func ParsePick(s string) (Pick, bool) {
	p := Pick(strings.ToUpper(strings.TrimSpace(s)))
	return p, p.Valid()
}

// Valid reports whether p is HOME, DRAW or AWAY.
func (p Pick) Valid() bool {
	return p == PickHome || p == PickDraw || p == PickAway
}

// Prediction is one user's pick for one match, optionally with a
// probability triple.
type Prediction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MatchID      uint      `gorm:"not null;uniqueIndex:idx_predictions_user_match,priority:2;index:idx_predictions_match_user,priority:1" json:"match_id"`
	Match        *Match    `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"match,omitempty"`
	UserID       *uint     `gorm:"uniqueIndex:idx_predictions_user_match,priority:1;index:idx_predictions_match_user,priority:2" json:"user_id"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Pick         Pick      `gorm:"size:5;not null;check:chk_predictions_pick,pick IN ('HOME','DRAW','AWAY')" json:"pick"`
	PHome        *float64  `gorm:"column:p_home;check:chk_predictions_p_home,p_home IS NULL OR (p_home >= 0 AND p_home <= 1)" json:"p_home,omitempty"`
	PDraw        *float64  `gorm:"column:p_draw;check:chk_predictions_p_draw,p_draw IS NULL OR (p_draw >= 0 AND p_draw <= 1)" json:"p_draw,omitempty"`
	PAway        *float64  `gorm:"column:p_away;check:chk_predictions_p_away,p_away IS NULL OR (p_away >= 0 AND p_away <= 1)" json:"p_away,omitempty"`
	ResultPoints *float64  `json:"result_points,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Prediction model
func (Prediction) TableName() string {
	return "predictions"
}

// OwnerID returns the predicting user.
func (p *Prediction) OwnerID() *uint {
	return p.UserID
}

// HasProbabilities reports whether any of the three probabilities is set.
func (p *Prediction) HasProbabilities() bool {
	return p.PHome != nil || p.PDraw != nil || p.PAway != nil
}

func (p *Prediction) String() string {
	who := "Anonymous"
	if p.User != nil {
		who = p.User.Username
	}
	return fmt.Sprintf("%s: %s on match %d", who, p.Pick, p.MatchID)
}
