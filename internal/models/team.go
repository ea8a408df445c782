package models

import (
	"time"
)

// Team is a club that can appear on either side of a Match.
type Team struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:120;not null;uniqueIndex:idx_teams_name" json:"name"`
	ShortCode   string    `gorm:"size:10" json:"short_code"`
	FoundedYear *int      `gorm:"check:chk_teams_founded_year,founded_year IS NULL OR founded_year >= 0" json:"founded_year,omitempty"`
	Logo        string    `gorm:"size:255" json:"logo,omitempty"`
	LogoURL     string    `gorm:"-" json:"logo_url,omitempty"`
	CreatedByID *uint     `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Team model
func (Team) TableName() string {
	return "teams"
}

// OwnerID returns the user recorded as the team's creator.
func (t *Team) OwnerID() *uint {
	return t.CreatedByID
}

func (t *Team) String() string {
	return t.Name
}
