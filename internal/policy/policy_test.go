package policy

import (
	"testing"

	"matchday/internal/models"

	"github.com/stretchr/testify/assert"
)

func uintPtr(v uint) *uint { return &v }

func TestCanModify(t *testing.T) {
	tests := []struct {
		name   string
		actor  uint
		record Owned
		want   bool
	}{
		{"team owner", 1, &models.Team{CreatedByID: uintPtr(1)}, true},
		{"team stranger", 2, &models.Team{CreatedByID: uintPtr(1)}, false},
		{"team without owner", 1, &models.Team{}, false},
		{"match owner", 3, &models.Match{CreatedByID: uintPtr(3)}, true},
		{"match stranger", 1, &models.Match{CreatedByID: uintPtr(3)}, false},
		{"prediction owner", 5, &models.Prediction{UserID: uintPtr(5)}, true},
		{"prediction stranger", 6, &models.Prediction{UserID: uintPtr(5)}, false},
		{"anonymous prediction", 5, &models.Prediction{}, false},
		{"unauthenticated actor", 0, &models.Team{CreatedByID: uintPtr(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModify(tt.actor, tt.record))
			assert.Equal(t, tt.want, CanDelete(tt.actor, tt.record))
		})
	}
}

func TestCanView(t *testing.T) {
	p := &models.Prediction{UserID: uintPtr(9)}
	assert.True(t, CanView(1, p), "predictions of other users are visible")
	assert.False(t, CanView(0, p))
}
