package models

import (
	"testing"
	"time"
)

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      int
	}{
		{"forty five day window", now.AddDate(0, 0, 45), 45},
		{"exactly one day", now.Add(24 * time.Hour), 1},
		{"partial day rounds up", now.Add(25 * time.Hour), 2},
		{"under an hour still counts", now.Add(30 * time.Minute), 1},
		{"expiring this instant", now, 0},
		{"already expired", now.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Challenge{ExpiresAt: tt.expiresAt}
			if got := c.DaysRemaining(now); got != tt.want {
				t.Errorf("days remaining = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLevelStateAccessors(t *testing.T) {
	c := Challenge{
		Level1State: LevelClaimed,
		Level2State: LevelUnlocked,
		Level3State: LevelLocked,
		Level4State: LevelLocked,
	}

	if !c.LevelCompleted(1) || !c.LevelCompleted(2) {
		t.Errorf("levels 1 and 2 must count as completed")
	}
	if c.LevelCompleted(3) {
		t.Errorf("locked level reported completed")
	}
	if got := c.LevelStateAt(9); got != LevelLocked {
		t.Errorf("out of range state = %s, want locked", got)
	}

	c.SetLevelStateAt(3, LevelUnlocked)
	if c.Level3State != LevelUnlocked {
		t.Errorf("set level 3 = %s, want unlocked", c.Level3State)
	}
}
