// models/award.go
package models

import "encoding/json"

// Award is one granted achievement. The composite primary key is the whole
// idempotency story: repeated inserts for the same (user, achievement) pair
// are conflicts, never updates.
type Award struct {
	UserID        string `gorm:"primaryKey;size:64" json:"user_id"`
	AchievementID string `gorm:"primaryKey;size:128" json:"achievement_id"`
	AwardedAt     int64  `gorm:"not null" json:"awarded_at"`
	PayloadJSON   string `json:"-"`
}

func (Award) TableName() string {
	return "awards"
}

// Payload decodes the stored evidence. A corrupt payload decodes to an empty
// map rather than failing the dashboard.
func (a *Award) Payload() map[string]any {
	if a.PayloadJSON == "" {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(a.PayloadJSON), &out); err != nil {
		return map[string]any{}
	}
	return out
}
