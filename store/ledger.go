// store/ledger.go - Award ledger
//
// The ledger is the system's source of truth: at most one row ever exists per
// (user, achievement) pair. Evaluators are free to re-emit the same award
// every cycle; suppression happens here, at the primary key.
package store

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shelfquest/models"
)

// Candidate is one normalized award attempt handed to the ledger.
type Candidate struct {
	AchievementID string
	Evidence      models.Evidence
}

// Ledger is the persistence contract the engine and dashboard depend on.
type Ledger interface {
	IsAwarded(userID, achievementID string) bool
	// RecordAwards inserts each candidate if absent and returns the ids that
	// were actually inserted. Duplicates are silently skipped.
	RecordAwards(userID string, candidates []Candidate) []string
	GetAllAwards() ([]models.Award, error)
	CountForUser(userID string) int
}

// GormLedger persists awards in Postgres.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) IsAwarded(userID, achievementID string) bool {
	var count int64
	l.db.Model(&models.Award{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count)
	return count > 0
}

func (l *GormLedger) RecordAwards(userID string, candidates []Candidate) []string {
	now := time.Now().Unix()
	inserted := []string{}

	for _, cand := range candidates {
		awardedAt := now
		if ts, ok := cand.Evidence.Timestamp(); ok {
			awardedAt = ts
		}

		payload, err := json.Marshal(cand.Evidence)
		if err != nil {
			payload = []byte("{}")
		}

		award := models.Award{
			UserID:        userID,
			AchievementID: cand.AchievementID,
			AwardedAt:     awardedAt,
			PayloadJSON:   string(payload),
		}

		res := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
		if res.Error == nil && res.RowsAffected > 0 {
			inserted = append(inserted, cand.AchievementID)
		}
	}

	return inserted
}

func (l *GormLedger) GetAllAwards() ([]models.Award, error) {
	var awards []models.Award
	if err := l.db.Order("awarded_at DESC").Find(&awards).Error; err != nil {
		return nil, err
	}
	return awards, nil
}

func (l *GormLedger) CountForUser(userID string) int {
	var count int64
	l.db.Model(&models.Award{}).Where("user_id = ?", userID).Count(&count)
	return int(count)
}
