// store/memory.go - In-memory ledger
package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"shelfquest/models"
)

// MemoryLedger implements Ledger without a database. Used by the test suite
// and handy for dry runs against a production stats server.
type MemoryLedger struct {
	mu     sync.Mutex
	awards map[string]models.Award // key: userID + "\x00" + achievementID
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{awards: make(map[string]models.Award)}
}

func memKey(userID, achievementID string) string {
	return userID + "\x00" + achievementID
}

func (l *MemoryLedger) IsAwarded(userID, achievementID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.awards[memKey(userID, achievementID)]
	return ok
}

func (l *MemoryLedger) RecordAwards(userID string, candidates []Candidate) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().Unix()
	inserted := []string{}

	for _, cand := range candidates {
		key := memKey(userID, cand.AchievementID)
		if _, exists := l.awards[key]; exists {
			continue
		}

		awardedAt := now
		if ts, ok := cand.Evidence.Timestamp(); ok {
			awardedAt = ts
		}

		payload, err := json.Marshal(cand.Evidence)
		if err != nil {
			payload = []byte("{}")
		}

		l.awards[key] = models.Award{
			UserID:        userID,
			AchievementID: cand.AchievementID,
			AwardedAt:     awardedAt,
			PayloadJSON:   string(payload),
		}
		inserted = append(inserted, cand.AchievementID)
	}

	return inserted
}

func (l *MemoryLedger) GetAllAwards() ([]models.Award, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Award, 0, len(l.awards))
	for _, a := range l.awards {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AwardedAt > out[j].AwardedAt
	})
	return out, nil
}

func (l *MemoryLedger) CountForUser(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, a := range l.awards {
		if a.UserID == userID {
			count++
		}
	}
	return count
}
