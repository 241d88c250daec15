// catalog/catalog.go - Achievement catalog loader
package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"shelfquest/models"
)

// rawEntry tolerates both "id" and the legacy "achievement_id" key.
type rawEntry struct {
	models.Achievement
	AchievementID string `json:"achievement_id"`
}

// Load reads achievement definitions from a JSON file. Both a bare list and
// a {"achievements": [...]} wrapper are accepted. Entries missing an id are
// skipped with a warning rather than failing the whole load.
func Load(path string) ([]models.Achievement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read achievements file: %w", err)
	}

	var entries []rawEntry
	var wrapped struct {
		Achievements []rawEntry `json:"achievements"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Achievements != nil {
		entries = wrapped.Achievements
	} else if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse achievements file: %w", err)
	}

	loaded := make([]models.Achievement, 0, len(entries))
	for _, e := range entries {
		a := e.Achievement
		if a.ID == "" {
			a.ID = e.AchievementID
		}
		if a.ID == "" {
			log.Printf("[catalog] skipping entry with no id: %q", a.Title)
			continue
		}
		if a.Rarity == "" {
			a.Rarity = "Common"
		}
		loaded = append(loaded, a)
	}

	log.Printf("[catalog] Loaded %d achievements from %s", len(loaded), path)
	return loaded, nil
}

// ByID builds an id lookup over loaded definitions.
func ByID(achievements []models.Achievement) map[string]*models.Achievement {
	out := make(map[string]*models.Achievement, len(achievements))
	for i := range achievements {
		out[achievements[i].ID] = &achievements[i]
	}
	return out
}

// FilterEnabled is a pass-through hook for disabling categories or
// "coming soon" definitions without touching the catalog file.
func FilterEnabled(achievements []models.Achievement) []models.Achievement {
	return achievements
}
