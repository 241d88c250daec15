// models/achievement.go
package models

// Achievement is one rule from the catalog file. Definitions are immutable
// once loaded; Category decides which evaluator processes the rule and
// Trigger is free text that each evaluator parses on its own.
type Achievement struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Trigger  string `json:"trigger,omitempty"`
	Points   int    `json:"points"`
	IconPath string `json:"iconPath,omitempty"`

	// Display extras carried through to notifications and the dashboard.
	Achievement string   `json:"achievement,omitempty"`
	FlavorText  string   `json:"flavorText,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	Rarity      string   `json:"rarity,omitempty"`
	KeywordsAny []string `json:"keywords_any,omitempty"`
}

// DisplayTitle prefers the long-form achievement name over the short title.
func (a *Achievement) DisplayTitle() string {
	if a.Achievement != "" {
		return a.Achievement
	}
	if a.Title != "" {
		return a.Title
	}
	return "Achievement"
}
