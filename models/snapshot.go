// models/snapshot.go
package models

// UserSnapshot is the current picture of one user's finished books, rebuilt
// from the stats provider every cycle. FinishedDates maps a library item id
// to the epoch-second finish timestamp; items finished before the server
// started tracking dates may be missing from the map, so FinishedIDs is
// always a superset of its keys.
type UserSnapshot struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`

	FinishedIDs   map[string]bool  `json:"finished_ids"`
	FinishedDates map[string]int64 `json:"finished_dates"`

	// FinishedCount comes from the provider's own counter and may exceed
	// len(FinishedIDs).
	FinishedCount int `json:"finished_count"`
}

// Finished reports whether the user has finished the given library item.
func (s *UserSnapshot) Finished(itemID string) bool {
	return s.FinishedIDs[itemID]
}

// FinishDate returns the finish timestamp for an item, or 0 if unknown.
func (s *UserSnapshot) FinishDate(itemID string) int64 {
	return s.FinishedDates[itemID]
}
