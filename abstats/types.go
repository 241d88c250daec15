// abstats/types.go - Wire shapes for the abs-stats server
//
// The server's JSON has grown organically, so several fields accept more
// than one spelling or type. The flexible decoding here keeps the rest of
// the codebase working with plain structs.
package abstats

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// StringList decodes either a JSON string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		single = strings.TrimSpace(single)
		if single != "" {
			*s = StringList{single}
		} else {
			*s = nil
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		// Tolerate odd shapes (numbers, objects) by dropping the field.
		*s = nil
		return nil
	}

	out := make(StringList, 0, len(many))
	for _, v := range many {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*s = out
	return nil
}

// ItemMeta is the nested metadata block found on media objects.
type ItemMeta struct {
	Title     string     `json:"title"`
	Name      string     `json:"name"`
	Subtitle  string     `json:"subtitle"`
	Authors   StringList `json:"authors"`
	Author    StringList `json:"author"`
	Narrators StringList `json:"narrators"`
	Narrator  StringList `json:"narrator"`
}

// ItemMedia is the standard Audiobookshelf media wrapper.
type ItemMedia struct {
	Title     string     `json:"title"`
	Name      string     `json:"name"`
	Subtitle  string     `json:"subtitle"`
	Authors   StringList `json:"authors"`
	Author    StringList `json:"author"`
	Narrators StringList `json:"narrators"`
	Narrator  StringList `json:"narrator"`
	Metadata  *ItemMeta  `json:"metadata"`
}

// Item is one library item's metadata as served by /api/item/{id}.
type Item struct {
	Title     string     `json:"title"`
	Name      string     `json:"name"`
	Subtitle  string     `json:"subtitle"`
	Authors   StringList `json:"authors"`
	Author    StringList `json:"author"`
	Narrators StringList `json:"narrators"`
	Narrator  StringList `json:"narrator"`
	Media     *ItemMedia `json:"media"`
	Metadata  *ItemMeta  `json:"metadata"`
}

// DisplayTitle returns the first non-empty title-ish field.
func (it *Item) DisplayTitle() string {
	for _, v := range []string{it.Title, it.Name} {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if it.Media != nil {
		for _, v := range []string{it.Media.Title, it.Media.Name} {
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		if it.Media.Metadata != nil {
			for _, v := range []string{it.Media.Metadata.Title, it.Media.Metadata.Name} {
				if strings.TrimSpace(v) != "" {
					return strings.TrimSpace(v)
				}
			}
		}
	}
	return ""
}

// SearchableText concatenates every title and subtitle field into one string
// for keyword matching.
func (it *Item) SearchableText() string {
	var parts []string
	add := func(vals ...string) {
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				parts = append(parts, v)
			}
		}
	}
	add(it.Title, it.Name, it.Subtitle)
	if it.Media != nil {
		add(it.Media.Title, it.Media.Name, it.Media.Subtitle)
		if it.Media.Metadata != nil {
			add(it.Media.Metadata.Title, it.Media.Metadata.Name, it.Media.Metadata.Subtitle)
		}
	}
	return strings.Join(parts, " ")
}

// AuthorNames collects author names from whichever level carries them.
func (it *Item) AuthorNames() []string {
	if v := firstNonEmpty(it.Authors, it.Author); v != nil {
		return v
	}
	if it.Media != nil {
		if v := firstNonEmpty(it.Media.Authors, it.Media.Author); v != nil {
			return v
		}
		if it.Media.Metadata != nil {
			if v := firstNonEmpty(it.Media.Metadata.Authors, it.Media.Metadata.Author); v != nil {
				return v
			}
		}
	}
	if it.Metadata != nil {
		if v := firstNonEmpty(it.Metadata.Authors, it.Metadata.Author); v != nil {
			return v
		}
	}
	return nil
}

// NarratorNames collects narrator names from whichever level carries them.
func (it *Item) NarratorNames() []string {
	if v := firstNonEmpty(it.Narrators, it.Narrator); v != nil {
		return v
	}
	if it.Media != nil {
		if v := firstNonEmpty(it.Media.Narrators, it.Media.Narrator); v != nil {
			return v
		}
		if it.Media.Metadata != nil {
			if v := firstNonEmpty(it.Media.Metadata.Narrators, it.Media.Metadata.Narrator); v != nil {
				return v
			}
		}
	}
	if it.Metadata != nil {
		if v := firstNonEmpty(it.Metadata.Narrators, it.Metadata.Narrator); v != nil {
			return v
		}
	}
	return nil
}

func firstNonEmpty(lists ...StringList) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// SeriesBook is one entry of a series' book list.
type SeriesBook struct {
	LibraryItemID string
	ID            string
	Sequence      float64
}

func (b *SeriesBook) UnmarshalJSON(data []byte) error {
	// sequence arrives as a number or a string depending on server version
	var raw struct {
		LibraryItemID string          `json:"libraryItemId"`
		ID            string          `json:"id"`
		Sequence      json.RawMessage `json:"sequence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.LibraryItemID = raw.LibraryItemID
	b.ID = raw.ID
	b.Sequence = 999
	if len(raw.Sequence) > 0 {
		var f float64
		if err := json.Unmarshal(raw.Sequence, &f); err == nil {
			b.Sequence = f
		} else {
			var s string
			if err := json.Unmarshal(raw.Sequence, &s); err == nil {
				if f2, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
					b.Sequence = f2
				}
			}
		}
	}
	return nil
}

// ItemID returns whichever id field is populated.
func (b *SeriesBook) ItemID() string {
	if b.LibraryItemID != "" {
		return b.LibraryItemID
	}
	return b.ID
}

// Series is one entry of the series index.
type Series struct {
	ID         string       `json:"id"`
	SeriesID   string       `json:"seriesId"`
	Name       string       `json:"name"`
	Title      string       `json:"title"`
	SeriesName string       `json:"seriesName"`
	Series     string       `json:"series"`
	Books      []SeriesBook `json:"books"`
}

// Key returns the canonical series id.
func (s *Series) Key() string {
	if s.SeriesID != "" {
		return strings.TrimSpace(s.SeriesID)
	}
	return strings.TrimSpace(s.ID)
}

// DisplayName returns the first populated name field.
func (s *Series) DisplayName() string {
	for _, v := range []string{s.Name, s.Title, s.SeriesName, s.Series} {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// BookIDs returns the member item ids in index order, skipping blanks.
func (s *Series) BookIDs() []string {
	out := make([]string, 0, len(s.Books))
	for i := range s.Books {
		if id := s.Books[i].ItemID(); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// SeriesDetail is the /api/series/{id} response with books in sequence order.
type SeriesDetail struct {
	Series
}

// SortedBooks returns member books ordered by sequence position.
func (s *SeriesDetail) SortedBooks() []SeriesBook {
	books := make([]SeriesBook, len(s.Books))
	copy(books, s.Books)
	sort.SliceStable(books, func(i, j int) bool {
		return books[i].Sequence < books[j].Sequence
	})
	return books
}

// Session is one listening session record. Timestamps are epoch milliseconds.
type Session struct {
	ID            string  `json:"id"`
	LibraryItemID string  `json:"libraryItemId"`
	StartedAt     int64   `json:"startedAt"`
	UpdatedAt     int64   `json:"updatedAt"`
	EndedAt       int64   `json:"endedAt"`
	TimeListening float64 `json:"timeListening"`
	Duration      float64 `json:"duration"`
}

// EndMillis returns the best available end-of-session timestamp.
func (s *Session) EndMillis() int64 {
	if s.UpdatedAt > 0 {
		return s.UpdatedAt
	}
	if s.EndedAt > 0 {
		return s.EndedAt
	}
	return s.StartedAt
}

// UserSessions groups one user's sessions in the sessions payload.
type UserSessions struct {
	UserID   string    `json:"userId"`
	Sessions []Session `json:"sessions"`
}

// SessionsPayload is the /api/listening-sessions response.
type SessionsPayload struct {
	Users []UserSessions `json:"users"`
}

// ForUser returns the session list for one user, or nil.
func (p *SessionsPayload) ForUser(userID string) []Session {
	if p == nil {
		return nil
	}
	for i := range p.Users {
		if p.Users[i].UserID == userID {
			return p.Users[i].Sessions
		}
	}
	return nil
}
