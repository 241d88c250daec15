// abstats/client.go - HTTP client for the abs-stats server
package abstats

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelfquest/models"
)

// Client talks to the abs-stats aggregation server. All methods are plain
// synchronous GETs; callers decide what a failed fetch means for the cycle.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the configured server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) getJSON(path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	resp, err := c.http.Get(u)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// GetSeriesIndex fetches the full series index. The server wraps the list in
// {"series": [...]} but older builds returned a bare array.
func (c *Client) GetSeriesIndex() ([]Series, error) {
	var wrapped struct {
		Series []Series `json:"series"`
	}
	if err := c.getJSON("/api/series", nil, &wrapped); err == nil && wrapped.Series != nil {
		return wrapped.Series, nil
	}

	var bare []Series
	if err := c.getJSON("/api/series", nil, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

// GetSeries fetches one series' detail including its ordered book list.
func (c *Client) GetSeries(seriesID string) (*SeriesDetail, error) {
	var wrapped struct {
		Series *SeriesDetail `json:"series"`
		Data   *SeriesDetail `json:"data"`
	}
	if err := c.getJSON("/api/series/"+url.PathEscape(seriesID), nil, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Series != nil {
		return wrapped.Series, nil
	}
	if wrapped.Data != nil {
		return wrapped.Data, nil
	}

	var bare SeriesDetail
	if err := c.getJSON("/api/series/"+url.PathEscape(seriesID), nil, &bare); err != nil {
		return nil, err
	}
	return &bare, nil
}

// GetItem fetches one library item's metadata.
func (c *Client) GetItem(itemID string) (*Item, error) {
	var item Item
	if err := c.getJSON("/api/item/"+url.PathEscape(itemID), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

type completedUser struct {
	UserID        string           `json:"userId"`
	ID            string           `json:"id"`
	Username      string           `json:"username"`
	Email         string           `json:"email"`
	FinishedIDs   []string         `json:"finishedIds"`
	FinishedDates map[string]int64 `json:"finishedDates"`
	FinishedCount int              `json:"finishedCount"`
}

// GetCompleted fetches per-user completion snapshots. Finish dates arrive as
// epoch milliseconds and are converted to seconds here.
func (c *Client) GetCompleted(completedEndpoint string) ([]models.UserSnapshot, error) {
	var payload struct {
		Users []completedUser `json:"users"`
	}
	if err := c.getJSON(completedEndpoint, nil, &payload); err != nil {
		return nil, err
	}

	out := make([]models.UserSnapshot, 0, len(payload.Users))
	for _, u := range payload.Users {
		userID := strings.TrimSpace(u.UserID)
		if userID == "" {
			userID = strings.TrimSpace(u.ID)
		}
		username := strings.TrimSpace(u.Username)
		if userID == "" || username == "" {
			continue
		}

		finishedDates := make(map[string]int64, len(u.FinishedDates))
		for id, ms := range u.FinishedDates {
			if ms > 0 {
				finishedDates[id] = ms / 1000
			}
		}

		finishedIDs := make(map[string]bool, len(u.FinishedIDs))
		for _, id := range u.FinishedIDs {
			finishedIDs[id] = true
		}
		// ids and dates must stay in sync; dates win when the list is stale
		for id := range finishedDates {
			finishedIDs[id] = true
		}

		count := u.FinishedCount
		if count == 0 {
			count = len(finishedIDs)
		}

		out = append(out, models.UserSnapshot{
			UserID:        userID,
			Username:      username,
			Email:         u.Email,
			FinishedIDs:   finishedIDs,
			FinishedDates: finishedDates,
			FinishedCount: count,
		})
	}
	return out, nil
}

// GetPlaylistFallbackFinished builds snapshots from playlist finished flags.
// The playlists endpoint carries no dates, so these snapshots only support
// count-based rules.
func (c *Client) GetPlaylistFallbackFinished() ([]models.UserSnapshot, error) {
	var payload struct {
		Users []struct {
			UserID    string `json:"userId"`
			Username  string `json:"username"`
			Playlists []struct {
				Items []struct {
					LibraryItemID string `json:"libraryItemId"`
					Finished      bool   `json:"finished"`
				} `json:"items"`
			} `json:"playlists"`
		} `json:"users"`
	}
	if err := c.getJSON("/api/playlists", nil, &payload); err != nil {
		return nil, err
	}

	out := make([]models.UserSnapshot, 0, len(payload.Users))
	for _, u := range payload.Users {
		username := strings.TrimSpace(u.Username)
		if username == "" {
			continue
		}
		userID := strings.TrimSpace(u.UserID)
		if userID == "" {
			userID = username
		}

		finishedIDs := make(map[string]bool)
		for _, pl := range u.Playlists {
			for _, it := range pl.Items {
				if it.Finished && it.LibraryItemID != "" {
					finishedIDs[it.LibraryItemID] = true
				}
			}
		}

		out = append(out, models.UserSnapshot{
			UserID:        userID,
			Username:      username,
			FinishedIDs:   finishedIDs,
			FinishedDates: map[string]int64{},
			FinishedCount: len(finishedIDs),
		})
	}
	return out, nil
}

// GetListeningSessions fetches per-user session histories.
func (c *Client) GetListeningSessions() (*SessionsPayload, error) {
	params := url.Values{}
	params.Set("limit", "50")

	var payload SessionsPayload
	if err := c.getJSON("/api/listening-sessions", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetListeningTime fetches per-user listening totals. The payload shape has
// varied across server versions; the result is normalized to userID seconds.
func (c *Client) GetListeningTime() (map[string]int64, error) {
	var payload struct {
		ByUser map[string]struct {
			ListeningSeconds int64 `json:"listeningSeconds"`
		} `json:"byUser"`
		Users []struct {
			UserID           string `json:"userId"`
			ID               string `json:"id"`
			ListeningSeconds int64  `json:"listeningSeconds"`
		} `json:"users"`
	}
	if err := c.getJSON("/api/listening-time", nil, &payload); err != nil {
		return nil, err
	}

	out := make(map[string]int64)
	if payload.ByUser != nil {
		for id, row := range payload.ByUser {
			out[id] = row.ListeningSeconds
		}
		return out, nil
	}
	for _, row := range payload.Users {
		id := row.UserID
		if id == "" {
			id = row.ID
		}
		if id != "" {
			out[id] = row.ListeningSeconds
		}
	}
	return out, nil
}

// GetUsernames fetches the uuid -> username display map.
func (c *Client) GetUsernames() (map[string]string, error) {
	var payload struct {
		Map   map[string]string `json:"map"`
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}
	if err := c.getJSON("/api/usernames", nil, &payload); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for k, v := range payload.Map {
		out[k] = v
	}
	for _, u := range payload.Users {
		if u.ID != "" && u.Username != "" {
			out[u.ID] = u.Username
		}
	}
	return out, nil
}
