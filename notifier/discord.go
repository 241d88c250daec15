// notifier/discord.go - Discord webhook-proxy notifier
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"shelfquest/models"
)

var rarityColors = map[string]int{
	"common":    0x9d9d9d,
	"uncommon":  0x1eff00,
	"rare":      0x0070dd,
	"epic":      0xa335ee,
	"legendary": 0xff8000,
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

// DiscordNotifier posts award embeds through the abs-stats discord proxy.
type DiscordNotifier struct {
	proxyURL string
	aliases  map[string]string
	http     *http.Client
}

func NewDiscordNotifier(proxyURL string, aliases map[string]string) *DiscordNotifier {
	return &DiscordNotifier{
		proxyURL: strings.TrimSpace(proxyURL),
		aliases:  aliases,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *DiscordNotifier) Enabled() bool {
	return n.proxyURL != ""
}

// SendAwards posts one embed per award, paced at one message per second to
// stay under the webhook rate limit. Failures are logged, never returned:
// notification is best-effort.
func (n *DiscordNotifier) SendAwards(username string, awards []models.Achievement, payloads []models.Evidence) {
	if !n.Enabled() || len(awards) == 0 {
		return
	}

	displayName := username
	if alias, ok := n.aliases[username]; ok {
		displayName = alias
	}

	for i, a := range awards {
		rarity := strings.ToLower(a.Rarity)
		if rarity == "" {
			rarity = "common"
		}
		color, ok := rarityColors[rarity]
		if !ok {
			color = rarityColors["common"]
		}

		e := embed{
			Title: "🏆 " + a.DisplayTitle(),
			Color: color,
		}
		if a.FlavorText != "" {
			e.Description = fmt.Sprintf("*%q*", a.FlavorText)
		}
		e.Footer.Text = "ShelfQuest"
		e.Fields = []embedField{
			{Name: "Earned by", Value: displayName, Inline: true},
			{Name: "Points", Value: fmt.Sprintf("%d", a.Points), Inline: true},
			{Name: "Rarity", Value: capitalize(rarity), Inline: true},
		}

		if i < len(payloads) && payloads[i] != nil {
			if title, ok := payloads[i]["bookTitle"].(string); ok && title != "" {
				e.Fields = append(e.Fields, embedField{Name: "Book", Value: title, Inline: true})
			}
			if ts, ok := payloads[i].Timestamp(); ok {
				date := time.Unix(ts, 0).Format("January 2, 2006")
				e.Fields = append(e.Fields, embedField{Name: "Date", Value: date, Inline: true})
			}
		}

		body, err := json.Marshal(map[string]any{
			"username": "ShelfQuest",
			"embeds":   []embed{e},
		})
		if err != nil {
			continue
		}

		resp, err := n.http.Post(n.proxyURL, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("[discord] Failed to send notification: %v", err)
			continue
		}
		resp.Body.Close()

		time.Sleep(time.Second)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
