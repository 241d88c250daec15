// config/config.go - Environment-backed settings
package config

import (
	"os"
	"strconv"
	"strings"
)

// Settings holds everything the engine and dashboard read from the
// environment. Load once in main and pass down; nothing re-reads env vars
// mid-flight except the USER_* display maps, which stay env-backed so they
// can be edited without a restart.
type Settings struct {
	AbsStatsBaseURL string
	PollSeconds     int
	DataDir         string

	AchievementsPath     string
	SeriesRefreshSeconds int

	CompletedEndpoint     string
	AllowPlaylistFallback bool

	// SMTP
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPToOverride string

	DiscordProxyURL string

	StreakTimezone string
	ListenAddr     string
}

// Load builds Settings from the environment with the same defaults the
// original deployment used.
func Load() *Settings {
	return &Settings{
		AbsStatsBaseURL: strings.TrimRight(getEnvOrDefault("ABSSTATS_BASE_URL", "http://localhost:3010"), "/"),
		PollSeconds:     getEnvInt("POLL_SECONDS", 300),
		DataDir:         getEnvOrDefault("DATA_DIR", "/data"),

		AchievementsPath:     getEnvOrDefault("ACHIEVEMENTS_PATH", "./data/achievements.points.json"),
		SeriesRefreshSeconds: getEnvInt("SERIES_REFRESH_SECONDS", 24*3600),

		CompletedEndpoint:     getEnvOrDefault("COMPLETED_ENDPOINT", "/api/completed"),
		AllowPlaylistFallback: getEnvBool("ALLOW_PLAYLIST_FALLBACK", true),

		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUsername:   os.Getenv("SMTP_USERNAME"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:       os.Getenv("SMTP_FROM"),
		SMTPToOverride: strings.TrimSpace(os.Getenv("SMTP_TO_OVERRIDE")),

		DiscordProxyURL: strings.TrimSpace(os.Getenv("DISCORD_PROXY_URL")),

		StreakTimezone: getEnvOrDefault("STREAK_TIMEZONE", "America/New_York"),
		ListenAddr:     getEnvOrDefault("LISTEN_ADDR", ":8080"),
	}
}

// UserAliases parses the USER_ALIASES env map ("user1:Name,user2:Name").
func UserAliases() map[string]string {
	return parsePairMap(os.Getenv("USER_ALIASES"))
}

// UserIcons parses the USER_ICONS env map.
func UserIcons() map[string]string {
	return parsePairMap(os.Getenv("USER_ICONS"))
}

// UserEmails parses the USER_EMAILS env map (username:address).
func UserEmails() map[string]string {
	return parsePairMap(os.Getenv("USER_EMAILS"))
}

func parsePairMap(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if key, val, ok := strings.Cut(pair, ":"); ok {
			out[strings.TrimSpace(key)] = strings.TrimSpace(val)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
