// Package config holds the process-wide matchcal configuration.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// TOML file, and environment variable overrides. The environment names match
// the ones the sync has historically been deployed with (CALENDAR_ID,
// SCRAPED_TIME_IS_UTC, GOOGLE_CREDENTIALS_JSON), so existing CI secrets keep
// working unchanged.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for the tracked team and its bo3.gg listing.
const (
	DefaultTeam       = "Natus Vincere"
	DefaultTimezone   = "Europe/Kyiv"
	DefaultCalendarID = "primary"
)

// DefaultSourceURLs are the listing URL variants tried in order. The first
// variant that yields at least one match wins; later variants are fallbacks
// for upstream URL-shape changes, not additive sources.
var DefaultSourceURLs = []string{
	"https://bo3.gg/teams/natus-vincere/matches",
	"https://bo3.gg/teams/natus-vincere/matches?period=upcoming",
}

// Config is the top-level matchcal configuration.
type Config struct {
	// Team is the tracked team's display name as it appears in match rows.
	Team string `toml:"team"`

	// SourceURLs are listing URL variants of the same logical source.
	SourceURLs []string `toml:"source_urls"`

	// CalendarID is the target Google Calendar ("primary" by default).
	CalendarID string `toml:"calendar_id"`

	// Timezone is the fixed target IANA zone all instants are expressed in.
	Timezone string `toml:"timezone"`

	// ScrapedTimeUTC controls whether scraped clock values are interpreted
	// as UTC (true, the typical server-rendered HTML case) or as wall-clock
	// time already in the target zone.
	ScrapedTimeUTC bool `toml:"scraped_time_utc"`

	// HorizonDays bounds discovery: candidates further out are dropped.
	HorizonDays int `toml:"horizon_days"`

	// ToleranceMinutes is the start-time window within which an existing
	// event with an identical summary counts as already up to date.
	ToleranceMinutes int `toml:"tolerance_minutes"`

	// RecheckMinutes is the sleep between same-day re-check passes.
	RecheckMinutes int `toml:"recheck_minutes"`

	// MatchHours is the fixed event duration; bo3.gg does not publish one.
	MatchHours int `toml:"match_hours"`

	// StrictDuplicates disables fuzzy reconciliation: only byte-identical
	// summary + start matches are treated as duplicates and drifted entries
	// are never patched.
	StrictDuplicates bool `toml:"strict_duplicates"`

	// AllowTBDOpponent emits a candidate with a "TBD" opponent when only the
	// tracked team is recoverable from a row.
	AllowTBDOpponent bool `toml:"allow_tbd_opponent"`

	// RenderFetch fetches listings through headless Chromium instead of
	// plain HTTP, for script-rendered pages.
	RenderFetch bool `toml:"render_fetch"`

	// DaemonSchedule is a cron expression for the daemon command.
	DaemonSchedule string `toml:"daemon_schedule"`

	// DataDir holds the run snapshot used by "list --changed".
	DataDir string `toml:"data_dir"`

	// CredentialsJSON is the Google service-account key. Usually supplied
	// via GOOGLE_CREDENTIALS_JSON rather than the config file.
	CredentialsJSON string `toml:"-"`

	// Telegram announcement credentials (optional).
	TelegramBotToken string `toml:"-"`
	TelegramChatID   string `toml:"telegram_chat_id"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Team:             DefaultTeam,
		SourceURLs:       append([]string(nil), DefaultSourceURLs...),
		CalendarID:       DefaultCalendarID,
		Timezone:         DefaultTimezone,
		ScrapedTimeUTC:   true,
		HorizonDays:      30,
		ToleranceMinutes: 5,
		RecheckMinutes:   20,
		MatchHours:       2,
		StrictDuplicates: false,
		AllowTBDOpponent: true,
		DaemonSchedule:   "0 */6 * * *",
		DataDir:          "~/.local/share/matchcal",
	}
}

// Load resolves configuration from defaults, an optional TOML file at path,
// and environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers environment overrides on top of file/default values.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CALENDAR_ID")); v != "" {
		c.CalendarID = v
	}
	if v := os.Getenv("SCRAPED_TIME_IS_UTC"); v != "" {
		c.ScrapedTimeUTC = truthy(v)
	}
	if v := os.Getenv("MATCHCAL_TEAM"); v != "" {
		c.Team = v
	}
	if v := os.Getenv("MATCHCAL_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("MATCHCAL_SOURCE_URL"); v != "" {
		c.SourceURLs = []string{v}
	}
	if v := os.Getenv("MATCHCAL_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HorizonDays = n
		}
	}
	if v := os.Getenv("MATCHCAL_STRICT_DUPLICATES"); v != "" {
		c.StrictDuplicates = truthy(v)
	}
	c.CredentialsJSON = os.Getenv("GOOGLE_CREDENTIALS_JSON")
	c.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.TelegramChatID = v
	}
}

// normalize fills in zero values so a partially-filled config file still
// behaves correctly.
func (c *Config) normalize() {
	if c.Team == "" {
		c.Team = DefaultTeam
	}
	if len(c.SourceURLs) == 0 {
		c.SourceURLs = append([]string(nil), DefaultSourceURLs...)
	}
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.ToleranceMinutes <= 0 {
		c.ToleranceMinutes = 5
	}
	if c.RecheckMinutes <= 0 {
		c.RecheckMinutes = 20
	}
	if c.MatchHours <= 0 {
		c.MatchHours = 2
	}
	if c.DaemonSchedule == "" {
		c.DaemonSchedule = "0 */6 * * *"
	}
	if c.DataDir == "" {
		c.DataDir = "~/.local/share/matchcal"
	}
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the target zone. Config is validated at load time, so the
// lookup cannot fail afterwards short of a broken tz database.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MatchDuration returns the fixed candidate duration.
func (c *Config) MatchDuration() time.Duration {
	return time.Duration(c.MatchHours) * time.Hour
}

// Tolerance returns the duplicate time tolerance window.
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.ToleranceMinutes) * time.Minute
}

// RecheckInterval returns the sleep between same-day re-check passes.
func (c *Config) RecheckInterval() time.Duration {
	return time.Duration(c.RecheckMinutes) * time.Minute
}

// Horizon returns the discovery horizon as a duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
