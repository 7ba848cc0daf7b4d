package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/daymeans/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// defaultFixtureStations are the stations seeded into the statistical mean unit tests.
const defaultFixtureStations = "7010,46910,70150,76450,86500,93700,96800"

// Config holds all generator settings, populated from environment variables.
type Config struct {
	LogLevel        string
	LogFormat       string
	MetricsTextfile string

	FixtureStations   []int
	DuplicateStations domain.DuplicatePolicy
	TableSortIDs      bool

	Window domain.WindowConfig
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	stations, err := parseStationList(sharedcfg.EnvOrDefault("FIXTURE_STATIONS", defaultFixtureStations))
	if err != nil {
		return nil, err
	}

	policy, err := domain.ParseDuplicatePolicy(sharedcfg.EnvOrDefault("DUPLICATE_STATIONS", string(domain.DuplicateReject)))
	if err != nil {
		return nil, fmt.Errorf("invalid DUPLICATE_STATIONS: %w", err)
	}

	sortIDs, err := strconv.ParseBool(sharedcfg.EnvOrDefault("TABLE_SORT_IDS", "false"))
	if err != nil {
		return nil, errors.New("invalid TABLE_SORT_IDS")
	}

	window, err := parseWindow()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		MetricsTextfile:   sharedcfg.EnvOrDefault("METRICS_TEXTFILE", ""),
		FixtureStations:   stations,
		DuplicateStations: policy,
		TableSortIDs:      sortIDs,
		Window:            window,
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

// FixtureStationSet returns the fixture allow-list as a set.
func (c *Config) FixtureStationSet() map[int]struct{} {
	set := make(map[int]struct{}, len(c.FixtureStations))
	for _, id := range c.FixtureStations {
		set[id] = struct{}{}
	}
	return set
}

// parseStationList parses a comma-separated id list, ignoring blanks.
func parseStationList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || !domain.ValidStationID(id) {
			return nil, fmt.Errorf("invalid FIXTURE_STATIONS entry %q", p)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("FIXTURE_STATIONS is required")
	}
	return ids, nil
}

func parseWindow() (domain.WindowConfig, error) {
	w := domain.DefaultWindowConfig()

	days, err := strconv.Atoi(sharedcfg.EnvOrDefault("WINDOW_DAYS", strconv.Itoa(w.Days)))
	if err != nil || days < 1 || days > domain.DaysPerYear {
		return w, fmt.Errorf("invalid WINDOW_DAYS: must be 1..%d", domain.DaysPerYear)
	}
	maxMissing, err := strconv.Atoi(sharedcfg.EnvOrDefault("WINDOW_MAX_MISSING", strconv.Itoa(w.MaxMissing)))
	if err != nil || maxMissing < 0 || maxMissing >= days {
		return w, errors.New("invalid WINDOW_MAX_MISSING: must be 0..WINDOW_DAYS-1")
	}
	mean, err := domain.ParseMeanMode(sharedcfg.EnvOrDefault("WINDOW_MEAN", string(w.Mean)))
	if err != nil {
		return w, fmt.Errorf("invalid WINDOW_MEAN: %w", err)
	}

	w.Days, w.MaxMissing, w.Mean = days, maxMissing, mean
	return w, nil
}
