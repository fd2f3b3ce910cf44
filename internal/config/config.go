// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for game rules, timer and server settings.
//
// When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ROUND RULES
// =============================================================================

// RoundSettings holds the scoring values for a single round.
type RoundSettings struct {
	CorrectPoints int // Points awarded for a correct answer
	HealthPenalty int // Health percent removed for a wrong answer (Round 1 only)
}

// RulesConfig holds the elimination rules shared by every round.
// It is injected into the engine once and treated as read-only.
type RulesConfig struct {
	RoundOne   RoundSettings
	RoundTwo   RoundSettings
	RoundThree RoundSettings

	LuckyLoserThreshold int // Minimum points for a Round 1 eliminee to be recovered
	StartingHealth      int // Health given on reset and on advancement
	StartingLives       int // Lives given on reset and on advancement
	RoundTwoSlots       int // Players advancing into Round 2
	RoundThreeSlots     int // Finalists advancing into Round 3
	HistoryLimit        int // Undo ledger capacity
}

// DefaultRules returns the default rule set.
func DefaultRules() RulesConfig {
	return RulesConfig{
		RoundOne:   RoundSettings{CorrectPoints: 10, HealthPenalty: 20},
		RoundTwo:   RoundSettings{CorrectPoints: 20},
		RoundThree: RoundSettings{CorrectPoints: 30},

		LuckyLoserThreshold: 25,
		StartingHealth:      100,
		StartingLives:       3,
		RoundTwoSlots:       5,
		RoundThreeSlots:     3,
		HistoryLimit:        20,
	}
}

// RulesFromEnv returns the rule set with environment variable overrides.
func RulesFromEnv() RulesConfig {
	cfg := DefaultRules()

	if v := getEnvInt("LUCKY_LOSER_THRESHOLD", -1); v >= 0 {
		cfg.LuckyLoserThreshold = v
	}
	if v := getEnvInt("ROUND_ONE_POINTS", 0); v > 0 {
		cfg.RoundOne.CorrectPoints = v
	}
	if v := getEnvInt("ROUND_ONE_HEALTH_PENALTY", 0); v > 0 {
		cfg.RoundOne.HealthPenalty = v
	}
	if v := getEnvInt("ROUND_TWO_POINTS", 0); v > 0 {
		cfg.RoundTwo.CorrectPoints = v
	}
	if v := getEnvInt("ROUND_THREE_POINTS", 0); v > 0 {
		cfg.RoundThree.CorrectPoints = v
	}
	if v := getEnvInt("HISTORY_LIMIT", 0); v > 0 {
		cfg.HistoryLimit = v
	}

	return cfg
}

// =============================================================================
// TIMER CONFIGURATION
// =============================================================================

// TimerConfig holds countdown settings.
type TimerConfig struct {
	DefaultSeconds int           // Used when the host starts a timer without a duration
	TickInterval   time.Duration // Scheduler period; one tick removes one second
}

// DefaultTimer returns the default timer configuration.
func DefaultTimer() TimerConfig {
	return TimerConfig{
		DefaultSeconds: 30,
		TickInterval:   time.Second,
	}
}

// TimerFromEnv returns timer configuration with environment variable overrides.
func TimerFromEnv() TimerConfig {
	cfg := DefaultTimer()

	if s := getEnvInt("DEFAULT_TIMER_SECONDS", 0); s > 0 {
		cfg.DefaultSeconds = s
	}
	if v := os.Getenv("TIMER_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TickInterval = d
		}
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int
	CORSOrigins []string
	DebugServer bool
	HostConsole bool // Read host commands from stdin
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
		CORSOrigins: []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		},
		DebugServer: true,
		HostConsole: true,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DebugServer = false
	}
	if os.Getenv("DISABLE_HOST_CONSOLE") == "true" {
		cfg.HostConsole = false
	}

	return cfg
}

// =============================================================================
// STORAGE CONFIGURATION
// =============================================================================

// StorageConfig holds paths for save slots and the audit log.
type StorageConfig struct {
	DBPath       string // SQLite file with save slots; empty disables saves
	EventLogPath string // JSONL audit log; empty disables the log
}

// DefaultStorage returns the default storage configuration.
func DefaultStorage() StorageConfig {
	return StorageConfig{
		DBPath:       "data/quiz-show.db",
		EventLogPath: "events.jsonl",
	}
}

// StorageFromEnv returns storage configuration with environment variable overrides.
func StorageFromEnv() StorageConfig {
	cfg := DefaultStorage()

	if v, ok := os.LookupEnv("DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = v
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Rules   RulesConfig
	Timer   TimerConfig
	Server  ServerConfig
	Storage StorageConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Rules:   RulesFromEnv(),
		Timer:   TimerFromEnv(),
		Server:  ServerFromEnv(),
		Storage: StorageFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
