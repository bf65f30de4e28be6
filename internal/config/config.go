// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all arena and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// WORLD / SPATIAL CONFIGURATION
// =============================================================================

// WorldConfig holds the arena dimensions and the spatial grid's cell size.
// These values are pinned by the wire contract: clients assume this
// world size when interpreting position updates.
type WorldConfig struct {
	Width    float64 // Arena width in world units
	Height   float64 // Arena height in world units
	CellSize float64 // Spatial grid cell side length
}

// DefaultWorld returns the default world configuration.
// This is the SINGLE SOURCE OF TRUTH for arena size and grid resolution.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:    1600,
		Height:   1600,
		CellSize: 100,
	}
}

// WorldFromEnv returns world configuration with environment variable overrides.
func WorldFromEnv() WorldConfig {
	cfg := DefaultWorld()

	if w := getEnvFloat("WORLD_WIDTH", -1); w > 0 {
		cfg.Width = w
	}
	if h := getEnvFloat("WORLD_HEIGHT", -1); h > 0 {
		cfg.Height = h
	}
	if c := getEnvFloat("CELL_SIZE", -1); c > 0 {
		cfg.CellSize = c
	}

	return cfg
}

// =============================================================================
// GAMEPLAY TUNABLES (wire-pinned constants, see spec §6)
// =============================================================================

// GameplayConfig holds the fixed tuning constants the wire contract pins:
// the view window band, player speed, and tick/TTL timings.
type GameplayConfig struct {
	ViewWidth    float64 // Half-width of the view window band (FIXED_VIEW_WIDTH)
	ViewHeight   float64 // Half-height of the view window band (FIXED_VIEW_HEIGHT)
	PlayerSpeed  float64 // Units/second for a full-speed player
	DeathGraceMs int64   // Grace window an object stays indexed after death
	PlayerTickMs int64   // view_tick period
	ObjectTickMs int64   // object_tick period
}

// DefaultGameplay returns the default gameplay configuration.
func DefaultGameplay() GameplayConfig {
	return GameplayConfig{
		ViewWidth:    1600,
		ViewHeight:   900,
		PlayerSpeed:  200,
		DeathGraceMs: 1000,
		PlayerTickMs: 10,
		ObjectTickMs: 30,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket listener settings.
type ServerConfig struct {
	Port        int
	WorkerCount int // Number of sharded I/O workers (default N=4, spec §4.E)
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:        12345,
		WorkerCount: 4,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if w := getEnvInt("WORKER_COUNT", 0); w > 0 {
		cfg.WorkerCount = w
	}

	return cfg
}

// =============================================================================
// RESOURCE LIMITS (DoS protection)
// =============================================================================

// ResourceLimits controls connection and rate limiting, the same role
// the teacher's ResourceLimits plays for its particle/effect caps.
type ResourceLimits struct {
	MaxConnectionsTotal int // Total WebSocket connection cap, logged at startup; the gateway enforces api.MaxWSConnectionsTotal, not this field
	MaxConnectionsPerIP int // Hard cap on WebSocket connections per IP
	RequestsPerSecond   float64
	RequestBurst        int
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxConnectionsTotal: 2000,
		MaxConnectionsPerIP: 20,
		RequestsPerSecond:   20,
		RequestBurst:        40,
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World    WorldConfig
	Gameplay GameplayConfig
	Server   ServerConfig
	Limits   ResourceLimits
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:    WorldFromEnv(),
		Gameplay: DefaultGameplay(),
		Server:   ServerFromEnv(),
		Limits:   DefaultLimits(),
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

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
