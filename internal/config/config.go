// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for databases and model artifacts
	LogLevel  string
	Port      int
	DevMode   bool
	Selection SelectionConfig
	Gate      GateConfig
	Artifact  ArtifactConfig
	Schedule  ScheduleConfig
}

// SelectionConfig carries every tunable of the scoring and calibration path.
// The defaults mirror the values the system has been run with; none of them
// is claimed to be optimal and all can be overridden from the environment.
type SelectionConfig struct {
	// Composite score weights (must sum to 1.0)
	WeightPerformance  float64
	WeightConditionFit float64
	WeightRiskAdjusted float64
	WeightVolMatch     float64

	// Rule-score vs. learned-model blend
	BlendRuleWeight  float64
	BlendModelWeight float64

	// Elimination thresholds (applied when trade count >= MinTradesForStats)
	MinTradesForStats int
	MinWinRate        float64
	MinAvgReturn      float64
	MinConsistency    float64

	// Rolling window of per-variant returns
	WindowSize int

	// Labeled selection records required before a retrain is attempted
	RetrainMinRecords int
}

// GateConfig holds market-gate settings.
type GateConfig struct {
	// Tradable underlyings; everything else hard-blocks
	InstrumentWhitelist []string
	// Calendar / danger-zone cache TTL in seconds
	CacheTTLSeconds int
}

// ArtifactConfig holds learned-model artifact storage settings.
// When Bucket is empty the file store under DataDir is used.
type ArtifactConfig struct {
	Bucket    string
	Endpoint  string // S3-compatible endpoint (e.g. Cloudflare R2)
	AccessKey string
	SecretKey string
	Region    string
}

// ScheduleConfig holds cron expressions for background jobs.
type ScheduleConfig struct {
	Calibration      string // weekly by default
	PerformanceFlush string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STRATAGEM_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("STRATAGEM_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Selection: SelectionConfig{
			WeightPerformance:  getEnvAsFloat("SCORE_WEIGHT_PERFORMANCE", 0.4),
			WeightConditionFit: getEnvAsFloat("SCORE_WEIGHT_CONDITION_FIT", 0.3),
			WeightRiskAdjusted: getEnvAsFloat("SCORE_WEIGHT_RISK_ADJUSTED", 0.2),
			WeightVolMatch:     getEnvAsFloat("SCORE_WEIGHT_VOL_MATCH", 0.1),
			BlendRuleWeight:    getEnvAsFloat("BLEND_RULE_WEIGHT", 0.7),
			BlendModelWeight:   getEnvAsFloat("BLEND_MODEL_WEIGHT", 0.3),
			MinTradesForStats:  getEnvAsInt("ELIMINATION_MIN_TRADES", 10),
			MinWinRate:         getEnvAsFloat("ELIMINATION_MIN_WIN_RATE", 0.30),
			MinAvgReturn:       getEnvAsFloat("ELIMINATION_MIN_AVG_RETURN", -0.05),
			MinConsistency:     getEnvAsFloat("ELIMINATION_MIN_CONSISTENCY", 0.20),
			WindowSize:         getEnvAsInt("PERFORMANCE_WINDOW_SIZE", 100),
			RetrainMinRecords:  getEnvAsInt("RETRAIN_MIN_RECORDS", 50),
		},
		Gate: GateConfig{
			InstrumentWhitelist: getEnvAsList("INSTRUMENT_WHITELIST", []string{"NIFTY", "BANKNIFTY"}),
			CacheTTLSeconds:     getEnvAsInt("GATE_CACHE_TTL_SECONDS", 900),
		},
		Artifact: ArtifactConfig{
			Bucket:    getEnv("ARTIFACT_BUCKET", ""),
			Endpoint:  getEnv("ARTIFACT_ENDPOINT", ""),
			AccessKey: getEnv("ARTIFACT_ACCESS_KEY", ""),
			SecretKey: getEnv("ARTIFACT_SECRET_KEY", ""),
			Region:    getEnv("ARTIFACT_REGION", "auto"),
		},
		Schedule: ScheduleConfig{
			Calibration:      getEnv("CALIBRATION_SCHEDULE", "0 0 16 * * SUN"),
			PerformanceFlush: getEnv("PERFORMANCE_FLUSH_SCHEDULE", "0 */15 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	s := c.Selection
	weightSum := s.WeightPerformance + s.WeightConditionFit + s.WeightRiskAdjusted + s.WeightVolMatch
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("score weights must sum to 1.0, got %.3f", weightSum)
	}

	blendSum := s.BlendRuleWeight + s.BlendModelWeight
	if blendSum < 0.999 || blendSum > 1.001 {
		return fmt.Errorf("blend weights must sum to 1.0, got %.3f", blendSum)
	}

	if s.WindowSize <= 0 {
		return fmt.Errorf("performance window size must be positive, got %d", s.WindowSize)
	}

	if len(c.Gate.InstrumentWhitelist) == 0 {
		return fmt.Errorf("instrument whitelist must not be empty")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
