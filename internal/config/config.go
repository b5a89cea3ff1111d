package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"decihire/internal/model"
	"decihire/internal/scoring"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds process configuration, read once at startup
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	Port      string

	JWTSecret             string
	RecruiterUsername     string
	RecruiterPasswordHash string // bcrypt
	CandidateTokenTTL     time.Duration

	CompletionPolicy model.CompletionPolicy
	InvitationTTL    time.Duration
	BankCacheTTL     time.Duration
	SessionLockTTL   time.Duration
	SessionTimeLimit time.Duration // zero disables the deadline

	// Store retry (services only, the engine never retries)
	RetryAttempts  int
	RetryBaseDelay time.Duration

	LogLevel string
	Scoring  scoring.Config
}

// Load reads .env (if present), the optional scoring YAML file and env vars.
// Env vars win over the YAML file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] .env not loaded: %v", err)
	}

	cfg := &Config{
		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:               getEnv("MONGO_DB", "decihire"),
		RedisAddr:             trimRedisScheme(getEnv("REDIS_URI", "localhost:6379")),
		Port:                  getEnv("PORT", "8080"),
		JWTSecret:             getEnv("JWT_SECRET", "change-me-in-production"),
		RecruiterUsername:     getEnv("RECRUITER_USERNAME", "recruiter"),
		RecruiterPasswordHash: os.Getenv("RECRUITER_PASSWORD_HASH"),
		CandidateTokenTTL:     getDuration("CANDIDATE_TOKEN_TTL", 4*time.Hour),
		CompletionPolicy:      model.CompletionPolicy(getEnv("COMPLETION_POLICY", string(model.PolicyAllowPartial))),
		InvitationTTL:         getDuration("INVITATION_TTL", 72*time.Hour),
		BankCacheTTL:          getDuration("BANK_CACHE_TTL", 10*time.Minute),
		SessionLockTTL:        getDuration("SESSION_LOCK_TTL", 5*time.Second),
		SessionTimeLimit:      getDuration("SESSION_TIME_LIMIT", 10*time.Minute),
		RetryAttempts:         getInt("STORE_RETRY_ATTEMPTS", 3),
		RetryBaseDelay:        getDuration("STORE_RETRY_BASE_DELAY", 100*time.Millisecond),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		Scoring:               scoring.DefaultConfig(),
	}

	if path := os.Getenv("SCORING_CONFIG"); path != "" {
		if err := loadScoringFile(path, &cfg.Scoring); err != nil {
			return nil, err
		}
	}
	applyScoringEnv(&cfg.Scoring)

	if !cfg.CompletionPolicy.Valid() {
		return nil, fmt.Errorf("config: unknown COMPLETION_POLICY %q", cfg.CompletionPolicy)
	}
	if cfg.RetryAttempts < 1 {
		return nil, fmt.Errorf("config: STORE_RETRY_ATTEMPTS must be >= 1")
	}
	if cfg.SessionTimeLimit < 0 {
		return nil, fmt.Errorf("config: SESSION_TIME_LIMIT cannot be negative")
	}
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("config: scoring: %w", err)
	}
	return cfg, nil
}

// scoringFile mirrors the YAML layout; absent keys keep their defaults
type scoringFile struct {
	Rubric        map[model.Grade]float64 `yaml:"rubric"`
	PassThreshold *float64                `yaml:"passThreshold"`
	Latency       struct {
		TooFastMs      *int64   `yaml:"tooFastMs"`
		OptimalMinMs   *int64   `yaml:"optimalMinMs"`
		OptimalMaxMs   *int64   `yaml:"optimalMaxMs"`
		ImpulsiveShare *float64 `yaml:"impulsiveShare"`
		HesitantShare  *float64 `yaml:"hesitantShare"`
	} `yaml:"latency"`
}

func loadScoringFile(path string, dst *scoring.Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read scoring file: %w", err)
	}
	return parseScoring(raw, dst)
}

func parseScoring(raw []byte, dst *scoring.Config) error {
	var f scoringFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("config: parse scoring file: %w", err)
	}

	for g, v := range f.Rubric {
		dst.Rubric[g] = v
	}
	if f.PassThreshold != nil {
		dst.PassThreshold = *f.PassThreshold
	}
	l := &dst.Latency
	if f.Latency.TooFastMs != nil {
		l.TooFastMs = *f.Latency.TooFastMs
	}
	if f.Latency.OptimalMinMs != nil {
		l.OptimalMinMs = *f.Latency.OptimalMinMs
	}
	if f.Latency.OptimalMaxMs != nil {
		l.OptimalMaxMs = *f.Latency.OptimalMaxMs
	}
	if f.Latency.ImpulsiveShare != nil {
		l.ImpulsiveShare = *f.Latency.ImpulsiveShare
	}
	if f.Latency.HesitantShare != nil {
		l.HesitantShare = *f.Latency.HesitantShare
	}
	return nil
}

func applyScoringEnv(s *scoring.Config) {
	s.PassThreshold = getFloat("PASS_THRESHOLD", s.PassThreshold)
	s.Latency.TooFastMs = int64(getInt("LATENCY_TOO_FAST_MS", int(s.Latency.TooFastMs)))
	s.Latency.OptimalMinMs = int64(getInt("LATENCY_OPTIMAL_MIN_MS", int(s.Latency.OptimalMinMs)))
	s.Latency.OptimalMaxMs = int64(getInt("LATENCY_OPTIMAL_MAX_MS", int(s.Latency.OptimalMaxMs)))
}

// ConfigureLogging sets the logrus level and formatter
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Printf("[Config] unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[Config] %s=%q is not an integer, using %d", key, val, defaultVal)
		return defaultVal
	}
	return n
}

func getFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("[Config] %s=%q is not a number, using %.2f", key, val, defaultVal)
		return defaultVal
	}
	return f
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("[Config] %s=%q is not a duration, using %s", key, val, defaultVal)
		return defaultVal
	}
	return d
}

// Remove redis:// prefix if present
func trimRedisScheme(addr string) string {
	if len(addr) > 8 && addr[:8] == "redis://" {
		return addr[8:]
	}
	return addr
}
