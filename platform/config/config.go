// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Engine modes. Test mode makes simulated channels deterministic and raises
// the default close probability cap.
const (
	ModeLive = "live"
	ModeTest = "test"
)

const (
	defaultMaxCloseProbabilityLive = 0.20
	defaultMaxCloseProbabilityTest = 0.25
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RateLimitConfig provides settings for the per-IP request limiter.
// A zero rate disables limiting.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// EngineConfig provides the revenue cycle engine settings.
type EngineConfig interface {
	GetEngineMode() string
	GetEngineSeed() int64
	GetCycleInterval() time.Duration
	GetLeadsPerCycle() int
	GetMaxLeadsPerCycle() int
	GetRunOnStartup() bool
	GetSMSThreshold() int
	GetVoiceThreshold() int
	GetCloseThreshold() int
	GetMaxCloseProbability() float64
	GetVoiceAnswerBonus() int
	GetPriceLadder() []int64
	GetCycleHistory() int
	GetRecentLeads() int
	GetFramework() Framework
}

// ChannelConfig provides settings shared by all outreach channels.
type ChannelConfig interface {
	GetChannelTimeout() time.Duration
	GetChannelSimulatedLatency() time.Duration
	GetChannelRatePerSec() float64
	GetSimulateChannels() bool
	IsEmailChannelEnabled() bool
	IsSMSChannelEnabled() bool
	IsVoiceChannelEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSGatewayKey() string
	GetSMSSenderID() string
}

// VoiceConfig provides settings for the voice gateway.
type VoiceConfig interface {
	GetVoiceGatewayURL() string
	GetVoiceGatewayKey() string
	GetVoiceCallerID() string
}

// SchedulerConfig provides Redis and asynq settings for background tasks.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketCycleArchive() string
	IsMinIOEnabled() bool
}

// ReportConfig provides settings for cycle report delivery.
type ReportConfig interface {
	GetReportEmailTo() string
}

// CreditsConfig provides settings for the time-derived credit counter.
type CreditsConfig interface {
	GetCreditsGenesis() time.Time
	GetCreditsPerSecond() int64
}

// Framework is the descriptive model record the engine echoes in its stats.
type Framework struct {
	Alpha           float64 `json:"alpha" yaml:"alpha"`
	ComplexityLabel string  `json:"complexity_label" yaml:"complexity_label"`
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool
	RateLimitRPS   float64
	RateLimitBurst int

	EngineMode          string
	EngineSeed          int64
	CycleInterval       time.Duration
	LeadsPerCycle       int
	MaxLeadsPerCycle    int
	RunOnStartup        bool
	SMSThreshold        int
	VoiceThreshold      int
	CloseThreshold      int
	MaxCloseProbability float64
	VoiceAnswerBonus    int
	PriceLadder         []int64
	CycleHistory        int
	RecentLeads         int
	Framework           Framework

	ChannelTimeout          time.Duration
	ChannelSimulatedLatency time.Duration
	ChannelRatePerSec       float64
	SimulateChannels        bool
	EmailChannelEnabled     bool
	SMSChannelEnabled       bool
	VoiceChannelEnabled     bool

	BrevoAPIKey      string
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	SMSGatewayURL   string
	SMSGatewayKey   string
	SMSSenderID     string
	VoiceGatewayURL string
	VoiceGatewayKey string
	VoiceCallerID   string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	DatabaseURL             string
	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinioBucketCycleArchive string

	ReportEmailTo    string
	CreditsGenesis   time.Time
	CreditsPerSecond int64
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RateLimitConfig implementation
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// EngineConfig implementation
func (c *Config) GetEngineMode() string            { return c.EngineMode }
func (c *Config) GetEngineSeed() int64             { return c.EngineSeed }
func (c *Config) GetCycleInterval() time.Duration  { return c.CycleInterval }
func (c *Config) GetLeadsPerCycle() int            { return c.LeadsPerCycle }
func (c *Config) GetMaxLeadsPerCycle() int         { return c.MaxLeadsPerCycle }
func (c *Config) GetRunOnStartup() bool            { return c.RunOnStartup }
func (c *Config) GetSMSThreshold() int             { return c.SMSThreshold }
func (c *Config) GetVoiceThreshold() int           { return c.VoiceThreshold }
func (c *Config) GetCloseThreshold() int           { return c.CloseThreshold }
func (c *Config) GetMaxCloseProbability() float64  { return c.MaxCloseProbability }
func (c *Config) GetVoiceAnswerBonus() int         { return c.VoiceAnswerBonus }
func (c *Config) GetCycleHistory() int             { return c.CycleHistory }
func (c *Config) GetRecentLeads() int              { return c.RecentLeads }
func (c *Config) GetFramework() Framework          { return c.Framework }
func (c *Config) GetPriceLadder() []int64 {
	ladder := make([]int64, len(c.PriceLadder))
	copy(ladder, c.PriceLadder)
	return ladder
}

// ChannelConfig implementation
func (c *Config) GetChannelTimeout() time.Duration          { return c.ChannelTimeout }
func (c *Config) GetChannelSimulatedLatency() time.Duration { return c.ChannelSimulatedLatency }
func (c *Config) GetChannelRatePerSec() float64             { return c.ChannelRatePerSec }
func (c *Config) GetSimulateChannels() bool                 { return c.SimulateChannels }

// IsEmailChannelEnabled reports whether the email channel may send. Outside
// simulation a channel without credentials is disabled.
func (c *Config) IsEmailChannelEnabled() bool {
	if !c.EmailChannelEnabled {
		return false
	}
	return c.SimulateChannels || c.GetEmailEnabled()
}

func (c *Config) IsSMSChannelEnabled() bool {
	if !c.SMSChannelEnabled {
		return false
	}
	return c.SimulateChannels || c.SMSGatewayURL != ""
}

func (c *Config) IsVoiceChannelEnabled() bool {
	if !c.VoiceChannelEnabled {
		return false
	}
	return c.SimulateChannels || c.VoiceGatewayURL != ""
}

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool {
	return c.EmailFromAddress != "" && (c.BrevoAPIKey != "" || c.SMTPHost != "")
}
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SMSConfig implementation
func (c *Config) GetSMSGatewayURL() string { return c.SMSGatewayURL }
func (c *Config) GetSMSGatewayKey() string { return c.SMSGatewayKey }
func (c *Config) GetSMSSenderID() string   { return c.SMSSenderID }

// VoiceConfig implementation
func (c *Config) GetVoiceGatewayURL() string { return c.VoiceGatewayURL }
func (c *Config) GetVoiceGatewayKey() string { return c.VoiceGatewayKey }
func (c *Config) GetVoiceCallerID() string   { return c.VoiceCallerID }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketCycleArchive() string {
	return c.MinioBucketCycleArchive
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// ReportConfig implementation
func (c *Config) GetReportEmailTo() string { return c.ReportEmailTo }

// CreditsConfig implementation
func (c *Config) GetCreditsGenesis() time.Time { return c.CreditsGenesis }
func (c *Config) GetCreditsPerSecond() int64   { return c.CreditsPerSecond }

// Load reads configuration from environment variables. An optional YAML
// engine profile (ENGINE_PROFILE) supplies engine defaults; environment
// variables always win over the profile.
func Load() (*Config, error) {
	_ = godotenv.Load()

	profile, err := loadProfile(getEnv("ENGINE_PROFILE", ""))
	if err != nil {
		return nil, err
	}

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "*"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	mode := strings.ToLower(getEnv("ENGINE_MODE", ModeLive))
	defaultPMax := defaultMaxCloseProbabilityLive
	if mode == ModeTest {
		defaultPMax = defaultMaxCloseProbabilityTest
	}
	if profile.MaxCloseProbability != nil {
		defaultPMax = *profile.MaxCloseProbability
	}

	httpAddr := getEnv("HTTP_ADDR", ":8080")
	if port := getEnv("PORT", ""); port != "" {
		httpAddr = ":" + port
	}

	p := &parser{}
	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       httpAddr,
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RateLimitRPS:   p.float("RATE_LIMIT_RPS", "0"),
		RateLimitBurst: p.int("RATE_LIMIT_BURST", "20"),

		EngineMode:          mode,
		EngineSeed:          p.int64("ENGINE_SEED", "0"),
		CycleInterval:       p.duration("CYCLE_INTERVAL", profile.cycleInterval("1h")),
		LeadsPerCycle:       p.int("LEADS_PER_CYCLE", profile.leadsPerCycle("100")),
		MaxLeadsPerCycle:    p.int("MAX_LEADS_PER_CYCLE", "100000"),
		RunOnStartup:        p.bool("RUN_ON_STARTUP", "true"),
		SMSThreshold:        p.int("SMS_THRESHOLD", profile.threshold(profile.Thresholds.SMS, "60")),
		VoiceThreshold:      p.int("VOICE_THRESHOLD", profile.threshold(profile.Thresholds.Voice, "70")),
		CloseThreshold:      p.int("CLOSE_THRESHOLD", profile.threshold(profile.Thresholds.Close, "50")),
		MaxCloseProbability: p.float("MAX_CLOSE_PROBABILITY", strconv.FormatFloat(defaultPMax, 'f', -1, 64)),
		VoiceAnswerBonus:    p.int("VOICE_ANSWER_BONUS", profile.threshold(profile.VoiceAnswerBonus, "20")),
		PriceLadder:         p.ladder("PRICE_LADDER", profile.priceLadder("497,997,1997,2997,5497")),
		CycleHistory:        p.int("CYCLE_HISTORY", "50"),
		RecentLeads:         p.int("RECENT_LEADS", "100"),
		Framework: Framework{
			Alpha:           p.float("FRAMEWORK_ALPHA", profile.frameworkAlpha("0")),
			ComplexityLabel: getEnv("FRAMEWORK_COMPLEXITY", profile.Framework.ComplexityLabel),
		},

		ChannelTimeout:          p.duration("CHANNEL_TIMEOUT", "5s"),
		ChannelSimulatedLatency: p.duration("CHANNEL_SIMULATED_LATENCY", "0s"),
		ChannelRatePerSec:       p.float("CHANNEL_RATE_PER_SEC", "0"),
		SimulateChannels:        p.bool("SIMULATE_CHANNELS", "true"),
		EmailChannelEnabled:     p.bool("EMAIL_ENABLED", "true"),
		SMSChannelEnabled:       p.bool("SMS_ENABLED", "true"),
		VoiceChannelEnabled:     p.bool("VOICE_ENABLED", "true"),

		BrevoAPIKey:      getEnv("BREVO_API_KEY", ""),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         p.int("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Revenue Desk"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		SMSGatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayKey:   getEnv("SMS_GATEWAY_KEY", ""),
		SMSSenderID:     getEnv("SMS_SENDER_ID", ""),
		VoiceGatewayURL: getEnv("VOICE_GATEWAY_URL", ""),
		VoiceGatewayKey: getEnv("VOICE_GATEWAY_KEY", ""),
		VoiceCallerID:   getEnv("VOICE_CALLER_ID", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: p.bool("REDIS_TLS_INSECURE", "false"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: p.int("ASYNQ_CONCURRENCY", "5"),

		DatabaseURL:             getEnv("DATABASE_URL", ""),
		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             p.bool("MINIO_USE_SSL", "false"),
		MinioBucketCycleArchive: getEnv("MINIO_BUCKET_CYCLE_ARCHIVE", "revenue-cycles"),

		ReportEmailTo:    getEnv("REPORT_EMAIL_TO", ""),
		CreditsGenesis:   p.time("CREDITS_GENESIS", ""),
		CreditsPerSecond: p.int64("CREDITS_PER_SECOND", "1"),
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants the engine relies on. Any violation is a
// fatal startup error.
func (c *Config) Validate() error {
	if c.EngineMode != ModeLive && c.EngineMode != ModeTest {
		return fmt.Errorf("ENGINE_MODE must be %q or %q", ModeLive, ModeTest)
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("CYCLE_INTERVAL must be positive")
	}
	if c.LeadsPerCycle < 0 {
		return fmt.Errorf("LEADS_PER_CYCLE cannot be negative")
	}
	if c.MaxLeadsPerCycle < 1 || c.LeadsPerCycle > c.MaxLeadsPerCycle {
		return fmt.Errorf("LEADS_PER_CYCLE must not exceed MAX_LEADS_PER_CYCLE")
	}
	for name, value := range map[string]int{
		"SMS_THRESHOLD":   c.SMSThreshold,
		"VOICE_THRESHOLD": c.VoiceThreshold,
		"CLOSE_THRESHOLD": c.CloseThreshold,
	} {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be within [0,100]", name)
		}
	}
	if c.VoiceAnswerBonus < 0 {
		return fmt.Errorf("VOICE_ANSWER_BONUS cannot be negative")
	}
	if c.MaxCloseProbability < 0 || c.MaxCloseProbability > 1 {
		return fmt.Errorf("MAX_CLOSE_PROBABILITY must be within [0,1]")
	}
	if len(c.PriceLadder) == 0 {
		return fmt.Errorf("PRICE_LADDER must contain at least one price")
	}
	for i, price := range c.PriceLadder {
		if price <= 0 {
			return fmt.Errorf("PRICE_LADDER prices must be positive")
		}
		if i > 0 && price < c.PriceLadder[i-1] {
			return fmt.Errorf("PRICE_LADDER must be ordered ascending")
		}
	}
	if c.CycleHistory < 1 {
		return fmt.Errorf("CYCLE_HISTORY must be positive")
	}
	if c.RecentLeads < 1 {
		return fmt.Errorf("RECENT_LEADS must be positive")
	}
	if c.ChannelTimeout <= 0 {
		return fmt.Errorf("CHANNEL_TIMEOUT must be positive")
	}
	if c.ChannelSimulatedLatency < 0 || c.ChannelRatePerSec < 0 {
		return fmt.Errorf("channel latency and rate cannot be negative")
	}
	if worst := c.WorstCaseCycleDuration(); worst >= c.CycleInterval {
		return fmt.Errorf("worst-case cycle duration %s must stay below CYCLE_INTERVAL %s", worst, c.CycleInterval)
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS cannot be negative")
	}
	return nil
}

// WorstCaseCycleDuration bounds one cycle: every lead may touch three
// channels, each bounded by its per-lead latency budget.
func (c *Config) WorstCaseCycleDuration() time.Duration {
	perCall := c.ChannelTimeout
	if c.SimulateChannels && c.ChannelSimulatedLatency < perCall {
		perCall = c.ChannelSimulatedLatency
	}
	return time.Duration(c.LeadsPerCycle) * 3 * perCall
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// parser collects the first conversion error so Load can report it after
// building the struct.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) int(key, fallback string) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) int64(key, fallback string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(getEnv(key, fallback)), 10, 64)
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) float(key, fallback string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(getEnv(key, fallback)), 64)
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) bool(key, fallback string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) duration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		p.fail(key, err)
	}
	return d
}

func (p *parser) time(key, fallback string) time.Time {
	raw := strings.TrimSpace(getEnv(key, fallback))
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		p.fail(key, err)
	}
	return t.UTC()
}

func (p *parser) ladder(key, fallback string) []int64 {
	parts := splitCSV(getEnv(key, fallback))
	ladder := make([]int64, 0, len(parts))
	for _, part := range parts {
		price, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			p.fail(key, err)
			return nil
		}
		ladder = append(ladder, price)
	}
	return ladder
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
