package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Upload    UploadConfig    `json:"upload"`
	Image     ImageConfig     `json:"image"`
	Converter ConverterConfig `json:"converter"`
	HTTP      HTTPConfig      `json:"http"`
	Sentry    SentryConfig    `json:"sentry"`
	Log       LogConfig       `json:"log"`
}

// Durations are given in seconds unless the field says otherwise.
type ServerConfig struct {
	Port            int           `json:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `json:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gte=0"`
}

type UploadConfig struct {
	MaxFileSizeMB int64  `json:"max_file_size_mb" validate:"gte=1"`
	TempDir       string `json:"temp_dir"`
}

func (u UploadConfig) MaxFileSize() int64 { return u.MaxFileSizeMB << 20 }

// ImageConfig holds the fallbacks used when a form field is absent.
type ImageConfig struct {
	Quality      int     `json:"quality" validate:"gte=0,lte=100"`
	Threshold    int     `json:"threshold" validate:"gte=0,lte=255"`
	TurdSize     int     `json:"turd_size" validate:"gte=0"`
	AlphaMax     float64 `json:"alpha_max" validate:"gte=0,lte=1.33"`
	OptCurve     bool    `json:"opt_curve"`
	OptTolerance float64 `json:"opt_tolerance" validate:"gte=0,lte=1"`
	TurnPolicy   string  `json:"turn_policy" validate:"omitempty,oneof=minority majority black white left right"`
	// MaxMegapixels caps width*height of an upload, checked from its header
	// before decoding.
	MaxMegapixels int `json:"max_megapixels" validate:"gte=1"`
}

func (i ImageConfig) MaxPixels() int { return i.MaxMegapixels * 1_000_000 }

type ConverterConfig struct {
	ServiceURL        string        `json:"service_url" validate:"omitempty,url"`
	Timeout           time.Duration `json:"timeout" validate:"gte=0"`
	MaxAttempts       int           `json:"max_attempts" validate:"gte=1,lte=5"`
	RetryBaseDelayMS  time.Duration `json:"retry_base_delay" validate:"gte=0"`
	RequestsPerSecond float64       `json:"requests_per_second" validate:"gte=0"`
}

type HTTPConfig struct {
	AllowedOrigins     []string `json:"allowed_origins"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute" validate:"gte=0"`
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}

type LogConfig struct {
	Level       string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `json:"development"`
}
