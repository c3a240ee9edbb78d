package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Create new config instance with the service defaults
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30,
			WriteTimeout:    120,
			ShutdownTimeout: 10,
		},
		Upload: UploadConfig{
			MaxFileSizeMB: 10,
		},
		Image: ImageConfig{
			Quality:       80,
			Threshold:     128,
			TurdSize:      2,
			AlphaMax:      1,
			OptCurve:      true,
			OptTolerance:  0.2,
			TurnPolicy:    "minority",
			MaxMegapixels: 40,
		},
		Converter: ConverterConfig{
			Timeout:          55,
			MaxAttempts:      2,
			RetryBaseDelayMS: 300,
		},
		HTTP: HTTPConfig{
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load configuration file in json format. A missing file keeps the defaults.
func (c *Config) Read(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}

// LoadEnv reads an optional .env file and applies environment overrides.
func (c *Config) LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CONVERTER_SERVICE_URL"); v != "" {
		c.Converter.ServiceURL = v
	}
	if v := os.Getenv("CONVERTER_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONVERTER_TIMEOUT %q: %w", v, err)
		}
		c.Converter.Timeout = time.Duration(secs)
	}
	if v := os.Getenv("MAX_FILE_SIZE_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_FILE_SIZE_MB %q: %w", v, err)
		}
		c.Upload.MaxFileSizeMB = mb
	}
	if v := os.Getenv("UPLOAD_TEMP_DIR"); v != "" {
		c.Upload.TempDir = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.Sentry.SentryDSN = v
	}
	if v := os.Getenv("SENTRY_ENVIRONMENT"); v != "" {
		c.Sentry.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if wt := c.Server.WriteTimeout * time.Second; wt > 0 && c.Converter.ServiceURL != "" {
		if worst := c.RelayWorstCase(); worst >= wt {
			return fmt.Errorf("invalid config: converter timeout x max_attempts plus backoff (%s) must stay below server write_timeout (%s)", worst, wt)
		}
	}
	return nil
}

// RelayWorstCase is the longest a relayed conversion can take when every
// attempt times out.
func (c *Config) RelayWorstCase() time.Duration {
	cc := c.Converter
	worst := time.Duration(cc.MaxAttempts) * cc.Timeout * time.Second
	for attempt := 1; attempt < cc.MaxAttempts; attempt++ {
		d := (cc.RetryBaseDelayMS * time.Millisecond) << (attempt - 1)
		worst += d + d/20
	}
	return worst
}

// RelayDeadline bounds a whole relayed conversion so its error response can
// still be written before the server write timeout. Zero means unbounded.
func (c *Config) RelayDeadline() time.Duration {
	wt := c.Server.WriteTimeout * time.Second
	if wt <= 0 {
		return 0
	}
	return wt - min(time.Second, wt/2)
}
