// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Defaults for values that have one.
const (
	DefaultOutputDir    = "output/runs"
	DefaultPDFMode      = PDFModeSingle
	DefaultEmailSubject = "Your Interview Q&A Pack"
	DefaultSMTPHost     = "smtp.gmail.com"
	DefaultSMTPPort     = 587
	DefaultMaxToolSteps = 8
	DefaultAMQPQueue    = "interview_prep.events"
)

// PDF modes.
const (
	PDFModeSingle   = "single"
	PDFModePerRound = "per_round"
)

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string `json:"smtp_host,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	Port     int    `json:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	User     string `json:"smtp_user,omitempty"`
	Password string `json:"smtp_password,omitempty"`
	From     string `json:"from_email,omitempty" validate:"omitempty,email"`
}

// SearchConfig holds Google Programmable Search credentials.
type SearchConfig struct {
	APIKey   string `json:"search_api_key,omitempty"`
	EngineID string `json:"search_engine_id,omitempty" validate:"required_with=APIKey"`
}

// S3Config holds the optional artifact mirror.
type S3Config struct {
	Bucket   string `json:"s3_bucket,omitempty"`
	Region   string `json:"s3_region,omitempty" validate:"required_with=Bucket"`
	Endpoint string `json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	Prefix   string `json:"s3_prefix,omitempty"`

	// Static keys for S3-compatible endpoints. Empty means the default AWS credential chain.
	AccessKeyID     string `json:"s3_access_key_id,omitempty" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `json:"s3_secret_access_key,omitempty" validate:"required_with=AccessKeyID"`
}

// AMQPConfig holds the optional event publisher.
type AMQPConfig struct {
	URL   string `json:"amqp_url,omitempty" validate:"omitempty,url"`
	Queue string `json:"amqp_queue,omitempty"`
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	Resume          string `json:"resume,omitempty"`
	JD              string `json:"jd,omitempty"`
	Notes           string `json:"notes,omitempty"`
	InterviewRounds string `json:"interview_rounds,omitempty"`
	Company         string `json:"company,omitempty"`
	Role            string `json:"role,omitempty"`

	// Output
	OutputDir    string `json:"output_dir,omitempty"`
	PDFMode      string `json:"pdf_mode,omitempty" validate:"omitempty,oneof=single per_round"`
	SendEmail    bool   `json:"send_email,omitempty"`
	ToEmail      string `json:"to_email,omitempty" validate:"omitempty,email"`
	EmailSubject string `json:"email_subject,omitempty"`

	// Behavior
	APIKey         string `json:"api_key,omitempty"` // Gemini API key
	EmbeddingModel string `json:"embedding_model,omitempty"`
	MaxToolSteps   int    `json:"max_tool_steps,omitempty" validate:"gte=0,lte=50"`
	UseBrowser     bool   `json:"use_browser,omitempty"` // Use headless browser for SPA sites
	Verbose        bool   `json:"verbose,omitempty"`     // Print detailed debug information
	DatabaseURL    string `json:"database_url,omitempty"`

	SMTP   SMTPConfig   `json:"smtp"`
	Search SearchConfig `json:"search"`
	S3     S3Config     `json:"s3"`
	AMQP   AMQPConfig   `json:"amqp"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the settings that have environment variables.
func FromEnv() Config {
	return FromLookup(os.Getenv)
}

// FromLookup is FromEnv over an arbitrary lookup function.
func FromLookup(getenv func(string) string) Config {
	cfg := Config{
		APIKey:         firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY")),
		DatabaseURL:    getenv("DATABASE_URL"),
		EmbeddingModel: getenv("EMBEDDING_MODEL"),
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST"),
			User:     getenv("SMTP_USER"),
			Password: getenv("SMTP_PASSWORD"),
			From:     getenv("FROM_EMAIL"),
		},
		Search: SearchConfig{
			APIKey:   getenv("GOOGLE_SEARCH_API_KEY"),
			EngineID: getenv("GOOGLE_SEARCH_CX"),
		},
		S3: S3Config{
			Bucket:   getenv("S3_BUCKET"),
			Region:   getenv("S3_REGION"),
			Endpoint: getenv("S3_ENDPOINT"),
			Prefix:   getenv("S3_PREFIX"),

			AccessKeyID:     getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("S3_SECRET_ACCESS_KEY"),
		},
		AMQP: AMQPConfig{
			URL:   getenv("AMQP_URL"),
			Queue: getenv("AMQP_QUEUE"),
		},
	}
	if port, err := strconv.Atoi(getenv("SMTP_PORT")); err == nil {
		cfg.SMTP.Port = port
	}
	return cfg
}

// Defaults returns the built-in values.
func Defaults() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		PDFMode:      DefaultPDFMode,
		EmailSubject: DefaultEmailSubject,
		MaxToolSteps: DefaultMaxToolSteps,
		SMTP:         SMTPConfig{Host: DefaultSMTPHost, Port: DefaultSMTPPort},
		AMQP:         AMQPConfig{Queue: DefaultAMQPQueue},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks field formats and the settings required by the enabled features.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config error: %s", describe(verrs[0]))
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.SendEmail {
		if c.SMTP.User == "" {
			return fmt.Errorf("config error: smtp_user is required when --send-email is set")
		}
		if c.SMTP.Password == "" {
			return fmt.Errorf("config error: smtp_password is required when --send-email is set")
		}
	}

	for _, p := range []struct{ name, path string }{{"resume", c.Resume}, {"jd", c.JD}, {"notes", c.Notes}} {
		if p.path == "" || isURL(p.path) {
			continue
		}
		if _, err := os.Stat(p.path); os.IsNotExist(err) {
			return fmt.Errorf("config error: %s file not found: %s", p.name, p.path)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "required_with":
		return fmt.Sprintf("%s is required when %s is set", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// SMTPReady reports whether mail can be sent with these settings.
func (c *Config) SMTPReady() bool {
	return c.SMTP.Host != "" && c.SMTP.User != "" && c.SMTP.Password != ""
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fill(&result.Resume, defaults.Resume)
	fill(&result.JD, defaults.JD)
	fill(&result.Notes, defaults.Notes)
	fill(&result.InterviewRounds, defaults.InterviewRounds)
	fill(&result.Company, defaults.Company)
	fill(&result.Role, defaults.Role)
	fill(&result.OutputDir, defaults.OutputDir)
	fill(&result.PDFMode, defaults.PDFMode)
	fill(&result.ToEmail, defaults.ToEmail)
	fill(&result.EmailSubject, defaults.EmailSubject)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.EmbeddingModel, defaults.EmbeddingModel)
	fill(&result.DatabaseURL, defaults.DatabaseURL)

	fill(&result.SMTP.Host, defaults.SMTP.Host)
	fill(&result.SMTP.User, defaults.SMTP.User)
	fill(&result.SMTP.Password, defaults.SMTP.Password)
	fill(&result.SMTP.From, defaults.SMTP.From)
	fill(&result.Search.APIKey, defaults.Search.APIKey)
	fill(&result.Search.EngineID, defaults.Search.EngineID)
	fill(&result.S3.Bucket, defaults.S3.Bucket)
	fill(&result.S3.Region, defaults.S3.Region)
	fill(&result.S3.Endpoint, defaults.S3.Endpoint)
	fill(&result.S3.Prefix, defaults.S3.Prefix)
	fill(&result.S3.AccessKeyID, defaults.S3.AccessKeyID)
	fill(&result.S3.SecretAccessKey, defaults.S3.SecretAccessKey)
	fill(&result.AMQP.URL, defaults.AMQP.URL)
	fill(&result.AMQP.Queue, defaults.AMQP.Queue)

	// Int fields: use default if zero
	if result.MaxToolSteps == 0 {
		result.MaxToolSteps = defaults.MaxToolSteps
	}
	if result.SMTP.Port == 0 {
		result.SMTP.Port = defaults.SMTP.Port
	}

	// Bool fields: cannot distinguish unset from false, so only true propagates
	result.SendEmail = result.SendEmail || defaults.SendEmail
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	// FROM_EMAIL falls back to the SMTP user
	fill(&result.SMTP.From, result.SMTP.User)

	return result
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
