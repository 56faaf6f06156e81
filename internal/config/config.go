package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Perturbation modes for the heuristic fraud score
const (
	PerturbationNone   = "none"
	PerturbationSeeded = "seeded"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxUploadSize      int64
	WorkerCount        int

	// Neural backend; empty address means heuristic scoring only
	InferenceAddr    string
	InferenceTimeout time.Duration

	OCRLanguage string

	PerturbationMode string
	PerturbationSeed int64

	AzureStorageAccount string
	AzureStorageKey     string

	CORSAllowedOrigins []string
	JWTSecret          string
	LogLevel           string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// NeuralEnabled reports whether a neural inference backend was configured
func (c *Config) NeuralEnabled() bool {
	return strings.TrimSpace(c.InferenceAddr) != ""
}

// AzureEnabled reports whether blob storage credentials were configured
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// AuthEnabled reports whether bearer-token auth guards the API
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("image_fetch_timeout", 15*time.Second)
	v.SetDefault("analysis_timeout", 45*time.Second)
	v.SetDefault("max_request_body_size", int64(64*1024*1024))
	v.SetDefault("max_upload_size", int64(10*1024*1024))
	v.SetDefault("worker_count", runtime.NumCPU())
	v.SetDefault("inference_addr", "")
	v.SetDefault("inference_timeout", 10*time.Second)
	v.SetDefault("ocr_language", "eng")
	v.SetDefault("fraud_perturbation", PerturbationNone)
	v.SetDefault("fraud_perturbation_seed", int64(0))
	v.SetDefault("azure_storage_account", "")
	v.SetDefault("azure_storage_key", "")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()
	return v
}

// LoadFromEnv reads configuration from the environment, optionally layered
// over the file named by CONFIG_FILE.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Host:                v.GetString("host"),
		Port:                v.GetString("port"),
		RequestTimeout:      v.GetDuration("request_timeout"),
		ImageFetchTimeout:   v.GetDuration("image_fetch_timeout"),
		AnalysisTimeout:     v.GetDuration("analysis_timeout"),
		MaxRequestBodySize:  v.GetInt64("max_request_body_size"),
		MaxUploadSize:       v.GetInt64("max_upload_size"),
		WorkerCount:         v.GetInt("worker_count"),
		InferenceAddr:       strings.TrimSpace(v.GetString("inference_addr")),
		InferenceTimeout:    v.GetDuration("inference_timeout"),
		OCRLanguage:         v.GetString("ocr_language"),
		PerturbationMode:    strings.ToLower(strings.TrimSpace(v.GetString("fraud_perturbation"))),
		PerturbationSeed:    v.GetInt64("fraud_perturbation_seed"),
		AzureStorageAccount: v.GetString("azure_storage_account"),
		AzureStorageKey:     v.GetString("azure_storage_key"),
		CORSAllowedOrigins:  splitList(v.GetString("cors_allowed_origins")),
		JWTSecret:           v.GetString("jwt_secret"),
		LogLevel:            v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.NeuralEnabled() && c.InferenceTimeout <= 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must be > 0 when INFERENCE_ADDR is set (got %s)", c.InferenceTimeout)
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = runtime.NumCPU()
	}
	switch c.PerturbationMode {
	case PerturbationNone, PerturbationSeeded:
	case "":
		c.PerturbationMode = PerturbationNone
	default:
		return fmt.Errorf("invalid FRAUD_PERTURBATION: %q (want %q or %q)", c.PerturbationMode, PerturbationNone, PerturbationSeeded)
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
