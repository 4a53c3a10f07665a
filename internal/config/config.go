package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"commitscore/internal/common"
	"commitscore/internal/scoring"
	"commitscore/pkg/errors"
	"commitscore/pkg/models"
)

const (
	EnvPrefix = "COMMITSCORE"

	// EnvDeepSeekAPIKey is consulted before COMMITSCORE_API_KEY
	EnvDeepSeekAPIKey = "DEEPSEEK_API_KEY"
	EnvAPIKey         = EnvPrefix + "_API_KEY"
	EnvConfigFile     = EnvPrefix + "_CONFIG"

	KeyAPIKey   = "api_key"
	KeyEndpoint = "endpoint"
	KeyTimeout  = "timeout"
	KeyOutput   = "output"
	KeyLogLevel = "log_level"

	OutputText  = "text"
	OutputTable = "table"

	DefaultLogLevel = "warn"
)

// Source names where the API key was found
type Source string

const (
	SourceNone        Source = "none"
	SourceFlag        Source = "flag"
	SourceEnvDeepSeek Source = "environment (" + EnvDeepSeekAPIKey + ")"
	SourceEnvPrefixed Source = "environment (" + EnvAPIKey + ")"
	SourceFile        Source = "config file"
	SourceKeyring     Source = "keyring"
)

// Environment variables holding the API key, in lookup order
var envKeySources = []struct {
	name   string
	source Source
}{
	{EnvDeepSeekAPIKey, SourceEnvDeepSeek},
	{EnvAPIKey, SourceEnvPrefixed},
}

// flag name -> viper key
var flagKeys = map[string]string{
	"api-key":   KeyAPIKey,
	"endpoint":  KeyEndpoint,
	"timeout":   KeyTimeout,
	"output":    KeyOutput,
	"log-level": KeyLogLevel,
}

// Credentials is the keyring fallback for the API key
type Credentials interface {
	Load() (string, error)
}

// Config is the resolved runtime configuration of one run
type Config struct {
	APIKey    string
	KeySource Source
	Endpoint  string
	Timeout   time.Duration
	Output    string
	LogLevel  string
	File      string
}

// Scoring returns the scoring client configuration
func (c *Config) Scoring(userAgent string) scoring.Config {
	return scoring.Config{
		Endpoint:  c.Endpoint,
		APIKey:    c.APIKey,
		Timeout:   c.Timeout,
		UserAgent: userAgent,
	}
}

// Validate checks that a run can start
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.ConfigurationError("no API key configured", KeyAPIKey).
			WithSuggestions(
				"Pass --api-key or set "+EnvDeepSeekAPIKey,
				"Run 'commitscore auth login' to store a key in the OS keyring",
			)
	}
	if c.Endpoint == "" {
		return errors.ConfigurationError("scoring endpoint is empty", KeyEndpoint)
	}
	if c.Timeout < 0 {
		return errors.ConfigurationError("timeout must not be negative", KeyTimeout)
	}
	if c.Output != OutputText && c.Output != OutputTable {
		return errors.ConfigurationError(
			fmt.Sprintf("unknown output format %q", c.Output), KeyOutput).
			WithSuggestions("Use --output text or --output table")
	}
	return nil
}

// GetConfigPath returns the directory holding the config file
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".commitscore")
}

// GetConfigFile returns the config file path, honouring COMMITSCORE_CONFIG
func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Loader resolves configuration from flags, environment, file and keyring
type Loader struct {
	v     *viper.Viper
	flags *pflag.FlagSet
	creds Credentials
}

// NewLoader creates a loader with defaults and environment bindings in place
func NewLoader(creds Credentials) *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyEndpoint, scoring.DefaultEndpoint)
	v.SetDefault(KeyTimeout, "0s")
	v.SetDefault(KeyOutput, OutputText)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	_ = v.BindEnv(KeyLogLevel, EnvPrefix+"_LOG_LEVEL")

	return &Loader{v: v, creds: creds}
}

// BindFlags binds the known command flags present in flags
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	l.flags = flags
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to bind flag "+name)
		}
	}
	return nil
}

// ReadFile reads path, or the default config file when path is empty. A
// missing default file is not an error; a missing explicit file is.
func (l *Loader) ReadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = GetConfigFile()
	}

	cleaned, err := common.CleanPath(path)
	if err != nil {
		return errors.ConfigurationError("invalid config file path", "config").
			WithContext("path", path)
	}

	if _, err := os.Stat(cleaned); os.IsNotExist(err) {
		if explicit {
			return errors.ConfigurationError("config file not found", "config").
				WithContext("path", cleaned)
		}
		return nil
	}

	l.v.SetConfigFile(cleaned)
	if err := l.v.ReadInConfig(); err != nil {
		appErr := errors.ConfigurationError("failed to read config file", "config").
			WithContext("path", cleaned)
		appErr.Cause = err
		return appErr
	}
	return nil
}

// Load resolves and validates the configuration
func (l *Loader) Load() (*Config, error) {
	var file models.Config
	if err := l.v.Unmarshal(&file); err != nil {
		appErr := errors.ConfigurationError("failed to decode configuration", "config")
		appErr.Cause = err
		return nil, appErr
	}

	timeout, err := parseTimeout(file.Timeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Endpoint: file.Endpoint,
		Timeout:  timeout,
		Output:   strings.ToLower(file.Output),
		LogLevel: strings.ToLower(file.LogLevel),
		File:     l.v.ConfigFileUsed(),
	}

	cfg.APIKey, cfg.KeySource, err = l.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveAPIKey returns the API key and where it came from: flag, then
// DEEPSEEK_API_KEY, then COMMITSCORE_API_KEY, then config file, then keyring
func (l *Loader) ResolveAPIKey() (string, Source, error) {
	if l.flags != nil {
		if f := l.flags.Lookup("api-key"); f != nil && f.Changed {
			if key := strings.TrimSpace(f.Value.String()); key != "" {
				return key, SourceFlag, nil
			}
		}
	}

	for _, env := range envKeySources {
		if key, ok := os.LookupEnv(env.name); ok && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), env.source, nil
		}
	}

	// Both variables are unset here, so viper can only answer from the file
	if key := strings.TrimSpace(l.v.GetString(KeyAPIKey)); key != "" {
		return key, SourceFile, nil
	}

	if l.creds == nil {
		return "", SourceNone, nil
	}

	key, err := l.creds.Load()
	if err != nil {
		appErr := errors.ConfigurationError("failed to read API key from keyring", KeyAPIKey).
			WithSuggestions("Pass --api-key or set " + EnvDeepSeekAPIKey)
		appErr.Cause = err
		return "", SourceNone, appErr
	}
	if key == "" {
		return "", SourceNone, nil
	}
	return key, SourceKeyring, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.ConfigurationError(fmt.Sprintf("invalid timeout %q", raw), KeyTimeout).
			WithSuggestions("Use a Go duration such as 30s or 2m")
	}
	return d, nil
}

// Save writes cfg as YAML to the default config file
func Save(cfg *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, common.DirPermissionSecure); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, common.FilePermissionSecure); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists reports whether the default config file is present
func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}
