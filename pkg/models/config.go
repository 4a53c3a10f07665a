package models

// Config is the on-disk configuration file layout
type Config struct {
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Endpoint string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Timeout  string `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Output   string `yaml:"output,omitempty" mapstructure:"output"`
	LogLevel string `yaml:"log_level,omitempty" mapstructure:"log_level"`
}
