// Package config loads relay.yml, the project-level configuration for the
// CLI and server.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the relay configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Procedures ProceduresConfig `mapstructure:"procedures"`
	RPC        RPCConfig        `mapstructure:"rpc"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ProceduresConfig represents discovery configuration
type ProceduresConfig struct {
	Dir             string   `mapstructure:"dir"`
	Recursive       bool     `mapstructure:"recursive"`
	Extensions      []string `mapstructure:"extensions"`
	Exclude         []string `mapstructure:"exclude"`
	OnInvalidExport string   `mapstructure:"on_invalid_export"`
}

// RPCConfig represents the single-path RPC convention configuration
type RPCConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// AuthConfig represents token verification configuration
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// Load loads the configuration from relay.yml or relay.yaml, falling back to
// defaults when no config file exists.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("procedures.dir", "procedures")
	v.SetDefault("procedures.recursive", true)
	v.SetDefault("procedures.on_invalid_export", "throw")
	v.SetDefault("rpc.base_path", "/rpc")

	v.SetConfigName("relay")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file: defaults apply
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// Address returns the server listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
