// Package config provides a reusable loader for gateway configuration files
// and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/synnergy-network/substrate-gateway/pkg/utils"
)

// Config is the unified configuration for one gateway instance. It mirrors
// the structure of the YAML files under cmd/config.
type Config struct {
	HTTP struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"http" json:"http"`

	Chain struct {
		RPCEndpoint     string `mapstructure:"rpc_endpoint" json:"rpc_endpoint"`
		SS58Prefix      uint16 `mapstructure:"ss58_prefix" json:"ss58_prefix"`
		HeadMode        string `mapstructure:"head_mode" json:"head_mode"` // "finalized" | "best"
		MetadataCacheCap int   `mapstructure:"metadata_cache_cap" json:"metadata_cache_cap"`
	} `mapstructure:"chain" json:"chain"`

	Relay struct {
		Enabled      bool   `mapstructure:"enabled" json:"enabled"`
		RPCEndpoint  string `mapstructure:"rpc_endpoint" json:"rpc_endpoint"`
		AssetHubPara uint32 `mapstructure:"asset_hub_para_id" json:"asset_hub_para_id"`
	} `mapstructure:"relay" json:"relay"`

	Concurrency struct {
		FanOutCap int `mapstructure:"fan_out_cap" json:"fan_out_cap"`
	} `mapstructure:"concurrency" json:"concurrency"`

	RPCTimeout time.Duration `mapstructure:"rpc_timeout" json:"rpc_timeout"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

func setDefaults() {
	viper.SetDefault("http.listen_addr", ":8080")
	viper.SetDefault("chain.ss58_prefix", 42)
	viper.SetDefault("chain.head_mode", "finalized")
	viper.SetDefault("chain.metadata_cache_cap", 16)
	viper.SetDefault("concurrency.fan_out_cap", 4)
	viper.SetDefault("rpc_timeout", 30*time.Second)
	viper.SetDefault("logging.level", "info")
}

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	setDefaults()

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("GATEWAY")
	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the GATEWAY_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("GATEWAY_ENV", ""))
}
