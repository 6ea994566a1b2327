package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PURSE"

type Config struct {
	APIURL          string
	AppURL          string
	CacheDir        string
	DBPath          string
	LogPath         string
	LogLevel        string
	RequestTimeout  time.Duration
	BalanceTTL      time.Duration
	WalletTTL       time.Duration
	BeneficiaryTTL  time.Duration
	TransactionTTL  time.Duration
	MonitorInterval time.Duration
	PageSize        int
}

func Default() Config {
	cacheDir := filepath.Join(userConfigDir(), "purse")
	return Config{
		APIURL:          "http://localhost:8080/api/v1",
		AppURL:          "http://localhost:5173",
		CacheDir:        cacheDir,
		DBPath:          filepath.Join(cacheDir, "purse.db"),
		LogPath:         filepath.Join(cacheDir, "debug.log"),
		LogLevel:        "info",
		RequestTimeout:  10 * time.Second,
		BalanceTTL:      30 * time.Second,
		WalletTTL:       1 * time.Minute,
		BeneficiaryTTL:  5 * time.Minute,
		TransactionTTL:  30 * time.Second,
		MonitorInterval: 30 * time.Second,
		PageSize:        20,
	}
}

// Load layers an optional YAML file and PURSE_* environment variables over
// Default. An empty path skips the file. Derived paths follow cache_dir
// unless they were set explicitly.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so command-line flags
// bound to v take part in the lookup.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	def := Default()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", def.APIURL)
	v.SetDefault("app_url", def.AppURL)
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("balance_ttl", def.BalanceTTL)
	v.SetDefault("wallet_ttl", def.WalletTTL)
	v.SetDefault("beneficiary_ttl", def.BeneficiaryTTL)
	v.SetDefault("transaction_ttl", def.TransactionTTL)
	v.SetDefault("monitor_interval", def.MonitorInterval)
	v.SetDefault("page_size", def.PageSize)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cacheDir := v.GetString("cache_dir")
	cfg := Config{
		APIURL:          strings.TrimRight(v.GetString("api_url"), "/"),
		AppURL:          strings.TrimRight(v.GetString("app_url"), "/"),
		CacheDir:        cacheDir,
		DBPath:          filepath.Join(cacheDir, "purse.db"),
		LogPath:         filepath.Join(cacheDir, "debug.log"),
		LogLevel:        v.GetString("log_level"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		BalanceTTL:      v.GetDuration("balance_ttl"),
		WalletTTL:       v.GetDuration("wallet_ttl"),
		BeneficiaryTTL:  v.GetDuration("beneficiary_ttl"),
		TransactionTTL:  v.GetDuration("transaction_ttl"),
		MonitorInterval: v.GetDuration("monitor_interval"),
		PageSize:        v.GetInt("page_size"),
	}
	if p := v.GetString("db_path"); p != "" {
		cfg.DBPath = p
	}
	if p := v.GetString("log_path"); p != "" {
		cfg.LogPath = p
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that would make the client unusable.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url %q must be an http(s) URL", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("monitor_interval must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive")
	}
	return nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
