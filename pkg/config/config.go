package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "DORMDESK"

var configDir string
var configFilePath string

// getConfigDir returns platform-specific config directory
func getConfigDir() (string, error) {
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		return dir, nil
	}

	if runtime.GOOS == "windows" {
		// Windows: %LOCALAPPDATA%\dormdesk
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "dormdesk"), nil
	}

	// Unix-like (macOS, Linux): ~/.config/dormdesk
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dormdesk"), nil
}

// getSystemConfigPaths returns platform-specific system config paths
func getSystemConfigPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "Dormdesk", "config.toml")}
	}

	return []string{
		"/etc/dormdesk/config.toml",
		"/usr/local/etc/dormdesk/config.toml",
	}
}

// Init initializes the configuration. An empty configPath selects the
// per-user config directory.
func Init(configPath string) error {
	var err error
	if configPath != "" {
		configDir = filepath.Dir(configPath)
		configFilePath = configPath
	} else {
		configDir, err = getConfigDir()
		if err != nil {
			return err
		}
		configFilePath = filepath.Join(configDir, "config.toml")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	viper.Reset()
	viper.SetConfigType("toml")
	setDefaults()

	// .env in the working directory, then in the config dir; neither is required
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// System config first, user config overrides it
	for _, sysConfigPath := range getSystemConfigPaths() {
		if _, err := os.Stat(sysConfigPath); err == nil {
			viper.SetConfigFile(sysConfigPath)
			_ = viper.MergeInConfig()
			break
		}
	}

	viper.SetConfigFile(configFilePath)
	_ = viper.MergeInConfig()

	return nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", "30s")

	viper.SetDefault("session.freshness", "5m")
	viper.SetDefault("session.sync", "file")
	viper.SetDefault("session.channel", "dormdesk-session")
	viper.SetDefault("sync.redis_addr", "localhost:6379")
	viper.SetDefault("notice.timeout", "5s")

	viper.SetDefault("output.format", "text")

	viper.SetDefault("bill.max_width", 1600)
	viper.SetDefault("bill.jpeg_quality", 82)

	viper.SetDefault("devserver.addr", ":8787")
	viper.SetDefault("devserver.secret", "dormdesk-dev-secret")
	viper.SetDefault("devserver.session_ttl", "12h")
	viper.SetDefault("devserver.cors_origins", []string{})
	viper.SetDefault("devserver.fake_students", 0)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", filepath.Join(configDir, "dormdesk.log"))
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string configuration value
func GetString(key string) string {
	value := viper.GetString(key)
	if key == "log.file" {
		return expandPath(value)
	}
	return value
}

// GetInt returns an int configuration value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool configuration value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStringSlice returns a list value. A comma separated string, as set
// from the environment, is split.
func GetStringSlice(key string) []string {
	var out []string
	for _, v := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetDuration returns a duration value. Bare integers are read as seconds.
func GetDuration(key string) time.Duration {
	raw := viper.GetString(key)
	if raw != "" && strings.Trim(raw, "0123456789") == "" {
		return time.Duration(viper.GetInt(key)) * time.Second
	}
	return viper.GetDuration(key)
}

// Set overrides a value for the lifetime of the process
func Set(key string, value interface{}) {
	viper.Set(key, value)
}

// SetString sets a string configuration value and persists it
func SetString(key string, value string) error {
	viper.Set(key, value)
	return viper.WriteConfigAs(configFilePath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	return configDir
}

// GetSessionPath returns the path of the persisted session marker
func GetSessionPath() string {
	return filepath.Join(configDir, "session")
}

// GetCookiePath returns the path of the persisted cookie jar
func GetCookiePath() string {
	return filepath.Join(configDir, "cookies")
}

// GetSyncDir returns the directory shared by processes for session sync
func GetSyncDir() string {
	return filepath.Join(configDir, "sync")
}
