package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meghashyamc/apidoxsearch/corpus"
	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort            = "8080"
	defaultCorpusName      = "searchdata.json"
	defaultCacheVersion    = 0
	defaultLookupFallback  = "/index.php"
	defaultLookupSiteRoot  = "http://api.kde.org/"
	defaultOfflineBaseHref = "/"
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	viperConfig.SetDefault("server.port", defaultPort)
	viperConfig.SetDefault("log.level", "info")
	viperConfig.SetDefault("docs.corpus_name", defaultCorpusName)
	viperConfig.SetDefault("cache.version", defaultCacheVersion)
	viperConfig.SetDefault("offline.base_href", defaultOfflineBaseHref)
	viperConfig.SetDefault("lookup.fallback", defaultLookupFallback)
	viperConfig.SetDefault("lookup.site_root", defaultLookupSiteRoot)

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

// Set overrides a key for the lifetime of the process. Used by CLI flags and tests.
func (c *Config) Set(key string, value any) {
	c.config.Set(key, value)
}

func (c *Config) GetPort() string {
	return c.getStringWithEnv("PORT", "server.port")
}

func (c *Config) GetLogLevel() string {
	return c.getStringWithEnv("LOG_LEVEL", "log.level")
}

func (c *Config) GetDocsRoot() string {
	return c.getStringWithEnv("DOCS_ROOT", "docs.root")
}

// GetCorpusName is the file name of per-library scan corpora looked for by discovery.
func (c *Config) GetCorpusName() string {
	return c.config.GetString("docs.corpus_name")
}

func (c *Config) GetDiscoverCorpora() bool {
	return c.config.GetBool("docs.discover")
}

func (c *Config) GetKVDBPath() string {
	return c.getStringWithEnv("KVDB_PATH", "database.kvdb_path")
}

func (c *Config) GetCacheVersion() int {
	return c.config.GetInt("cache.version")
}

func (c *Config) GetPrecacheURLs() []string {
	return c.config.GetStringSlice("cache.precache")
}

// GetCacheOrigins lists the origins whose documentation trees may be cached on
// request. It falls back to the origin of lookup.site_root.
func (c *Config) GetCacheOrigins() []string {
	origins := c.config.GetStringSlice("cache.origins")
	if len(origins) == 0 {
		origins = []string{c.GetLookupSiteRoot()}
	}

	return origins
}

func (c *Config) GetScanLiteralQuery() bool {
	return c.config.GetBool("scan.literal_query")
}

func (c *Config) GetScanMounts() ([]corpus.Mount, error) {
	var mounts []corpus.Mount
	if err := c.config.UnmarshalKey("scan.mounts", &mounts); err != nil {
		return nil, fmt.Errorf("failed to read scan mounts: %w", err)
	}

	return mounts, nil
}

func (c *Config) GetOfflineIndexSrc() string {
	return c.getStringWithEnv("OFFLINE_INDEX_JSON_SRC", "offline.index_json_src")
}

func (c *Config) GetOfflineBaseHref() string {
	return c.getStringWithEnv("OFFLINE_BASE_HREF", "offline.base_href")
}

func (c *Config) GetLookupMapsDir() string {
	return c.getStringWithEnv("LOOKUP_MAPS_DIR", "lookup.maps_dir")
}

func (c *Config) GetLookupSiteRoot() string {
	return c.config.GetString("lookup.site_root")
}

func (c *Config) GetLookupFallback() string {
	return c.config.GetString("lookup.fallback")
}

func (c *Config) getStringWithEnv(envKey string, key string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(key)
	}

	return value
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
