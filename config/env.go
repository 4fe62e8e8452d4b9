package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAppEnv        = "local"
	defaultAPIBaseURL    = "http://localhost:8000/api"
	defaultTokenHeader   = "token"
	defaultHTTPTimeout   = "15s"
	defaultStorageDriver = "file"
	defaultStorageRoot   = ".canteen"
	defaultDatabaseDrv   = "sqlite"
	defaultSQLiteDSN     = ".canteen/canteen.db"
	defaultCacheDriver   = "memory"
	defaultRedisAddr     = "localhost:6379"
	defaultCatalogTTL    = "5m"
	defaultPoolSize      = "4"
)

// EnvPrefix is checked before the bare key when reading process env vars,
// so CANTEEN_API_BASE_URL wins over API_BASE_URL.
const EnvPrefix = "CANTEEN_"

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json, config/app.yaml and .env once, then applies
// process environment overrides.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFiles("config/app.json", "config/app.yaml", ".env")
	})
	return loadErr
}

// LoadFiles replaces the active configuration with defaults merged with the
// given files (missing files are skipped) and the process environment.
// After it runs, Load no longer touches the default paths.
func LoadFiles(jsonPath, yamlPath, envPath string) error {
	loadOnce.Do(func() {})
	return loadFiles(jsonPath, yamlPath, envPath)
}

func loadFiles(jsonPath, yamlPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(jsonPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeYAMLConfig(yamlPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := mergeDotEnv(envPath, loaded); err != nil && !os.IsNotExist(err) {
		return err
	}
	mergeProcessEnv(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

// Set overrides a single key at runtime (CLI flags, tests).
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":            defaultAppEnv,
		"API_BASE_URL":       defaultAPIBaseURL,
		"TOKEN_HEADER":       defaultTokenHeader,
		"HTTP_TIMEOUT":       defaultHTTPTimeout,
		"STORAGE_DRIVER":     defaultStorageDriver,
		"STORAGE_LOCAL_ROOT": defaultStorageRoot,
		"STORAGE_SECRET":     "",
		"DB_DRIVER":          defaultDatabaseDrv,
		"DATABASE_DSN":       "",
		"CACHE_DRIVER":       defaultCacheDriver,
		"REDIS_ADDR":         defaultRedisAddr,
		"REDIS_PASSWORD":     "",
		"CATALOG_TTL":        defaultCatalogTTL,
		"WORKER_POOL_SIZE":   defaultPoolSize,
		"TRACING":            "false",
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func IsProduction() bool {
	switch AppEnv() {
	case "production", "prod":
		return true
	}
	return false
}

func APIBaseURL() string {
	_ = Load()
	return strings.TrimRight(get("API_BASE_URL", defaultAPIBaseURL), "/")
}

// TokenHeader is the request header carrying the session token.
func TokenHeader() string {
	_ = Load()
	return get("TOKEN_HEADER", defaultTokenHeader)
}

func HTTPTimeout() time.Duration {
	_ = Load()
	return duration("HTTP_TIMEOUT", 15*time.Second)
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDriver() string {
	_ = Load()
	driver := strings.ToLower(get("STORAGE_DRIVER", defaultStorageDriver))
	switch driver {
	case "file", "sql", "memory":
		return driver
	default:
		return defaultStorageDriver
	}
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", defaultStorageRoot)
}

// StorageSecret, when set, encrypts stored values with a key derived from it.
func StorageSecret() string {
	_ = Load()
	return get("STORAGE_SECRET", "")
}

func DatabaseDriver() string {
	_ = Load()
	driver := strings.ToLower(get("DB_DRIVER", defaultDatabaseDrv))
	switch driver {
	case "sqlite", "postgres", "mysql", "sqlserver":
		return driver
	default:
		return defaultDatabaseDrv
	}
}

func DatabaseDSN() string {
	_ = Load()
	if override := get("DATABASE_DSN", ""); override != "" {
		return override
	}
	return defaultSQLiteDSN
}

// ── Cache ────────────────────────────────────────────────────────────────────

func CacheDriver() string {
	_ = Load()
	if strings.ToLower(get("CACHE_DRIVER", defaultCacheDriver)) == "redis" {
		return "redis"
	}
	return defaultCacheDriver
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func CatalogTTL() time.Duration {
	_ = Load()
	return duration("CATALOG_TTL", 5*time.Minute)
}

// ── Runtime ──────────────────────────────────────────────────────────────────

func WorkerPoolSize() int {
	_ = Load()
	n, err := strconv.Atoi(get("WORKER_POOL_SIZE", defaultPoolSize))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

func TracingEnabled() bool {
	_ = Load()
	b, _ := strconv.ParseBool(get("TRACING", "false"))
	return b
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(strings.ToUpper(key), fallback)
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeRaw(raw, out)
	return nil
}

func mergeYAMLConfig(path string, out map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	mergeRaw(raw, out)
	return nil
}

// mergeRaw keeps scalar values only; nested sections are ignored.
func mergeRaw(raw map[string]interface{}, out map[string]string) {
	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case bool, int, int64, float64:
			out[k] = fmt.Sprint(v)
		}
	}
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func mergeProcessEnv(out map[string]string) {
	for key := range defaultValues() {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			out[key] = v
			continue
		}
		if v, ok := os.LookupEnv(key); ok {
			out[key] = v
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
