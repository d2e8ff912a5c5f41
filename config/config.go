package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	defaultBcryptCost          = 10
	defaultTempCredentialTTL   = 5 * time.Minute
	defaultResetPasswordLength = 14
	defaultCachePrefix         = "typeit:tempcred:"

	defaultPoolMonitorInterval      = 5 * time.Second
	defaultPoolMonitorWarnThreshold = 50 * time.Millisecond
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	PoolMonitor *PoolMonitorConfig `json:"poolMonitor" yaml:"poolMonitor"`

	SecretKey struct {
		// Signing is the single HMAC secret shared by session and verification tokens.
		Signing string `json:"signing" yaml:"signing"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Mail *MailConfig `json:"mail" yaml:"mail"`

	Cache *CacheConfig `json:"cache" yaml:"cache"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`

	// TempCredentialTTL is the lifetime of a generated reset password.
	TempCredentialTTL time.Duration `json:"tempCredentialTTL" yaml:"tempCredentialTTL"`

	// Zero means tokens never expire.
	SessionTTL      time.Duration `json:"sessionTTL" yaml:"sessionTTL"`
	VerificationTTL time.Duration `json:"verificationTTL" yaml:"verificationTTL"`

	// UniformResetResponse hides whether a reset was requested for a registered email.
	UniformResetResponse bool `json:"uniformResetResponse" yaml:"uniformResetResponse"`

	ResetPassword *ResetPasswordConfig `json:"resetPassword" yaml:"resetPassword"`
}

// ResetPasswordConfig shapes the generated temporary password.
type ResetPasswordConfig struct {
	Length         int  `json:"length" yaml:"length"`
	Numbers        bool `json:"numbers" yaml:"numbers"`
	Symbols        bool `json:"symbols" yaml:"symbols"`
	ExcludeSimilar bool `json:"excludeSimilar" yaml:"excludeSimilar"`
	// Strict requires at least one character from every enabled class.
	Strict bool `json:"strict" yaml:"strict"`
}

// PoolMonitorConfig controls the periodic report of connection pool waits.
type PoolMonitorConfig struct {
	Disabled      bool          `json:"disabled" yaml:"disabled"`
	Interval      time.Duration `json:"interval" yaml:"interval"`
	// WarnThreshold is the accumulated wait per interval that is logged at warn level.
	WarnThreshold time.Duration `json:"warnThreshold" yaml:"warnThreshold"`
}

// MailConfig defines outgoing mail configuration
type MailConfig struct {
	// Provider is "smtp" to deliver or "log" to only log rendered messages.
	Provider string `json:"provider" yaml:"provider"`
	From     string `json:"from" yaml:"from"`

	// VerifyBaseURL is prefixed to the verification token to build the link.
	VerifyBaseURL string `json:"verifyBaseURL" yaml:"verifyBaseURL"`

	SMTP struct {
		Host     string `json:"host" yaml:"host"`
		Port     int    `json:"port" yaml:"port"`
		Username string `json:"username" yaml:"username"`
		Password string `json:"password" yaml:"password"`
	} `json:"smtp" yaml:"smtp"`
}

// CacheConfig selects the temporary credential store.
type CacheConfig struct {
	// Provider is "memory" for a single process or "redis" when several instances serve traffic.
	Provider string `json:"provider" yaml:"provider"`

	Redis struct {
		Addr     string `json:"addr" yaml:"addr"`
		Password string `json:"password" yaml:"password"`
		DB       int    `json:"db" yaml:"db"`
		Prefix   string `json:"prefix" yaml:"prefix"`
	} `json:"redis" yaml:"redis"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = defaultBcryptCost
	}
	if cfg.Auth.TempCredentialTTL <= 0 {
		cfg.Auth.TempCredentialTTL = defaultTempCredentialTTL
	}
	if cfg.Auth.ResetPassword == nil {
		cfg.Auth.ResetPassword = &ResetPasswordConfig{
			Numbers:        true,
			Symbols:        true,
			ExcludeSimilar: true,
			Strict:         true,
		}
	}
	if cfg.Auth.ResetPassword.Length <= 0 {
		cfg.Auth.ResetPassword.Length = defaultResetPasswordLength
	}

	if cfg.PoolMonitor == nil {
		cfg.PoolMonitor = &PoolMonitorConfig{}
	}
	if cfg.PoolMonitor.Interval <= 0 {
		cfg.PoolMonitor.Interval = defaultPoolMonitorInterval
	}
	if cfg.PoolMonitor.WarnThreshold <= 0 {
		cfg.PoolMonitor.WarnThreshold = defaultPoolMonitorWarnThreshold
	}

	if cfg.Mail == nil {
		cfg.Mail = &MailConfig{}
	}
	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "log"
	}

	if cfg.Cache == nil {
		cfg.Cache = &CacheConfig{}
	}
	if cfg.Cache.Provider == "" {
		cfg.Cache.Provider = "memory"
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = defaultCachePrefix
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
