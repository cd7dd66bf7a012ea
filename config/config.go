package config

import (
	"os"
	"path/filepath"
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

const defaultPath = "."

// Config is the process-wide configuration, read once at startup and
// treated as immutable afterwards.
type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port int `json:"port" yaml:"port"`
		// MaxRequestBodySize is an echo body-limit expression, e.g. "2M".
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	SecretKey struct {
		Access  string `json:"access" yaml:"access"`
		Refresh string `json:"refresh" yaml:"refresh"`
	} `json:"secretKey" yaml:"secretKey"`

	Token *TokenConfig `json:"token" yaml:"token"`

	OTP *OTPConfig `json:"otp" yaml:"otp"`

	SMS *SMSConfig `json:"sms" yaml:"sms"`

	// Redis enables the optional access-token revocation cache.
	// When nil, access tokens are valid until expiry.
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	// TestRoutes configuration for the token-gating probe endpoints.
	TestRoutes *TestRoutesConfig `json:"testRoutes" yaml:"testRoutes"`
}

// TokenConfig defines token lifetimes.
type TokenConfig struct {
	AccessTTL  time.Duration `json:"accessTTL" yaml:"accessTTL"`
	RefreshTTL time.Duration `json:"refreshTTL" yaml:"refreshTTL"`
}

// OTPConfig defines one-time code generation parameters.
type OTPConfig struct {
	Digits int           `json:"digits" yaml:"digits"`
	TTL    time.Duration `json:"ttl" yaml:"ttl"`
}

// SMSConfig defines outbound SMS vendor settings and routing.
type SMSConfig struct {
	// DefaultVendor is used when no routing rule matches the phone.
	DefaultVendor string `json:"defaultVendor" yaml:"defaultVendor"`

	// TestingPhones routes exact phone matches to the twilio vendor,
	// mirroring vendor test pools.
	TestingPhones []string `json:"testingPhones" yaml:"testingPhones"`

	// Timeout bounds every outbound vendor call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries bounds delivery retries per send.
	MaxRetries uint64 `json:"maxRetries" yaml:"maxRetries"`

	Twilio  *TwilioConfig  `json:"twilio" yaml:"twilio"`
	UniSMS  *UniSMSConfig  `json:"unisms" yaml:"unisms"`
	Tencent *TencentConfig `json:"tencent" yaml:"tencent"`
}

// TwilioConfig holds Twilio Verify API credentials.
type TwilioConfig struct {
	AccountSID string `json:"accountSid" yaml:"accountSid"`
	AuthToken  string `json:"authToken" yaml:"authToken"`
	VerifySID  string `json:"verifySid" yaml:"verifySid"`
}

// UniSMSConfig holds Uni-SMS API credentials.
type UniSMSConfig struct {
	AccessKeyID string `json:"accessKeyId" yaml:"accessKeyId"`
	Signature   string `json:"signature" yaml:"signature"`
	TemplateID  string `json:"templateId" yaml:"templateId"`
}

// TencentConfig holds Tencent Cloud SMS credentials.
type TencentConfig struct {
	SecretID   string `json:"secretId" yaml:"secretId"`
	SecretKey  string `json:"secretKey" yaml:"secretKey"`
	SDKAppID   string `json:"sdkAppId" yaml:"sdkAppId"`
	TemplateID string `json:"templateId" yaml:"templateId"`
	SenderID   string `json:"senderId" yaml:"senderId"`
	AppName    string `json:"appName" yaml:"appName"`
	Region     string `json:"region" yaml:"region"`
}

// RedisConfig holds connection settings for the revocation cache.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Log defines logger output settings.
type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// TestRoutesConfig defines configuration for testing endpoints.
type TestRoutesConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// LoadWithEnv loads .yaml files through koanf, then overlays environment
// variables whose names map onto existing YAML keys.
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
			// Example: SECRETKEY_ACCESS -> secretKey.access (not secretkey.access)
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

// New loads the service configuration from config.yaml and the environment.
func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Token == nil {
		cfg.Token = &TokenConfig{}
	}
	if cfg.Token.AccessTTL <= 0 {
		cfg.Token.AccessTTL = 15 * time.Minute
	}
	if cfg.Token.RefreshTTL <= 0 {
		cfg.Token.RefreshTTL = 30 * 24 * time.Hour
	}

	if cfg.OTP == nil {
		cfg.OTP = &OTPConfig{}
	}
	if cfg.OTP.Digits <= 0 {
		cfg.OTP.Digits = 6
	}
	if cfg.OTP.TTL <= 0 {
		cfg.OTP.TTL = 5 * time.Minute
	}

	if cfg.SMS == nil {
		cfg.SMS = &SMSConfig{}
	}
	if cfg.SMS.Timeout <= 0 {
		cfg.SMS.Timeout = 10 * time.Second
	}

	if cfg.HTTP.MaxRequestBodySize == "" {
		cfg.HTTP.MaxRequestBodySize = "2M"
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
