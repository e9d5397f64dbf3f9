package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for client configuration
const (
	EnvSignerURL       = "DSS_SIGNER_URL"
	EnvTimeout         = "DSS_TIMEOUT"
	EnvRateLimit       = "DSS_RATE_LIMIT"
	EnvPersistenceType = "DSS_PERSISTENCE_TYPE"
	EnvDataPath        = "DSS_DATA_PATH"
	EnvHistorySlot     = "DSS_HISTORY_SLOT"
	EnvRedisAddress    = "DSS_REDIS_ADDRESS"
	EnvRedisPassword   = "DSS_REDIS_PASSWORD"
	EnvRedisDB         = "DSS_REDIS_DB"
	EnvRedisKeyPrefix  = "DSS_REDIS_KEY_PREFIX"
	EnvDebug           = "DSS_DEBUG"
)

// Defaults. The signing service address matches the service's development default.
const (
	DefaultSignerURL       = "http://127.0.0.1:5000"
	DefaultTimeout         = 10 * time.Second
	DefaultPersistenceType = persistence.TypeBadger
	DefaultDataDir         = ".dss-client"
	DefaultRedisAddress    = "localhost:6379"
)

// RedisConfig is the subset of settings needed for the redis slot backend
type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"-" yaml:"-"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

// ClientConfig represents the complete configuration of the signing client
type ClientConfig struct {
	// Signing service
	SignerURL string        `json:"signer_url"`
	Timeout   time.Duration `json:"timeout"`
	// RateLimit caps outgoing requests per second; 0 disables limiting
	RateLimit float64 `json:"rate_limit"`

	// History persistence
	PersistenceType persistence.Type `json:"persistence_type"`
	DataPath        string           `json:"data_path"`
	HistorySlot     string           `json:"history_slot"`
	Redis           RedisConfig      `json:"redis"`

	Debug bool `json:"debug"`
}

// NewDefaultClientConfig returns a config populated with defaults; dataPath is
// the directory used by the on-disk backends.
func NewDefaultClientConfig(dataPath string) *ClientConfig {
	return &ClientConfig{
		SignerURL:       DefaultSignerURL,
		Timeout:         DefaultTimeout,
		PersistenceType: DefaultPersistenceType,
		DataPath:        dataPath,
		HistorySlot:     persistence.DefaultHistorySlot,
		Redis: RedisConfig{
			Address: DefaultRedisAddress,
		},
	}
}

// Validate checks the configuration and normalizes SignerURL (trailing slash removed).
// All problems are reported together.
func (c *ClientConfig) Validate() error {
	var allErrors field.ErrorList

	signerPath := field.NewPath("signerUrl")
	if c.SignerURL == "" {
		allErrors = append(allErrors, field.Required(signerPath, "signer URL is required"))
	} else if u, err := url.Parse(c.SignerURL); err != nil {
		allErrors = append(allErrors, field.Invalid(signerPath, c.SignerURL, err.Error()))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		allErrors = append(allErrors, field.Invalid(signerPath, c.SignerURL, "scheme must be http or https"))
	} else if u.Host == "" {
		allErrors = append(allErrors, field.Invalid(signerPath, c.SignerURL, "host is required"))
	} else {
		c.SignerURL = strings.TrimRight(c.SignerURL, "/")
	}

	if c.Timeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeout"), c.Timeout.String(), "timeout cannot be negative"))
	}
	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "rate limit cannot be negative"))
	}
	if c.HistorySlot == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("historySlot"), "history slot name is required"))
	}

	typePath := field.NewPath("persistenceType")
	switch c.PersistenceType {
	case persistence.TypeBadger, persistence.TypeLevelDB, persistence.TypeFile:
		if c.DataPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("dataPath"), fmt.Sprintf("data path is required for %s persistence", c.PersistenceType)))
		}
	case persistence.TypeRedis:
		if c.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redis", "address"), "redis address is required for redis persistence"))
		}
		if c.Redis.DB < 0 || c.Redis.DB > 15 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redis", "db"), c.Redis.DB, "must be between 0-15"))
		}
	case persistence.TypeMemory:
	case "":
		allErrors = append(allErrors, field.Required(typePath, "persistence type is required"))
	default:
		allErrors = append(allErrors, field.NotSupported(typePath, c.PersistenceType, supportedTypeStrings()))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func supportedTypeStrings() []string {
	types := persistence.SupportedTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// GetSupportedPersistenceTypesString returns the backends as a string for CLI help
func GetSupportedPersistenceTypesString() string {
	return strings.Join(supportedTypeStrings(), ", ")
}
