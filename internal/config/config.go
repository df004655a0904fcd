package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Policy holds the commerce constants that operators may tune without a rebuild.
type Policy struct {
	PageSize              int     `yaml:"page_size"`
	TopProducts           int     `yaml:"top_products"`
	TaxRate               float64 `yaml:"tax_rate"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold"`
	ShippingPrice         float64 `yaml:"shipping_price"`
	Currency              string  `yaml:"currency"`
}

func DefaultPolicy() Policy {
	return Policy{
		PageSize:              10,
		TopProducts:           3,
		TaxRate:               0.15,
		FreeShippingThreshold: 100,
		ShippingPrice:         100,
		Currency:              "USD",
	}
}

type Config struct {
	AppEnv      string
	AppPort     string
	StoreDriver string

	MongoURI string
	MongoDB  string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret string
	JWTTTL    time.Duration

	PayPalClientID string
	PayPalSecret   string
	PayPalMode     string

	CORSOrigin        string
	InternalSecretKey string

	PolicyFile string
	Policy     Policy
}

// LoadConfig is Load for binaries: any problem is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// LoadStoreConfig is for tools that only talk to the store, such as the
// migrator; it does not require JWT_SECRET.
func LoadStoreConfig() *Config {
	cfg, err := load()
	if err == nil {
		err = cfg.ValidateStore()
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*Config, error) {
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		AppEnv:            getenv("APP_ENV", "development"),
		AppPort:           getenv("APP_PORT", "5000"),
		StoreDriver:       strings.ToLower(getenv("STORE_DRIVER", StoreMongo)),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           getenv("MONGO_DB", "storefront"),
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            getenv("DB_PORT", "5432"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            ttl,
		PayPalClientID:    os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:      os.Getenv("PAYPAL_SECRET"),
		PayPalMode:        getenv("PAYPAL_MODE", "sandbox"),
		CORSOrigin:        getenv("CORS_ORIGIN", "http://localhost:3000"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		PolicyFile:        os.Getenv("POLICY_FILE"),
		Policy:            DefaultPolicy(),
	}

	if cfg.PolicyFile != "" {
		policy, err := LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.Policy = policy
	}
	return cfg, nil
}

// LoadPolicy reads a YAML policy file on top of DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()

	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}
	if policy.PageSize <= 0 || policy.TopProducts <= 0 {
		return policy, errors.New("policy: page_size and top_products must be positive")
	}
	if policy.TaxRate < 0 || policy.ShippingPrice < 0 || policy.FreeShippingThreshold < 0 {
		return policy, errors.New("policy: prices and rates cannot be negative")
	}
	policy.Currency = strings.ToUpper(strings.TrimSpace(policy.Currency))
	if len(policy.Currency) != 3 {
		return policy, errors.New("policy: currency must be a three letter code")
	}
	return policy, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	return c.ValidateStore()
}

func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is not set")
		}
	case StorePostgres:
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
