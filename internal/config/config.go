package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	CheckoutModeRelay    = "relay"
	CheckoutModeWhatsApp = "whatsapp"

	PendingStoreMemory = "memory"
	PendingStoreRedis  = "redis"
)

// Relay holds the order relay configuration.
type Relay struct {
	Port               string
	PublicURL          string
	PaymentAccessToken string
	PaymentAPIURL      string
	SuccessURL         string
	FailureURL         string
	PendingURL         string
	AdminPhone         string
	MessagingAPIKey    string
	MessagingAPIURL    string
	PendingStore       string
	RedisAddr          string
	RedisPassword      string
	MessageLogDB       string
	KafkaBrokers       []string
	AdminRateLimit     int
	TrustProxyHeaders  bool
	PendingRetention   time.Duration
	PaymentTimeout     time.Duration
	MessagingTimeout   time.Duration
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
}

// Storefront holds the client side configuration used by the storefront CLI.
type Storefront struct {
	CheckoutMode  string
	RelayURL      string
	StoragePath   string
	SessionPath   string
	RedisAddr     string
	ShopPhone     string
	UseSandbox    bool
	ClientTimeout time.Duration
	LogLevel      string
}

// Load reads config.env (if present) into the process environment. Variables
// already set in the environment win.
func Load(files ...string) {
	if len(files) == 0 {
		files = []string{"config.env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LoadRelay reads the relay configuration from the environment and applies defaults.
func LoadRelay() (*Relay, error) {
	port := getEnv("PORT", "3000")
	cfg := &Relay{
		Port:               port,
		PublicURL:          strings.TrimSuffix(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		PaymentAccessToken: os.Getenv("MP_ACCESS_TOKEN"),
		PaymentAPIURL:      getEnv("MP_API_URL", "https://api.mercadopago.com"),
		SuccessURL:         os.Getenv("SUCCESS_URL"),
		FailureURL:         os.Getenv("FAILURE_URL"),
		PendingURL:         os.Getenv("PENDING_URL"),
		AdminPhone:         getEnv("ADMIN_WHATSAPP", "5571988689508"),
		MessagingAPIKey:    os.Getenv("WHATSAPP_API_KEY"),
		MessagingAPIURL:    getEnv("WHATSAPP_API_URL", "https://api.whatsapp.com"),
		PendingStore:       getEnv("PENDING_STORE", PendingStoreMemory),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		MessageLogDB:       os.Getenv("MESSAGE_LOG_DB"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		TrustProxyHeaders:  getEnv("TRUST_PROXY_HEADERS", "false") == "true",
		PendingRetention:   time.Hour,
		PaymentTimeout:     5 * time.Second,
		MessagingTimeout:   10 * time.Second,
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	limit, err := strconv.Atoi(getEnv("ADMIN_RATE_LIMIT", "30"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("invalid ADMIN_RATE_LIMIT: %q", os.Getenv("ADMIN_RATE_LIMIT"))
	}
	cfg.AdminRateLimit = limit

	if cfg.SuccessURL == "" {
		cfg.SuccessURL = cfg.PublicURL + "/success"
	}
	if cfg.FailureURL == "" {
		cfg.FailureURL = cfg.PublicURL + "/failure"
	}
	if cfg.PendingURL == "" {
		cfg.PendingURL = cfg.PublicURL + "/pending"
	}

	switch cfg.PendingStore {
	case PendingStoreMemory, PendingStoreRedis:
	default:
		return nil, fmt.Errorf("invalid PENDING_STORE: %q", cfg.PendingStore)
	}
	return cfg, nil
}

// LoadStorefront reads the storefront CLI configuration from the environment.
func LoadStorefront() (*Storefront, error) {
	cfg := &Storefront{
		CheckoutMode:  getEnv("CHECKOUT_MODE", CheckoutModeRelay),
		RelayURL:      strings.TrimSuffix(getEnv("RELAY_URL", "http://localhost:3000"), "/"),
		StoragePath:   getEnv("STOREFRONT_STORAGE", ".storefront/local.json"),
		SessionPath:   getEnv("STOREFRONT_SESSION", ".storefront/session.json"),
		RedisAddr:     os.Getenv("STOREFRONT_REDIS_ADDR"),
		ShopPhone:     getEnv("SHOP_WHATSAPP", "5571988689508"),
		UseSandbox:    getEnv("MP_SANDBOX", "false") == "true",
		ClientTimeout: 15 * time.Second,
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
	}
	switch cfg.CheckoutMode {
	case CheckoutModeRelay, CheckoutModeWhatsApp:
	default:
		return nil, fmt.Errorf("invalid CHECKOUT_MODE: %q", cfg.CheckoutMode)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
