package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DonationConfig carries every knob the intake services need. It is
// built once at startup and passed to components at construction.
type DonationConfig struct {
	Currency           string
	SupportedMethods   []string
	WalletAddresses    map[string]string
	DonationPrefix     string
	FeePrefix          string
	ReceiptCodeLength  int
	CodeRetryLimit     int
	MaxSubmissionPerIP int
	RateLimitWindow    time.Duration
}

func LoadDonationConfig() *DonationConfig {
	methods := strings.Split(getEnv("DONATION_METHODS", "bitcoin,ethereum,bank_transfer,paypal"), ",")
	for i := range methods {
		methods[i] = strings.TrimSpace(methods[i])
	}

	wallets := map[string]string{
		"bitcoin":  getEnv("WALLET_BITCOIN", "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"),
		"ethereum": getEnv("WALLET_ETHEREUM", "0x71C7656EC7ab88b098defB751B7401B5f6d8976F"),
	}
	if extra := getEnv("WALLET_EXTRA", ""); extra != "" {
		// format: method=address,method=address
		for _, pair := range strings.Split(extra, ",") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) == 2 {
				wallets[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
	}

	return &DonationConfig{
		Currency:           getEnv("DONATION_CURRENCY", "USD"),
		SupportedMethods:   methods,
		WalletAddresses:    wallets,
		DonationPrefix:     getEnv("DONATION_REF_PREFIX", "DON"),
		FeePrefix:          getEnv("FEE_REF_PREFIX", "FEE"),
		ReceiptCodeLength:  getEnvAsInt("RECEIPT_CODE_LENGTH", 10),
		CodeRetryLimit:     getEnvAsInt("CODE_RETRY_LIMIT", 1),
		MaxSubmissionPerIP: getEnvAsInt("MAX_SUBMISSIONS_PER_IP", 10),
		RateLimitWindow:    getEnvAsDuration("SUBMISSION_RATE_WINDOW", 1*time.Hour),
	}
}

// MethodSupported reports whether a payment method is in the configured set
func (c *DonationConfig) MethodSupported(method string) bool {
	for _, m := range c.SupportedMethods {
		if m == method {
			return true
		}
	}
	return false
}

// WalletAddress returns the display address for a method, empty when the
// method has no static wallet (e.g. bank_transfer)
func (c *DonationConfig) WalletAddress(method string) string {
	return c.WalletAddresses[method]
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
