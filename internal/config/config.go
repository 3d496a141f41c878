package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Institution describes one bank (ASPSP) integration. The list is supplied
// as external configuration and never mutated at runtime.
type Institution struct {
	Name                   string `json:"name"`
	Country                string `json:"country"`
	ConsentValiditySeconds int    `json:"consent_validity_seconds"`
}

// Config holds all process-wide configuration, loaded once at startup.
type Config struct {
	APIOrigin        string
	Bucket           string
	ApplicationID    string
	PrivateKeyBase64 string
	Institutions     []Institution
	Interactive      bool
}

const defaultAPIOrigin = "https://api.enablebanking.com"

// Load reads configuration from the environment. Missing required values
// are returned as errors so the caller can exit before any mutation.
func Load() (Config, error) {
	cfg := Config{
		APIOrigin:        get("ENABLE_BANKING_API_ORIGIN", defaultAPIOrigin),
		Bucket:           get("SYNC_BUCKET", "actual-budget"),
		ApplicationID:    os.Getenv("ENABLE_BANKING_APPLICATION_ID"),
		PrivateKeyBase64: os.Getenv("ENABLE_BANKING_PRIVATE_KEY_BASE64"),
		Interactive:      os.Getenv("IS_LOCAL") != "",
	}

	if cfg.ApplicationID == "" {
		return Config{}, fmt.Errorf("config: ENABLE_BANKING_APPLICATION_ID is not set")
	}
	if cfg.PrivateKeyBase64 == "" {
		return Config{}, fmt.Errorf("config: ENABLE_BANKING_PRIVATE_KEY_BASE64 is not set")
	}

	raw := get("ENABLE_BANKING_ASPSP", "[]")
	if err := json.Unmarshal([]byte(raw), &cfg.Institutions); err != nil {
		return Config{}, fmt.Errorf("config: parsing ENABLE_BANKING_ASPSP: %w", err)
	}
	for i, inst := range cfg.Institutions {
		if inst.Name == "" || inst.Country == "" {
			return Config{}, fmt.Errorf("config: institution %d is missing name or country", i)
		}
	}

	return cfg, nil
}

func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
