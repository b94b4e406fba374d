package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		APIKey:       "key",
		APISecret:    "secret",
		SellerID:     "12345",
		DatabasePath: "test.db",
		MaxOpenConns: 25,
		MaxIdleConns: 5,
		MaxAttempts:  3,
		MaxWorkers:   4,
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TRENDYOL_API_KEY", "key")
	t.Setenv("TRENDYOL_API_SECRET", "secret")
	t.Setenv("TRENDYOL_SELLER_ID", "12345")
	t.Setenv("SUBMIT_MAX_ATTEMPTS", "5")
	t.Setenv("SUBMIT_POLL_INTERVAL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SellerID != "12345" {
		t.Errorf("SellerID = %s", cfg.SellerID)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.MaxAttempts)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.DefaultBrandID != 7651 {
		t.Errorf("DefaultBrandID = %d, want default 7651", cfg.DefaultBrandID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing api key", func(c *Config) { c.APIKey = "" }, true},
		{"missing seller id", func(c *Config) { c.SellerID = "" }, true},
		{"idle exceeds open", func(c *Config) { c.MaxIdleConns = 50 }, true},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
