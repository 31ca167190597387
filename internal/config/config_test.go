package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Database.Driver != "postgres" || cfg.Ledger.Store != "database" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Ledger.Decimals != 9 || cfg.Ledger.Symbol != "SOL" || cfg.Ledger.FaucetEnabled {
		t.Errorf("unexpected ledger defaults: %+v", cfg.Ledger)
	}
	if cfg.Auth.JWTTTL != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", cfg.Auth.JWTTTL)
	}
	if cfg.Auth.ChallengeTTL != 5*time.Minute {
		t.Errorf("expected 5m challenge TTL, got %v", cfg.Auth.ChallengeTTL)
	}
	if !strings.Contains(cfg.GetDSN(), "sslmode=disable") {
		t.Errorf("unexpected DSN: %s", cfg.GetDSN())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("BOOTSTRAP_EVENT_ID", "concert")
	t.Setenv("BOOTSTRAP_OWNER", "owner")
	t.Setenv("BOOTSTRAP_SUPPLY", "6")
	t.Setenv("BOOTSTRAP_PRICE", "10000000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Bootstrap.Supply != 6 || cfg.Bootstrap.Price != 10_000_000 {
		t.Errorf("unexpected bootstrap: %+v", cfg.Bootstrap)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}},
		{"bad store", map[string]string{"JWT_SECRET": "s", "LEDGER_STORE": "redis"}},
		{"bootstrap without owner", map[string]string{"JWT_SECRET": "s", "BOOTSTRAP_EVENT_ID": "x", "BOOTSTRAP_OWNER": ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}
