package config

import (
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENABLE_BANKING_APPLICATION_ID", "app-123")
	t.Setenv("ENABLE_BANKING_PRIVATE_KEY_BASE64", "c2VjcmV0")
	t.Setenv("ENABLE_BANKING_ASPSP", `[{"name":"Test Bank","country":"EE","consent_validity_seconds":86400}]`)
	t.Setenv("IS_LOCAL", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ApplicationID != "app-123" {
		t.Errorf("ApplicationID = %q, want %q", cfg.ApplicationID, "app-123")
	}
	if cfg.APIOrigin != defaultAPIOrigin {
		t.Errorf("APIOrigin = %q, want default %q", cfg.APIOrigin, defaultAPIOrigin)
	}
	if !cfg.Interactive {
		t.Error("Expected Interactive to be true when IS_LOCAL is set")
	}
	if len(cfg.Institutions) != 1 {
		t.Fatalf("Expected 1 institution, got %d", len(cfg.Institutions))
	}
	inst := cfg.Institutions[0]
	if inst.Name != "Test Bank" || inst.Country != "EE" || inst.ConsentValiditySeconds != 86400 {
		t.Errorf("Unexpected institution: %+v", inst)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "missing application id", unset: "ENABLE_BANKING_APPLICATION_ID"},
		{name: "missing private key", unset: "ENABLE_BANKING_PRIVATE_KEY_BASE64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENABLE_BANKING_APPLICATION_ID", "app-123")
			t.Setenv("ENABLE_BANKING_PRIVATE_KEY_BASE64", "c2VjcmV0")
			t.Setenv(tt.unset, "")

			if _, err := Load(); err == nil {
				t.Errorf("Expected error when %s is unset", tt.unset)
			}
		})
	}
}

func TestLoad_BadInstitutionList(t *testing.T) {
	t.Setenv("ENABLE_BANKING_APPLICATION_ID", "app-123")
	t.Setenv("ENABLE_BANKING_PRIVATE_KEY_BASE64", "c2VjcmV0")

	t.Run("malformed json", func(t *testing.T) {
		t.Setenv("ENABLE_BANKING_ASPSP", `{not json`)
		if _, err := Load(); err == nil {
			t.Error("Expected error for malformed institution list")
		}
	})

	t.Run("missing country", func(t *testing.T) {
		t.Setenv("ENABLE_BANKING_ASPSP", `[{"name":"Test Bank"}]`)
		if _, err := Load(); err == nil {
			t.Error("Expected error for institution without country")
		}
	})
}
