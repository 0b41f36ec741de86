package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, ConfigDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(GetConfigPath(dir), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
version: 1
tenants:
  - name: acme
    root: /data/acme
store:
  backend: qdrant
embedder:
  provider: ollama
  model: nomic-embed-text
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Store.Qdrant.Port != 6334 {
		t.Errorf("expected default qdrant port 6334, got %d", cfg.Store.Qdrant.Port)
	}
	if cfg.Chunking.Size != 1600 {
		t.Errorf("expected default chunk size 1600, got %d", cfg.Chunking.Size)
	}
	if cfg.Summarizer.MinChars != 200 {
		t.Errorf("expected default min_chars 200, got %d", cfg.Summarizer.MinChars)
	}
	if cfg.Sync.Parallelism != 4 {
		t.Errorf("expected default parallelism 4, got %d", cfg.Sync.Parallelism)
	}
	if cfg.Embedder.Endpoint == "" {
		t.Error("expected embedder endpoint default")
	}
}

func TestLoad_RejectsMissingTenants(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
version: 1
store:
  backend: qdrant
embedder:
  provider: ollama
`)

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for config without tenants")
	}
}

func TestValidate_TenantNames(t *testing.T) {
	tests := []struct {
		name    string
		tenant  string
		wantErr bool
	}{
		{"simple", "acme", false},
		{"with dash", "acme-corp", false},
		{"with underscore", "acme_corp", false},
		{"with digits", "acme2", false},
		{"uppercase", "Acme", true},
		{"leading digit", "2acme", true},
		{"empty", "", true},
		{"spaces", "acme corp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Tenants = []TenantConfig{{Name: tt.tenant, Root: "/data"}}
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error for tenant name %q", tt.tenant)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for tenant name %q: %v", tt.tenant, err)
			}
		})
	}
}

func TestValidate_DuplicateTenant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tenants = []TenantConfig{
		{Name: "acme", Root: "/a"},
		{Name: "acme", Root: "/b"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate tenant name")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tenants = []TenantConfig{{Name: "acme", Root: "/a"}}
	cfg.Store.Backend = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tenants = []TenantConfig{{Name: "acme", Root: "/a"}}
	cfg.Store.Backend = "postgres"
	cfg.Store.Postgres.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for postgres without DSN")
	}
}

func TestValidate_OverlapBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tenants = []TenantConfig{{Name: "acme", Root: "/a"}}
	cfg.Chunking.Size = 100
	cfg.Chunking.Overlap = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Tenants = []TenantConfig{{Name: "acme", Root: "/data/acme"}}
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Tenants) != 1 || loaded.Tenants[0].Name != "acme" {
		t.Errorf("unexpected tenants after reload: %+v", loaded.Tenants)
	}
	if loaded.Store.Backend != "qdrant" {
		t.Errorf("unexpected backend after reload: %s", loaded.Store.Backend)
	}
}

func TestTenantLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tenants = []TenantConfig{
		{Name: "acme", Root: "/a"},
		{Name: "globex", Root: "/g"},
	}

	tc, err := cfg.Tenant("globex")
	if err != nil {
		t.Fatalf("Tenant failed: %v", err)
	}
	if tc.Root != "/g" {
		t.Errorf("unexpected root: %s", tc.Root)
	}

	if _, err := cfg.Tenant("initech"); err == nil {
		t.Fatal("expected error for unknown tenant")
	}

	names := cfg.TenantNames()
	if len(names) != 2 || names[0] != "acme" || names[1] != "globex" {
		t.Errorf("unexpected tenant names: %v", names)
	}
}
