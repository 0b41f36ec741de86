package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDir      = ".docdex"
	ConfigFileName = "config.yaml"
	IgnoreFileName = ".docdexignore"
)

// tenantNamePattern restricts tenant names to identifiers that are safe as
// collection name prefixes in every supported backend.
var tenantNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

type Config struct {
	Version    int              `yaml:"version"`
	Tenants    []TenantConfig   `yaml:"tenants"`
	Store      StoreConfig      `yaml:"store"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Sync       SyncConfig       `yaml:"sync"`
	Watch      WatchConfig      `yaml:"watch"`
	Ignore     []string         `yaml:"ignore"`
}

// TenantConfig binds a tenant name to the directory its corpus lives in.
type TenantConfig struct {
	Name string `yaml:"name"`
	Root string `yaml:"root"`
}

type EmbedderConfig struct {
	Provider   string `yaml:"provider"` // ollama | openai
	Model      string `yaml:"model"`
	Endpoint   string `yaml:"endpoint,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Dimensions *int   `yaml:"dimensions,omitempty"`
}

// GetDimensions returns the configured dimensions or the provider default.
func (e *EmbedderConfig) GetDimensions() int {
	if e.Dimensions != nil {
		return *e.Dimensions
	}
	switch e.Provider {
	case "openai":
		return 1536
	default:
		return 768
	}
}

type SummarizerConfig struct {
	Provider string `yaml:"provider"` // ollama | openai
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// MinChars is the minimum document length that gets a catalog overview.
	// Shorter documents are chunk-indexed only.
	MinChars int `yaml:"min_chars"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend"` // qdrant | postgres
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type SyncConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Parallelism int `yaml:"parallelism"`
}

type WatchConfig struct {
	DebounceMs   int       `yaml:"debounce_ms"`
	LastSyncTime time.Time `yaml:"last_sync_time,omitempty"`
}

func DefaultConfig() *Config {
	defaultDim := 768
	return &Config{
		Version: 1,
		Embedder: EmbedderConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Endpoint:   "http://localhost:11434",
			Dimensions: &defaultDim,
		},
		Summarizer: SummarizerConfig{
			Provider: "ollama",
			Model:    "llama3.2",
			Endpoint: "http://localhost:11434",
			MinChars: 200,
		},
		Store: StoreConfig{
			Backend: "qdrant",
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		Chunking: ChunkingConfig{
			Size:    1600,
			Overlap: 200,
		},
		Sync: SyncConfig{
			BatchSize:   32,
			Parallelism: 4,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Ignore: []string{
			".git",
			".docdex",
			"node_modules",
			".idea",
			".vscode",
			"qdrant_storage",
		},
	}
}

func GetConfigDir(projectRoot string) string {
	return filepath.Join(projectRoot, ConfigDir)
}

func GetConfigPath(projectRoot string) string {
	return filepath.Join(GetConfigDir(projectRoot), ConfigFileName)
}

func Load(projectRoot string) (*Config, error) {
	configPath := GetConfigPath(projectRoot)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills in missing configuration values so older config files
// keep working after new fields are added.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Embedder.Endpoint == "" {
		switch c.Embedder.Provider {
		case "openai":
			c.Embedder.Endpoint = "https://api.openai.com/v1"
		default:
			c.Embedder.Endpoint = defaults.Embedder.Endpoint
		}
	}
	if c.Embedder.Dimensions == nil && c.Embedder.Provider == "ollama" {
		dim := 768
		c.Embedder.Dimensions = &dim
	}

	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = c.Embedder.Provider
	}
	if c.Summarizer.Endpoint == "" {
		switch c.Summarizer.Provider {
		case "openai":
			c.Summarizer.Endpoint = "https://api.openai.com/v1"
		default:
			c.Summarizer.Endpoint = defaults.Summarizer.Endpoint
		}
	}
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = defaults.Summarizer.Model
	}
	if c.Summarizer.MinChars <= 0 {
		c.Summarizer.MinChars = defaults.Summarizer.MinChars
	}

	if c.Chunking.Size == 0 {
		c.Chunking.Size = defaults.Chunking.Size
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = defaults.Chunking.Overlap
	}

	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = defaults.Sync.BatchSize
	}
	if c.Sync.Parallelism <= 0 {
		c.Sync.Parallelism = defaults.Sync.Parallelism
	}

	if c.Watch.DebounceMs == 0 {
		c.Watch.DebounceMs = defaults.Watch.DebounceMs
	}

	if c.Store.Backend == "qdrant" {
		if c.Store.Qdrant.Host == "" {
			c.Store.Qdrant.Host = defaults.Store.Qdrant.Host
		}
		if c.Store.Qdrant.Port <= 0 {
			c.Store.Qdrant.Port = 6334
		}
	}
}

// Validate rejects configurations the system must not start with. It is
// called from Load so an invalid file never reaches sync or query code.
func (c *Config) Validate() error {
	if len(c.Tenants) == 0 {
		return fmt.Errorf("config: at least one tenant is required")
	}
	seen := make(map[string]bool, len(c.Tenants))
	for _, t := range c.Tenants {
		if !tenantNamePattern.MatchString(t.Name) {
			return fmt.Errorf("config: invalid tenant name %q (must match %s)", t.Name, tenantNamePattern.String())
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate tenant name %q", t.Name)
		}
		seen[t.Name] = true
		if t.Root == "" {
			return fmt.Errorf("config: tenant %q has no root directory", t.Name)
		}
	}

	switch c.Store.Backend {
	case "qdrant":
		if c.Store.Qdrant.Host == "" {
			return fmt.Errorf("config: qdrant host is required")
		}
		if c.Store.Qdrant.Port <= 0 || c.Store.Qdrant.Port > 65535 {
			return fmt.Errorf("config: invalid qdrant port: %d", c.Store.Qdrant.Port)
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("config: postgres DSN is required")
		}
	default:
		return fmt.Errorf("config: unknown storage backend: %q", c.Store.Backend)
	}

	if c.Embedder.Provider != "ollama" && c.Embedder.Provider != "openai" {
		return fmt.Errorf("config: unknown embedding provider: %q", c.Embedder.Provider)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunk overlap %d must be in [0, %d)", c.Chunking.Overlap, c.Chunking.Size)
	}

	return nil
}

// Tenant returns the configuration for the named tenant.
func (c *Config) Tenant(name string) (*TenantConfig, error) {
	for i := range c.Tenants {
		if c.Tenants[i].Name == name {
			return &c.Tenants[i], nil
		}
	}
	return nil, fmt.Errorf("unknown tenant: %q", name)
}

// TenantNames returns the configured tenant names in declaration order.
func (c *Config) TenantNames() []string {
	names := make([]string, len(c.Tenants))
	for i, t := range c.Tenants {
		names[i] = t.Name
	}
	return names
}

func (c *Config) Save(projectRoot string) error {
	configDir := GetConfigDir(projectRoot)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := GetConfigPath(projectRoot)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func Exists(projectRoot string) bool {
	_, err := os.Stat(GetConfigPath(projectRoot))
	return err == nil
}

func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	cwd, err = filepath.EvalSymlinks(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	dir := cwd
	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no docdex project found (run 'docdex init' first)")
}
