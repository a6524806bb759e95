// Package config resolves runtime settings from the environment. A .env file
// in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/registry"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/snapshot"
)

type Config struct {
	ProjectID         string `validate:"required"`
	FeedbackMaxIssues int    `validate:"min=1"`
	Workers           int    `validate:"min=0"`
	Snapshot          SnapshotConfig
	Resolve           ResolveConfig
}

type SnapshotConfig struct {
	Backend     string `validate:"oneof=memory disk postgres s3 badger"`
	Dir         string
	PostgresDSN string `validate:"required_if=Backend postgres"`
	S3          S3Config
	BadgerDir   string
	Cache       bool
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	KeyPrefix string
	UseSSL    bool
}

type ResolveConfig struct {
	Extensions []string
	Aliases    map[string]string
}

var validate = validator.New()

// Load reads ROUNDCHECK_*, SNAPSHOT_* and RESOLVE_* variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ProjectID:         firstNonEmpty(env("ROUNDCHECK_PROJECT_ID"), "default"),
		FeedbackMaxIssues: envInt("FEEDBACK_MAX_ISSUES", 10),
		Workers:           envInt("ROUNDCHECK_WORKERS", 0),
		Snapshot:          loadSnapshotConfig(),
		Resolve: ResolveConfig{
			Extensions: splitList(env("RESOLVE_EXTENSIONS")),
			Aliases:    parseAliases(env("RESOLVE_ALIASES")),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Snapshot.Backend == snapshot.BackendS3 && c.Snapshot.S3.Endpoint == "" {
		return fmt.Errorf("invalid config: SNAPSHOT_S3_ENDPOINT is required for the s3 backend")
	}
	return nil
}

func loadSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Backend:     strings.ToLower(firstNonEmpty(env("SNAPSHOT_BACKEND"), snapshot.BackendDisk)),
		Dir:         env("SNAPSHOT_DIR"),
		PostgresDSN: firstNonEmpty(env("SNAPSHOT_PG_DSN"), env("DATABASE_URL")),
		S3: S3Config{
			Endpoint:  env("SNAPSHOT_S3_ENDPOINT"),
			Region:    firstNonEmpty(env("SNAPSHOT_S3_REGION"), "us-east-1"),
			AccessKey: firstNonEmpty(env("SNAPSHOT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(env("SNAPSHOT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
			Bucket:    firstNonEmpty(env("SNAPSHOT_S3_BUCKET"), "roundcheck-snapshots"),
			KeyPrefix: env("SNAPSHOT_S3_PREFIX"),
			UseSSL:    envBool("SNAPSHOT_S3_USE_SSL", false),
		},
		BadgerDir: env("SNAPSHOT_BADGER_DIR"),
		Cache:     envBool("SNAPSHOT_CACHE", false),
	}
}

// SnapshotStoreConfig converts to the form snapshot.Open expects.
func (c *Config) SnapshotStoreConfig() snapshot.Config {
	s := c.Snapshot
	return snapshot.Config{
		Backend:     s.Backend,
		Dir:         s.Dir,
		PostgresDSN: s.PostgresDSN,
		S3: snapshot.S3Config{
			Endpoint:  s.S3.Endpoint,
			Region:    s.S3.Region,
			AccessKey: s.S3.AccessKey,
			SecretKey: s.S3.SecretKey,
			Bucket:    s.S3.Bucket,
			KeyPrefix: s.S3.KeyPrefix,
			UseSSL:    s.S3.UseSSL,
		},
		BadgerDir: s.BadgerDir,
		Cache:     s.Cache,
	}
}

// RegistryOptions applies resolver overrides on top of the defaults.
func (c *Config) RegistryOptions() registry.Options {
	opts := registry.DefaultOptions()
	if len(c.Resolve.Extensions) > 0 {
		opts.SourceExtensions = c.Resolve.Extensions
	}
	for prefix, root := range c.Resolve.Aliases {
		opts.Aliases[prefix] = root
	}
	return opts
}

// parseAliases reads "@/=frontend/src,~=shared".
func parseAliases(raw string) map[string]string {
	out := map[string]string{}
	for _, item := range splitList(raw) {
		prefix, root, ok := strings.Cut(item, "=")
		prefix = strings.TrimSpace(prefix)
		if !ok || prefix == "" {
			continue
		}
		out[prefix] = strings.TrimSpace(root)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string, def int) int {
	raw := env(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := env(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
