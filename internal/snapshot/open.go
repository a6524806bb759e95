package snapshot

import (
	"fmt"
	"log"
	"strings"
)

const (
	BackendMemory   = "memory"
	BackendDisk     = "disk"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendBadger   = "badger"
)

// Config selects and configures a backend.
type Config struct {
	Backend     string
	Dir         string
	PostgresDSN string
	S3          S3Config
	BadgerDir   string
	// Cache wraps the backend in a CachedStore.
	Cache bool
}

// Opened is a ready store plus whatever must be released at shutdown.
type Opened struct {
	Store Store
	close []func() error
}

func (o *Opened) Close() error {
	if o == nil {
		return nil
	}
	var first error
	for i := len(o.close) - 1; i >= 0; i-- {
		if err := o.close[i](); err != nil && first == nil {
			first = err
		}
	}
	o.close = nil
	return first
}

// Open builds the configured backend.
func Open(cfg Config) (*Opened, error) {
	opened := &Opened{}
	var origin Store
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		origin = NewMemoryStore()
	case BackendDisk:
		origin = NewDiskStore(cfg.Dir)
		log.Printf("Snapshot: disk store dir=%s", firstNonEmpty(cfg.Dir, defaultSnapshotDir()))
	case BackendPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, fmt.Errorf("snapshot postgres dsn is required")
		}
		db, err := OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		opened.close = append(opened.close, db.Close)
		origin = NewPostgresStore(db)
		log.Printf("Snapshot: postgres store")
	case BackendS3:
		s3Store, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot s3 store: %w", err)
		}
		origin = s3Store
		log.Printf("Snapshot: s3 bucket=%s endpoint=%s", cfg.S3.Bucket, cfg.S3.Endpoint)
	case BackendBadger:
		bs, err := OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		opened.close = append(opened.close, bs.Close)
		origin = bs
		log.Printf("Snapshot: badger store dir=%s", firstNonEmpty(cfg.BadgerDir, "(in-memory)"))
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}

	if cfg.Cache {
		origin = NewCachedStore(origin, DefaultCacheConfig())
	}
	opened.Store = origin
	return opened, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
