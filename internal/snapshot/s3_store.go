package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// S3Config addresses the bucket that holds snapshots. KeyPrefix lets several
// deployments share one bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	KeyPrefix string
	UseSSL    bool
}

// S3Store writes one JSON object per record under
// [<prefix>/]<project>/records/<path>.json.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
	prefix string

	bucketOnce sync.Once
	bucketErr  error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	var missing []string
	for name, v := range map[string]string{
		"endpoint":   cfg.Endpoint,
		"access key": cfg.AccessKey,
		"secret key": cfg.SecretKey,
		"bucket":     cfg.Bucket,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("s3 snapshot store: missing %s", strings.Join(missing, ", "))
	}
	region := firstNonEmpty(strings.TrimSpace(cfg.Region), "us-east-1")
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 snapshot store: client for %s: %w", cfg.Endpoint, err)
	}
	return &S3Store{
		client: client,
		bucket: strings.TrimSpace(cfg.Bucket),
		region: region,
		prefix: strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/"),
	}, nil
}

// ready creates the bucket on first use. The outcome is cached, so a store
// whose bucket cannot be reached keeps failing fast.
func (s *S3Store) ready(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		switch {
		case err != nil:
			s.bucketErr = fmt.Errorf("check bucket %s: %w", s.bucket, err)
		case !exists:
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
				s.bucketErr = fmt.Errorf("create bucket %s: %w", s.bucket, err)
				return
			}
			log.Printf("Snapshot: created bucket %s", s.bucket)
		}
	})
	return s.bucketErr
}

func (s *S3Store) Append(ctx context.Context, projectID string, records []types.FileRecord) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return err
	}
	if err := checkRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := s.ready(ctx); err != nil {
		return err
	}
	// Objects are replaced wholesale, so fold duplicates first.
	for _, rec := range latestByPath(records) {
		key := s.recordKey(id, rec.Path)
		cur, err := s.getRecord(ctx, key)
		if err != nil {
			return fmt.Errorf("read record %s: %w", rec.Path, err)
		}
		if cur.Path != "" && !newer(rec, cur) {
			continue
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.Path, err)
		}
		_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			return fmt.Errorf("put record %s: %w", rec.Path, err)
		}
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context, projectID string) ([]types.FileRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	var records []types.FileRecord
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.recordPrefix(id),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key == "" || !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		rec, err := s.getRecord(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		if rec.Path != "" {
			records = append(records, rec)
		}
	}
	return latestByPath(records), nil
}

func (s *S3Store) getRecord(ctx context.Context, key string) (types.FileRecord, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return types.FileRecord{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			// Absent, or removed between list and get.
			return types.FileRecord{}, nil
		}
		return types.FileRecord{}, err
	}
	var rec types.FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.FileRecord{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

func (s *S3Store) recordPrefix(projectID string) string {
	key := fileSafeID(projectID) + "/records/"
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

func (s *S3Store) recordKey(projectID, p string) string {
	return s.recordPrefix(projectID) + strings.TrimLeft(p, "/") + ".json"
}
