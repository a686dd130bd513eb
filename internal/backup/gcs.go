package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	"medmaster/internal/config"
)

const bucketPrefix = "hospital-backups"

// Service uploads, lists, and restores SQLite snapshots in a GCS bucket.
// Objects live under a fixed prefix so the bucket can be shared with other
// hospital exports.
type Service struct {
	bucket  string
	storage *gcs.Service
}

type BackupInfo struct {
	Name     string
	FullPath string
	Updated  string
	Size     int64
}

func NewService(ctx context.Context, cfg config.Config) (*Service, error) {
	if err := cfg.Require("BACKUP_BUCKET", cfg.BackupBucket); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithScopes(gcs.DevstorageReadWriteScope)}
	if cfg.BackupCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.BackupCredentialsFile))
	}
	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &Service{bucket: cfg.BackupBucket, storage: svc}, nil
}

// Upload pushes a local database file to the bucket. Empty remoteName keeps
// the local basename.
func (s *Service) Upload(localPath, remoteName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("backup file not found: %s", localPath)
	}
	defer f.Close()

	if remoteName == "" {
		remoteName = filepath.Base(localPath)
	}
	objectName := bucketPrefix + "/" + remoteName

	object := &gcs.Object{Name: objectName, ContentType: "application/x-sqlite3"}
	if _, err := s.storage.Objects.Insert(s.bucket, object).Media(f).Do(); err != nil {
		return "", err
	}
	return objectName, nil
}

// List returns the stored snapshots, newest first.
func (s *Service) List() ([]BackupInfo, error) {
	out := []BackupInfo{}
	pageToken := ""
	for {
		call := s.storage.Objects.List(s.bucket).Prefix(bucketPrefix + "/")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, obj := range resp.Items {
			if !strings.HasSuffix(obj.Name, ".db") && !strings.HasSuffix(obj.Name, ".db.bak") {
				continue
			}
			parts := strings.Split(obj.Name, "/")
			out = append(out, BackupInfo{
				Name:     parts[len(parts)-1],
				FullPath: obj.Name,
				Updated:  obj.Updated,
				Size:     int64(obj.Size),
			})
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Updated > out[j].Updated })
	return out, nil
}

// Restore downloads a snapshot over localPath. The caller is responsible for
// closing any open database handle first.
func (s *Service) Restore(remotePath, localPath string) error {
	resp, err := s.storage.Objects.Get(s.bucket, remotePath).Download()
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	tmpPath := localPath + ".download"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := tmp.ReadFrom(resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, localPath)
}

// BackupFilename yields a timestamped object name for a fresh snapshot.
func BackupFilename() string {
	return fmt.Sprintf("hospital_backup_%s.db", time.Now().Format("20060102_150405"))
}
