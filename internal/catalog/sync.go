package catalog

import (
	"context"
	"time"

	"medmaster/internal/config"
	"medmaster/internal/pipeline"
	"medmaster/internal/storage"
)

// SyncService pulls the central formulary into the local catalogue. Records
// go through the same insert-or-ignore batches as a file import, so a re-sync
// is as safe as a re-import.
type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

type SyncResult struct {
	Fetched  int
	Inserted int
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	medicines, err := s.client.GetMedicinesScrollAll(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	inserted := 0
	for start := 0; start < len(medicines); start += pipeline.DefaultBatchSize {
		end := start + pipeline.DefaultBatchSize
		if end > len(medicines) {
			end = len(medicines)
		}
		n, err := s.db.InsertOrIgnoreBatch(medicines[start:end])
		if err != nil {
			return SyncResult{}, err
		}
		inserted += n
	}

	_ = s.db.SetMetadata("formulary.last_sync", time.Now().UTC().Format(time.RFC3339))
	return SyncResult{Fetched: len(medicines), Inserted: inserted}, nil
}
