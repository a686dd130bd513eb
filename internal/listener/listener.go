package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"medmaster/internal/config"
	"medmaster/internal/connectors"
	gmailconnector "medmaster/internal/connectors/gmail"
	imapconnector "medmaster/internal/connectors/imap"
	"medmaster/internal/mailimport"
	"medmaster/internal/pipeline"
	"medmaster/internal/storage"
)

// Service polls a mailbox on a fixed interval, stores whatever it fetches,
// and runs the catalogue importer over the pending mails.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	processor := mailimport.NewProcessingService(s.db, s.cfg)
	processedMails, importedRecords, err := processor.ProcessPending(s.cfg.MailListenerBatch, provider)
	if err != nil {
		return err
	}

	if s.cfg.MailListenerAutoExport && importedRecords > 0 {
		if err := s.exportSnapshot(); err != nil {
			return err
		}
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d stored=%d mails=%d imported=%d\n",
		provider, fetchResult.Fetched, fetchResult.Stored, processedMails, importedRecords)
	_ = ctx
	return nil
}

// exportSnapshot writes the full catalogue to a timestamped workbook so the
// pharmacy staff can review what the last mail batch changed.
func (s *Service) exportSnapshot() error {
	rows, err := s.db.ListMedicines()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	filename := fmt.Sprintf("catalogue_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
	return pipeline.ExportMedicinesToXLSX(rows, outputPath)
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
