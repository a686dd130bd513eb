package mailimport

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"medmaster/internal"
	"medmaster/internal/config"
	"medmaster/internal/pipeline"
	"medmaster/internal/storage"
)

// ProcessingService turns fetched vendor mails into catalogue imports:
// spreadsheet attachments are dropped into the incoming directory and run
// through the file pipeline, HTML body tables are imported directly.
type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

type ProcessResult struct {
	MailID  int
	Sources int
	Result  internal.ImportResult
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	mail, err := s.db.MustMailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessMail(mail)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListMailByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedMails := 0
	importedRecords := 0
	for _, mail := range pending {
		if provider != "" && mail.Provider != provider {
			continue
		}
		res, err := s.ProcessMail(mail)
		if err != nil {
			return processedMails, importedRecords, err
		}
		processedMails++
		importedRecords += res.Result.Imported
	}
	return processedMails, importedRecords, nil
}

func (s *ProcessingService) ProcessMail(mail internal.MailRow) (ProcessResult, error) {
	start := time.Now()
	raw, err := os.ReadFile(mail.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ProcessResult{}, err
	}

	subject := firstNonEmpty(env.GetHeader("Subject"), mail.Subject)
	attachmentNames := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		attachmentNames = append(attachmentNames, att.FileName)
	}

	detect := DetectCatalogueMail(subject, env.Text, env.HTML, attachmentNames)
	if !detect.IsCatalogue {
		_ = s.db.UpdateMailStatus(mail.ID, "skipped")
		_ = s.db.InsertImportRun(traceID(), "mail", "", mail.ID,
			map[string]int{"sources": 0, "imported": 0, "failed": 0, "skipped": 0},
			map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())})
		return ProcessResult{MailID: mail.ID}, nil
	}

	importer := pipeline.NewImporter(s.db, s.cfg.ImportBatchSize)
	importer.Enrich = s.cfg.ImportEnrich

	total := internal.ImportResult{Success: true}
	sources := 0
	failures := []string{}

	for _, att := range env.Attachments {
		if !hasTableExtension(att.FileName) {
			continue
		}
		savedPath, err := s.saveAttachment(mail.ID, att.FileName, att.Content)
		if err != nil {
			return ProcessResult{}, err
		}
		sources++
		mergeResult(&total, importer.ImportFile(savedPath), &failures)
	}

	if env.HTML != "" {
		headers, rows, err := pipeline.ReadHTMLTable(strings.NewReader(env.HTML))
		if err == nil && len(headers) > 0 {
			sources++
			mergeResult(&total, importer.ImportTable(headers, rows), &failures)
		}
	}

	status := "processed"
	if sources == 0 {
		status = "skipped"
	}
	if err := s.db.UpdateMailStatus(mail.ID, status); err != nil {
		return ProcessResult{}, err
	}

	total.Message = strings.Join(failures, "; ")
	_ = s.db.InsertImportRun(traceID(), "mail", subject, mail.ID,
		map[string]int{"sources": sources, "imported": total.Imported, "failed": total.Failed, "skipped": total.Skipped},
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())})

	return ProcessResult{MailID: mail.ID, Sources: sources, Result: total}, nil
}

func (s *ProcessingService) saveAttachment(mailID int, fileName string, content []byte) (string, error) {
	if err := os.MkdirAll(s.cfg.IncomingDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d_%s", mailID, sanitizeFilename(fileName))
	path := filepath.Join(s.cfg.IncomingDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// mergeResult folds one source's counters into the mail-level total. A failed
// source does not abort the mail; the other attachments still import.
func mergeResult(total *internal.ImportResult, res internal.ImportResult, failures *[]string) {
	total.Imported += res.Imported
	total.Failed += res.Failed
	total.Skipped += res.Skipped
	total.Total += res.Total
	if !res.Success {
		total.Success = false
		if res.Message != "" {
			*failures = append(*failures, res.Message)
		}
	}
}

func sanitizeFilename(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "attachment"
	}
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
