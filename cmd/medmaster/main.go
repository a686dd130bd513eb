package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"medmaster/internal"
	"medmaster/internal/backup"
	"medmaster/internal/catalog"
	"medmaster/internal/config"
	"medmaster/internal/connectors"
	gmailconnector "medmaster/internal/connectors/gmail"
	imapconnector "medmaster/internal/connectors/imap"
	"medmaster/internal/listener"
	"medmaster/internal/mailimport"
	"medmaster/internal/pipeline"
	"medmaster/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "csv/xlsx/html catalogue file")
		batch := fs.Int("batch", cfg.ImportBatchSize, "insert batch size")
		enrich := fs.Bool("enrich", cfg.ImportEnrich, "fill blank dosage/form/pediatric fields from row text")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		importer := pipeline.NewImporter(db, *batch)
		importer.Enrich = *enrich
		importer.Verbose = true
		printImportResult(importer.ImportFile(*file))
	case "reimport":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "csv/xlsx/html catalogue file")
		batch := fs.Int("batch", cfg.ImportBatchSize, "insert batch size")
		enrich := fs.Bool("enrich", cfg.ImportEnrich, "fill blank dosage/form/pediatric fields from row text")
		yes := fs.Bool("yes", false, "confirm clearing a non-empty catalogue")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		count, err := db.CountMedicines()
		must(err)
		if count > 0 && !*yes {
			must(fmt.Errorf("catalogue has %d medicines; pass --yes to clear and reimport", count))
		}
		must(db.DeleteAllMedicines())
		importer := pipeline.NewImporter(db, *batch)
		importer.Enrich = *enrich
		importer.Verbose = true
		printImportResult(importer.ImportFile(*file))
	case "catalog:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		query := fs.String("query", "", "medicine name query")
		fuzzy := fs.Bool("fuzzy", false, "rank by name similarity instead of substring match")
		limit := fs.Int("limit", 20, "max results")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*query) == "" {
			must(fmt.Errorf("--query is required"))
		}
		if *fuzzy {
			rows, err := db.ListMedicines()
			must(err)
			hits := catalog.BuildIndex(rows).Search(*query, *limit)
			if len(hits) == 0 {
				fmt.Println("no matches")
				return
			}
			for _, hit := range hits {
				fmt.Printf("%.2f  %s  %s  %s\n", hit.Score, hit.Medicine.MedicineName, hit.Medicine.DosageMg, hit.Medicine.DosageForm)
			}
			return
		}
		rows, err := db.SearchMedicines(*query)
		must(err)
		if len(rows) == 0 {
			fmt.Println("no matches")
			return
		}
		if len(rows) > *limit {
			rows = rows[:*limit]
		}
		for _, row := range rows {
			fmt.Printf("%s  %s  %s  %s\n", row.MedicineName, row.CompanyName, row.DosageMg, row.DosageForm)
		}
	case "catalog:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		rows, err := db.ListMedicines()
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("catalogue is empty, nothing to export"))
		}
		must(pipeline.ExportMedicinesToXLSX(rows, *out))
		fmt.Printf("exported %d medicines to %s\n", len(rows), *out)
	case "catalog:seed":
		inserted, err := db.SeedDefaultMedicines()
		must(err)
		fmt.Printf("seed complete: %d medicines\n", inserted)
	case "formulary:sync":
		svc := catalog.NewSyncService(db, cfg)
		result, err := svc.Sync(context.Background())
		must(err)
		fmt.Printf("formulary sync complete fetched=%d inserted=%d\n", result.Fetched, result.Inserted)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := mailimport.NewProcessingService(db, cfg)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed mail id=%d sources=%d imported=%d failed=%d skipped=%d\n",
				res.MailID, res.Sources, res.Result.Imported, res.Result.Failed, res.Result.Skipped)
			return
		}
		processedMails, importedRecords, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending mails=%d imported=%d\n", processedMails, importedRecords)
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	case "backup:upload":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "remote object name, default hospital_backup_<timestamp>.db")
		_ = fs.Parse(os.Args[2:])
		svc, err := backup.NewService(context.Background(), cfg)
		must(err)
		remoteName := strings.TrimSpace(*name)
		if remoteName == "" {
			remoteName = backup.BackupFilename()
		}
		remote, err := svc.Upload(cfg.DBPath, remoteName)
		must(err)
		fmt.Printf("backup uploaded to gs://%s/%s\n", cfg.BackupBucket, remote)
	case "backup:list":
		svc, err := backup.NewService(context.Background(), cfg)
		must(err)
		backups, err := svc.List()
		must(err)
		if len(backups) == 0 {
			fmt.Println("no backups found")
			return
		}
		for _, b := range backups {
			fmt.Printf("%s  %s  %d bytes\n", b.Updated, b.Name, b.Size)
		}
	case "backup:restore":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		name := fs.String("name", "", "backup object name, e.g. hospital_backup_20260101_120000.db")
		out := fs.String("out", "", "restore target path, default DB_PATH")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*name) == "" {
			must(fmt.Errorf("--name is required"))
		}
		target := strings.TrimSpace(*out)
		if target == "" {
			target = cfg.DBPath
		}
		// The open handle must go before the file is replaced.
		must(db.Close())
		svc, err := backup.NewService(context.Background(), cfg)
		must(err)
		remote := *name
		if !strings.Contains(remote, "/") {
			remote = "hospital-backups/" + remote
		}
		must(svc.Restore(remote, target))
		fmt.Printf("restored %s to %s\n", filepath.Base(remote), target)
	default:
		usage()
		os.Exit(1)
	}
}

func printImportResult(result internal.ImportResult) {
	if !result.Success {
		fmt.Fprintf(os.Stderr, "import failed: %s\n", result.Message)
		os.Exit(1)
	}
	fmt.Printf("import done imported=%d failed=%d skipped=%d total=%d\n",
		result.Imported, result.Failed, result.Skipped, result.Total)
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: medmaster <command>")
	fmt.Println("commands:")
	fmt.Println("  import --file=catalogue.csv [--batch=1000] [--enrich]")
	fmt.Println("  reimport --file=catalogue.csv [--batch=1000] [--enrich] [--yes]")
	fmt.Println("  catalog:search --query=paracetamol [--fuzzy] [--limit=20]")
	fmt.Println("  catalog:export --out=./out/catalogue.xlsx")
	fmt.Println("  catalog:seed")
	fmt.Println("  formulary:sync")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  backup:upload [--name=...]")
	fmt.Println("  backup:list")
	fmt.Println("  backup:restore --name=hospital_backup_20260101_120000.db [--out=...]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
