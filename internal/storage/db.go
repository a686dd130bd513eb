package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"medmaster/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS medicines_master (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  medicine_name TEXT NOT NULL,
  company_name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  dosage_mg TEXT NOT NULL DEFAULT '',
  dosage_form TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  is_pediatric INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_medicines_identity
  ON medicines_master(medicine_name, company_name, category, dosage_mg, dosage_form, description, is_pediatric);
CREATE INDEX IF NOT EXISTS idx_medicines_name ON medicines_master(medicine_name);
CREATE INDEX IF NOT EXISTS idx_medicines_category ON medicines_master(category);

CREATE TABLE IF NOT EXISTS vendor_mail (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS import_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  source TEXT NOT NULL,
  fileName TEXT,
  mailId INTEGER,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(mailId) REFERENCES vendor_mail(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertOrIgnoreBatch inserts the records in one transaction, counting only
// the rows that were actually new. Duplicates under the identity index are
// ignored silently; any statement error rolls the whole batch back.
func (d *DB) InsertOrIgnoreBatch(records []internal.MedicineRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT OR IGNORE INTO medicines_master
  (medicine_name, company_name, category, dosage_mg, dosage_form, description, is_pediatric)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		res, err := stmt.Exec(
			rec.MedicineName, rec.CompanyName, rec.Category,
			rec.DosageMg, rec.DosageForm, rec.Description, rec.IsPediatric,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (d *DB) CountMedicines() (int, error) {
	var count int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM medicines_master`).Scan(&count)
	return count, err
}

// DeleteAllMedicines is the destructive reset behind reimport. Only ever
// invoked by the operator, never by the importer itself.
func (d *DB) DeleteAllMedicines() error {
	_, err := d.conn.Exec(`DELETE FROM medicines_master`)
	return err
}

func (d *DB) ListMedicines() ([]internal.MedicineRow, error) {
	return d.queryMedicines(`
SELECT id, medicine_name, company_name, category, dosage_mg, dosage_form, description, is_pediatric, created_at
FROM medicines_master ORDER BY medicine_name`)
}

// SearchMedicines does the LIKE search the desktop frontend uses.
func (d *DB) SearchMedicines(query string) ([]internal.MedicineRow, error) {
	pattern := "%" + query + "%"
	return d.queryMedicines(`
SELECT id, medicine_name, company_name, category, dosage_mg, dosage_form, description, is_pediatric, created_at
FROM medicines_master
WHERE medicine_name LIKE ? OR company_name LIKE ? OR category LIKE ? OR dosage_mg LIKE ?
ORDER BY medicine_name`, pattern, pattern, pattern, pattern)
}

func (d *DB) MedicineDosages(medicineName string) ([]string, error) {
	rows, err := d.conn.Query(`
SELECT DISTINCT dosage_mg FROM medicines_master
WHERE medicine_name = ? AND dosage_mg != '' ORDER BY dosage_mg`, medicineName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var dosage string
		if err := rows.Scan(&dosage); err != nil {
			return nil, err
		}
		out = append(out, dosage)
	}
	return out, rows.Err()
}

func (d *DB) GetMedicineByNameAndDosage(medicineName, dosage string) (*internal.MedicineRow, error) {
	rows, err := d.queryMedicines(`
SELECT id, medicine_name, company_name, category, dosage_mg, dosage_form, description, is_pediatric, created_at
FROM medicines_master WHERE medicine_name = ? AND dosage_mg = ? LIMIT 1`, medicineName, dosage)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (d *DB) queryMedicines(query string, args ...any) ([]internal.MedicineRow, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MedicineRow
	for rows.Next() {
		var row internal.MedicineRow
		if err := rows.Scan(
			&row.ID, &row.MedicineName, &row.CompanyName, &row.Category,
			&row.DosageMg, &row.DosageForm, &row.Description, &row.IsPediatric, &row.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SeedDefaultMedicines loads the starter catalogue into an empty store so a
// fresh install has something to prescribe against. No-op when any rows
// exist.
func (d *DB) SeedDefaultMedicines() (int, error) {
	count, err := d.CountMedicines()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	return d.InsertOrIgnoreBatch(defaultMedicines)
}

func (d *DB) UpsertMail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.MailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO vendor_mail (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.MailRow{}, err
	}

	row, err := d.GetMailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.MailRow{}, err
	}
	if row == nil {
		return internal.MailRow{}, errors.New("failed to upsert vendor mail")
	}
	return *row, nil
}

func (d *DB) GetMailByProviderMessageID(provider, messageID string) (*internal.MailRow, error) {
	var row internal.MailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM vendor_mail WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustMailByProviderMessageID(provider, messageID string) (internal.MailRow, error) {
	row, err := d.GetMailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.MailRow{}, err
	}
	if row == nil {
		return internal.MailRow{}, fmt.Errorf("vendor mail not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListMailByStatus(status string, limit int) ([]internal.MailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM vendor_mail WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.MailRow
	for rows.Next() {
		var row internal.MailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateMailStatus(mailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE vendor_mail SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, mailID)
	return err
}

func (d *DB) InsertImportRun(traceID, source, fileName string, mailID int, counts map[string]int, timings map[string]float64) error {
	countsJSON, _ := json.Marshal(counts)
	timingsJSON, _ := json.Marshal(timings)

	var mailRef any
	if mailID > 0 {
		mailRef = mailID
	}
	_, err := d.conn.Exec(`
INSERT INTO import_runs (traceId, source, fileName, mailId, countsJson, timingsJson)
VALUES (?, ?, ?, ?, ?, ?)`, traceID, source, fileName, mailRef, string(countsJSON), string(timingsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
