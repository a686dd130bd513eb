package internal

// MedicineRecord is the normalized unit produced by the import pipeline and
// consumed by the catalogue store. Every field is always present; optional
// source columns default to the empty string so downstream code never has to
// branch on presence.
type MedicineRecord struct {
	MedicineName string
	CompanyName  string
	Category     string
	DosageMg     string
	DosageForm   string
	Description  string
	IsPediatric  int
}

// MedicineRow is a stored catalogue entry.
type MedicineRow struct {
	ID int
	MedicineRecord
	CreatedAt string
}

// ImportResult summarizes one full pipeline run over a single input file.
// Failed folds store-ignored duplicates and row/batch failures into one
// counter; the pipeline does not distinguish the causes.
type ImportResult struct {
	Success  bool
	Message  string
	Imported int
	Failed   int
	Skipped  int
	Total    int
}

// SearchHit is one ranked result from the fuzzy catalogue search.
type SearchHit struct {
	Medicine MedicineRow
	Score    float64
}

type MailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
