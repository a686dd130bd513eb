package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectFormatSemicolon(t *testing.T) {
	path := writeTempFile(t, "list.csv", []byte("a;b;c\n1;2;3\n"))
	format, err := DetectFormat(path)
	if err != nil {
		t.Fatal(err)
	}
	if format.Delimiter != ';' {
		t.Fatalf("expected ';', got %q", format.Delimiter)
	}
	if format.Encoding != "utf-8" {
		t.Fatalf("expected utf-8, got %s", format.Encoding)
	}
}

func TestDetectFormatTab(t *testing.T) {
	path := writeTempFile(t, "list.tsv", []byte("name\tcompany\nParacetamol\tABC\n"))
	format, err := DetectFormat(path)
	if err != nil {
		t.Fatal(err)
	}
	if format.Delimiter != '\t' {
		t.Fatalf("expected tab, got %q", format.Delimiter)
	}
}

func TestDetectFormatDefaultsToComma(t *testing.T) {
	path := writeTempFile(t, "plain.csv", []byte("name\nParacetamol\n"))
	format, err := DetectFormat(path)
	if err != nil {
		t.Fatal(err)
	}
	if format.Delimiter != ',' {
		t.Fatalf("expected ',', got %q", format.Delimiter)
	}
}

func TestDetectFormatUnstableCountsFallBackToFirstLine(t *testing.T) {
	// Second line has a different semicolon count, so the stable sniff fails
	// and the first-line occurrence count decides.
	path := writeTempFile(t, "ragged.csv", []byte("a;b;c\n1;2\nx\n"))
	format, err := DetectFormat(path)
	if err != nil {
		t.Fatal(err)
	}
	if format.Delimiter != ';' {
		t.Fatalf("expected ';', got %q", format.Delimiter)
	}
}

func TestFallbackDelimiterHighestCountWins(t *testing.T) {
	if got := fallbackDelimiter("a;b;c"); got != ';' {
		t.Fatalf("expected ';', got %q", got)
	}
	if got := fallbackDelimiter("a,b;c,d"); got != ',' {
		t.Fatalf("expected ',', got %q", got)
	}
	if got := fallbackDelimiter("plain text"); got != ',' {
		t.Fatalf("expected default ',', got %q", got)
	}
}

func TestDetectFormatBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,company\nParacetamol,ABC\n")...)
	path := writeTempFile(t, "bom.csv", content)

	format, err := DetectFormat(path)
	if err != nil {
		t.Fatal(err)
	}
	if format.Encoding != "utf-8-sig" {
		t.Fatalf("expected utf-8-sig, got %s", format.Encoding)
	}

	rc, err := OpenDecoded(path, format)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	decoded, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != "name,company\nParacetamol,ABC\n" {
		t.Fatalf("BOM not stripped: %q", decoded)
	}
}

func TestDetectFormatLatin1(t *testing.T) {
	// 0xE9 is é in latin-1 and invalid as a standalone UTF-8 byte.
	content := []byte("name,company\nDolipran\xe9,UPSA\n")
	path := writeTempFile(t, "latin1.csv", content)

	format, err := DetectFormat(path)
	if err != nil {
		t.Fatal(err)
	}
	if format.Encoding != "latin-1" {
		t.Fatalf("expected latin-1, got %s", format.Encoding)
	}

	rc, err := OpenDecoded(path, format)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	decoded, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != "name,company\nDoliprané,UPSA\n" {
		t.Fatalf("unexpected decode: %q", decoded)
	}
}

func TestLooksBinary(t *testing.T) {
	dbLike := writeTempFile(t, "hospital.db", []byte("SQLite format 3\x00rest"))
	binary, err := LooksBinary(dbLike)
	if err != nil {
		t.Fatal(err)
	}
	if !binary {
		t.Fatal("sqlite file not flagged as binary")
	}

	text := writeTempFile(t, "list.csv", []byte("name,company\n"))
	binary, err = LooksBinary(text)
	if err != nil {
		t.Fatal(err)
	}
	if binary {
		t.Fatal("plain text flagged as binary")
	}
}
