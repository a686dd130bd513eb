package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// FileFormat is the one-shot detection artifact for a source file: the text
// encoding able to decode it and the field delimiter. Computed once per run,
// immutable thereafter.
type FileFormat struct {
	Encoding  string
	Delimiter rune
}

// ErrEncodingDetection is returned when no candidate encoding decodes the
// file prefix. Latin-1 accepts any byte sequence, so this is practically
// unreachable, but the contract allows it.
var ErrEncodingDetection = errors.New("could not detect file encoding")

const detectSampleSize = 1024

var (
	encodingCandidates  = []string{"utf-8-sig", "utf-8", "latin-1", "cp1252", "iso-8859-1"}
	delimiterCandidates = []rune{',', ';', '\t', '|'}

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat inspects a fixed-size prefix of the file and picks an encoding
// and a delimiter. Pure inspection; the caller re-opens the file for row
// iteration.
func DetectFormat(path string) (FileFormat, error) {
	prefix, err := readPrefix(path, detectSampleSize)
	if err != nil {
		return FileFormat{}, err
	}

	encoding := ""
	for _, candidate := range encodingCandidates {
		if decodable(candidate, prefix) {
			encoding = candidate
			break
		}
	}
	if encoding == "" {
		return FileFormat{}, ErrEncodingDetection
	}

	sample, err := decodeBytes(encoding, prefix)
	if err != nil {
		return FileFormat{}, err
	}

	delimiter, err := sniffDelimiter(sample)
	if err != nil {
		delimiter = fallbackDelimiter(firstLine(sample))
	}

	return FileFormat{Encoding: encoding, Delimiter: delimiter}, nil
}

// OpenDecoded opens the file for reading through the detected encoding.
func OpenDecoded(path string, format FileFormat) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch format.Encoding {
	case "utf-8":
		return f, nil
	case "utf-8-sig":
		return &decodedFile{f: f, r: newBOMStripReader(f)}, nil
	case "latin-1", "iso-8859-1":
		return &decodedFile{f: f, r: transform.NewReader(f, charmap.ISO8859_1.NewDecoder())}, nil
	case "cp1252":
		return &decodedFile{f: f, r: transform.NewReader(f, charmap.Windows1252.NewDecoder())}, nil
	default:
		_ = f.Close()
		return nil, fmt.Errorf("unsupported encoding: %s", format.Encoding)
	}
}

// LooksBinary reports whether the file prefix is clearly not delimited text:
// NUL bytes, or the SQLite database magic (operators keep pointing the
// importer at hospital.db).
func LooksBinary(path string) (bool, error) {
	prefix, err := readPrefix(path, 512)
	if err != nil {
		return false, err
	}
	if bytes.HasPrefix(prefix, []byte("SQLite format 3")) {
		return true, nil
	}
	return bytes.IndexByte(prefix, 0x00) >= 0, nil
}

type decodedFile struct {
	f *os.File
	r io.Reader
}

func (d *decodedFile) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decodedFile) Close() error               { return d.f.Close() }

func newBOMStripReader(r io.Reader) io.Reader {
	buffered := make([]byte, 3)
	n, _ := io.ReadFull(r, buffered)
	buffered = buffered[:n]
	if bytes.Equal(buffered, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(buffered), r)
}

func readPrefix(path string, size int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prefix := make([]byte, size)
	n, err := io.ReadFull(f, prefix)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return prefix[:n], nil
}

func decodable(encoding string, prefix []byte) bool {
	switch encoding {
	case "utf-8-sig":
		return bytes.HasPrefix(prefix, utf8BOM) && utf8.Valid(trimPartialRune(prefix))
	case "utf-8":
		return utf8.Valid(trimPartialRune(prefix))
	case "latin-1", "cp1252", "iso-8859-1":
		// Single-byte charmaps decode any input.
		return true
	default:
		return false
	}
}

// trimPartialRune drops a multi-byte sequence cut off by the prefix boundary
// so it does not fail validation.
func trimPartialRune(prefix []byte) []byte {
	end := len(prefix)
	for end > 0 && end > len(prefix)-4 {
		r, size := utf8.DecodeLastRune(prefix[:end])
		if r != utf8.RuneError || size != 1 {
			break
		}
		end--
	}
	return prefix[:end]
}

func decodeBytes(encoding string, prefix []byte) (string, error) {
	switch encoding {
	case "utf-8":
		return string(prefix), nil
	case "utf-8-sig":
		return string(bytes.TrimPrefix(prefix, utf8BOM)), nil
	case "latin-1", "iso-8859-1":
		out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), prefix)
		return string(out), err
	case "cp1252":
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), prefix)
		return string(out), err
	default:
		return "", fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// sniffDelimiter looks for a candidate whose per-line count is stable across
// the sampled lines, mirroring what a CSV dialect sniffer accepts. Errors
// when no candidate qualifies; the caller then falls back to first-line
// occurrence counts.
func sniffDelimiter(sample string) (rune, error) {
	lines := sampleLines(sample, 5)
	if len(lines) == 0 {
		return 0, errors.New("empty sample")
	}

	best := rune(0)
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		count := strings.Count(lines[0], string(candidate))
		if count == 0 {
			continue
		}
		stable := true
		for _, line := range lines[1:] {
			if strings.Count(line, string(candidate)) != count {
				stable = false
				break
			}
		}
		if stable && count > bestCount {
			best = candidate
			bestCount = count
		}
	}

	if best == 0 {
		return 0, errors.New("no stable delimiter in sample")
	}
	return best, nil
}

// fallbackDelimiter picks the candidate with the highest occurrence count in
// the first line; ties go to the earlier candidate, and comma wins when none
// occur at all.
func fallbackDelimiter(line string) rune {
	best := ','
	bestCount := 0
	for _, candidate := range delimiterCandidates {
		if count := strings.Count(line, string(candidate)); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}

func firstLine(sample string) string {
	if idx := strings.IndexByte(sample, '\n'); idx >= 0 {
		return sample[:idx]
	}
	return sample
}

func sampleLines(sample string, max int) []string {
	parts := strings.Split(strings.ReplaceAll(sample, "\r\n", "\n"), "\n")
	out := make([]string, 0, max)
	for i, p := range parts {
		// The trailing fragment of the sample is usually a cut-off line.
		if i == len(parts)-1 && len(parts) > 1 {
			break
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}
