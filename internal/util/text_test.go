package util

import "testing"

func TestCleanCell(t *testing.T) {
	if got := CleanCell("\uFEFFParacetamol  "); got != "Paracetamol" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanHeader(t *testing.T) {
	if got := CleanHeader("  Product_Name "); got != "product_name" {
		t.Fatalf("got %q", got)
	}
}

func TestParseBoolFlag(t *testing.T) {
	for _, v := range []string{"yes", "Yes", "TRUE", "1", "y", " Y "} {
		if ParseBoolFlag(v) != 1 {
			t.Fatalf("%q not truthy", v)
		}
	}
	for _, v := range []string{"", "no", "false", "0", "2", "ja"} {
		if ParseBoolFlag(v) != 0 {
			t.Fatalf("%q not falsy", v)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Crocin® Advance (650mg)! "); got != "CROCIN ADVANCE 650MG" {
		t.Fatalf("got %q", got)
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Crocin Advance 650mg x")
	if len(tokens) != 3 || tokens[0] != "CROCIN" || tokens[1] != "ADVANCE" || tokens[2] != "650MG" {
		t.Fatalf("got %v", tokens)
	}
}

func TestDiceCoefficient(t *testing.T) {
	if DiceCoefficient("PARACETAMOL", "PARACETAMOL") != 1 {
		t.Fatal("identical strings should score 1")
	}
	if DiceCoefficient("", "PARACETAMOL") != 0 {
		t.Fatal("empty string should score 0")
	}
	close := DiceCoefficient("PARACETAMOL", "PARACETEMOL")
	far := DiceCoefficient("PARACETAMOL", "METFORMIN")
	if close <= far {
		t.Fatalf("close=%f far=%f", close, far)
	}
}
