package indexer

import "testing"

func TestFingerprint(t *testing.T) {
	a := Fingerprint("the quick brown fox")
	b := Fingerprint("the quick brown fox")
	if a != b {
		t.Error("identical content must produce identical fingerprints")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}

	c := Fingerprint("the quick brown fax")
	if a == c {
		t.Error("single-character change must produce a different fingerprint")
	}

	if Fingerprint("") == Fingerprint(" ") {
		t.Error("empty and whitespace content must differ")
	}
}
