package storagekeys

import (
	"bytes"
	"testing"
)

func TestPalletPrefixLength(t *testing.T) {
	p := PalletPrefix("System", "Account")
	if len(p) != 32 {
		t.Fatalf("prefix length = %d, want 32", len(p))
	}
}

func TestPalletPrefixDeterministic(t *testing.T) {
	a := PalletPrefix("System", "Account")
	b := PalletPrefix("System", "Account")
	if !bytes.Equal(a, b) {
		t.Fatal("PalletPrefix not deterministic")
	}
	c := PalletPrefix("Balances", "Account")
	if bytes.Equal(a, c) {
		t.Fatal("different entries produced the same prefix")
	}
}

func TestBuildKeyConcatRoundtrip(t *testing.T) {
	accountKey := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
		17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32}
	key := BuildKey("System", "Account", MapKeyPart{Hasher: Blake2_128Concat, Raw: accountKey})

	suffix, ok := StripPrefix(key, "System", "Account",
		[]Hasher{Blake2_128Concat}, []int{len(accountKey)})
	if !ok {
		t.Fatal("StripPrefix failed")
	}
	if !bytes.Equal(suffix, accountKey) {
		t.Fatalf("suffix mismatch: got %x want %x", suffix, accountKey)
	}
}

func TestStripPrefixRejectsNonConcat(t *testing.T) {
	key := BuildKey("Assets", "Asset", MapKeyPart{Hasher: Twox64Concat, Raw: []byte{1, 2, 3, 4}})
	_, ok := StripPrefix(key, "Assets", "Asset", []Hasher{Twox128}, []int{4})
	if ok {
		t.Fatal("expected StripPrefix to reject a non-concat hasher")
	}
}

func TestHashStability(t *testing.T) {
	// twox128/blake2_128 outputs must be a fixed width regardless of input.
	for _, h := range []Hasher{Twox128, Blake2_128} {
		out := Hash(h, []byte("System"))
		if len(out) != 16 {
			t.Fatalf("hasher %v produced %d bytes, want 16", h, len(out))
		}
	}
	if len(Hash(Twox64Concat, []byte("x"))) != 1+8 {
		t.Fatal("twox64concat length mismatch")
	}
}
