package blockid

import "testing"

func TestParseHead(t *testing.T) {
	for _, raw := range []string{"head", "HEAD", "Head"} {
		b, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if b.Kind != KindHead {
			t.Fatalf("Parse(%q) = %+v, want Head", raw, b)
		}
	}
}

func TestParseHeight(t *testing.T) {
	b, err := Parse("12345")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Kind != KindHeight || b.Height != 12345 {
		t.Fatalf("got %+v, want height 12345", b)
	}
}

func TestParseHash(t *testing.T) {
	raw := "0x" + "ab" + "0000000000000000000000000000000000000000000000000000000000000" + "0"
	b, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Kind != KindHash {
		t.Fatalf("got %+v, want hash", b)
	}
	if b.String() != raw {
		t.Fatalf("roundtrip: got %s, want %s", b.String(), raw)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", "0xzz", "0xab", "notanumber", "-1"}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("Parse(%q) expected error", c)
		}
	}
}
