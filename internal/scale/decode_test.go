package scale

import (
	"encoding/json"
	"testing"

	"github.com/synnergy-network/substrate-gateway/internal/ss58"
)

// buildRegistry wires up a small registry covering: u8, u32, u64, u128,
// a composite Balance{free: u128}, a basic enum, a rich enum, an
// AccountId32, and a Vec<u8>.
func buildRegistry() (MapRegistry, map[string]TypeId) {
	reg := MapRegistry{}
	ids := map[string]TypeId{}
	next := TypeId(0)
	add := func(name string, info TypeInfo) TypeId {
		id := next
		next++
		reg[id] = info
		ids[name] = id
		return id
	}

	u8 := add("u8", TypeInfo{Kind: KindPrimitive, Primitive: PrimU8, Path: []string{"u8"}})
	add("u32", TypeInfo{Kind: KindPrimitive, Primitive: PrimU32, Path: []string{"u32"}})
	add("u64", TypeInfo{Kind: KindPrimitive, Primitive: PrimU64, Path: []string{"u64"}})
	u128 := add("u128", TypeInfo{Kind: KindPrimitive, Primitive: PrimU128, Path: []string{"u128"}})
	add("CompactU128", TypeInfo{Kind: KindCompact, Elem: u128, Path: []string{"Compact"}})

	byteArray32 := add("byteArray32", TypeInfo{Kind: KindArray, Elem: u8, Len: 32, Path: []string{"arr32"}})
	add("AccountId32", TypeInfo{
		Kind:   KindComposite,
		Path:   []string{"sp_core", "crypto", "AccountId32"},
		Fields: []Field{{HasName: false, Type: byteArray32}},
	})

	vecU8 := add("VecU8", TypeInfo{Kind: KindSequence, Elem: u8, Path: []string{"Vec"}})
	ids["VecU8Id"] = vecU8

	add("BasicEnum", TypeInfo{
		Kind: KindVariant,
		Path: []string{"BasicEnum"},
		Variants: []Variant{
			{Name: "red", Index: 0},
			{Name: "green", Index: 1},
			{Name: "blue", Index: 2},
		},
	})

	add("RichEnum", TypeInfo{
		Kind: KindVariant,
		Path: []string{"RichEnum"},
		Variants: []Variant{
			{Name: "none_variant", Index: 0},
			{Name: "single_value", Index: 1, Fields: []Field{{HasName: false, Type: u128}}},
			{Name: "named_fields", Index: 2, Fields: []Field{
				{Name: "dest", HasName: true, Type: ids["AccountId32"]},
				{Name: "amount", HasName: true, Type: u128},
			}},
		},
	})

	return reg, ids
}

func TestIntegerWidthEmission(t *testing.T) {
	reg, ids := buildRegistry()
	dec := NewDecoder(reg)
	ren := NewRenderer(42)

	// u32 value 7 -> number
	c := NewCursor([]byte{7, 0, 0, 0})
	n, err := dec.Decode(c, ids["u32"])
	if err != nil {
		t.Fatal(err)
	}
	if v := ren.Render(ContextStorage, n, false); v != int64(7) {
		t.Fatalf("u32 rendered as %#v, want int64(7)", v)
	}

	// u64 value 7 -> string
	c = NewCursor([]byte{7, 0, 0, 0, 0, 0, 0, 0})
	n, err = dec.Decode(c, ids["u64"])
	if err != nil {
		t.Fatal(err)
	}
	if v := ren.Render(ContextStorage, n, false); v != "7" {
		t.Fatalf("u64 rendered as %#v, want \"7\"", v)
	}
}

func TestBasicEnumRendersAsString(t *testing.T) {
	reg, ids := buildRegistry()
	dec := NewDecoder(reg)
	ren := NewRenderer(42)

	c := NewCursor([]byte{1}) // "green"
	n, err := dec.Decode(c, ids["BasicEnum"])
	if err != nil {
		t.Fatal(err)
	}
	v := ren.Render(ContextEvent, n, false)
	if v != "green" {
		t.Fatalf("got %#v, want \"green\"", v)
	}
}

func TestRichEnumShapes(t *testing.T) {
	reg, ids := buildRegistry()
	dec := NewDecoder(reg)
	ren := NewRenderer(42)

	// zero-field variant of a rich enum -> null
	c := NewCursor([]byte{0})
	n, err := dec.Decode(c, ids["RichEnum"])
	if err != nil {
		t.Fatal(err)
	}
	obj := ren.Render(ContextEvent, n, false).(*JSONObject)
	b, _ := json.Marshal(obj)
	if string(b) != `{"noneVariant":null}` {
		t.Fatalf("got %s", b)
	}

	// single unnamed field -> bare value
	c = NewCursor(append([]byte{1}, u128Bytes(1000)...))
	n, err = dec.Decode(c, ids["RichEnum"])
	if err != nil {
		t.Fatal(err)
	}
	obj = ren.Render(ContextEvent, n, false).(*JSONObject)
	b, _ = json.Marshal(obj)
	if string(b) != `{"singleValue":"1000"}` {
		t.Fatalf("got %s", b)
	}
}

func TestAccountIdRendersSS58(t *testing.T) {
	reg, ids := buildRegistry()
	dec := NewDecoder(reg)
	ren := NewRenderer(42)

	var acct [32]byte
	for i := range acct {
		acct[i] = byte(i)
	}
	c := NewCursor(acct[:])
	n, err := dec.Decode(c, ids["AccountId32"])
	if err != nil {
		t.Fatal(err)
	}
	v := ren.Render(ContextStorage, n, false)
	want := ss58.Encode(acct, 42)
	if v != want {
		t.Fatalf("got %#v, want %q", v, want)
	}
}

func TestBytesRenderAsHex(t *testing.T) {
	reg, ids := buildRegistry()
	dec := NewDecoder(reg)
	ren := NewRenderer(42)

	data := []byte{0xde, 0xad, 0xbe, 0xef}
	c := NewCursor(append([]byte{byte(len(data) << 2)}, data...))
	n, err := dec.Decode(c, ids["VecU8Id"])
	if err != nil {
		t.Fatal(err)
	}
	v := ren.Render(ContextStorage, n, false)
	if v != "0xdeadbeef" {
		t.Fatalf("got %#v", v)
	}
}

func TestCompactU128RendersAsString(t *testing.T) {
	reg, ids := buildRegistry()
	dec := NewDecoder(reg)
	ren := NewRenderer(42)

	// big-integer compact mode: (extraBytes=12, so mode byte = (12-4)<<2|0b11),
	// little-endian value 1_000_000_000_000 across those 12 bytes.
	value := uint64(1_000_000_000_000)
	payload := make([]byte, 12)
	for i := 0; i < 8; i++ {
		payload[i] = byte(value >> (8 * i))
	}
	mode := byte((len(payload)-4)<<2) | 0b11
	c := NewCursor(append([]byte{mode}, payload...))

	n, err := dec.Decode(c, ids["CompactU128"])
	if err != nil {
		t.Fatal(err)
	}
	if v := ren.Render(ContextStorage, n, false); v != "1000000000000" {
		t.Fatalf("got %#v, want \"1000000000000\"", v)
	}
}

func u128Bytes(v uint64) []byte {
	b := make([]byte, 16)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
