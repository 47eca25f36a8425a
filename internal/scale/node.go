package scale

import "math/big"

// NodeField pairs a decoded value with the field name (if any) it came
// from, preserving declaration order for positional rendering.
type NodeField struct {
	Name    string
	HasName bool
	Value   Node
}

// Node is the intermediate, context-free decode result for one value.
// A separate render pass (render.go) turns a Node into DecodedJson,
// applying the context-specific rules (hex heuristics, SS58, casing)
// for extrinsic args, event fields, and storage values.
type Node struct {
	Kind      Kind
	TypeName  string // last path segment of the originating type, e.g. "AccountId32"
	Primitive Primitive
	Bool      bool
	Int       *big.Int // all integer widths, signed or not (see Primitive.Signed)
	Width     int      // bit width backing Int, for the >=64-bit string-emission rule
	Str       string
	Bytes     []byte // element bytes for byte sequences/arrays ([u8;N], Vec<u8>)
	IsBytes   bool   // true when Elem of a Sequence/Array resolved to u8
	Fields    []NodeField
	Variant   Variant
	IsBasic   bool // true when every variant of this Variant's type has zero fields
	Elems     []Node
	BitLen    int // number of meaningful bits, for KindBitSequence
}
