package scale

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/synnergy-network/substrate-gateway/internal/ss58"
)

// Context selects which output shape a decode renders to: extrinsic
// call arguments, event fields, or storage values. All three
// share the same Node walk and the same rendering rules: ctx is passed
// down the recursion, but no rule in this file branches on it, and an
// unnamed field renders under its positional index in every context.
type Context int

const (
	ContextExtrinsicArgs Context = iota
	ContextEvent
	ContextStorage
)

// byteFieldSuffixes names the field-name endings that conventionally
// mark a byte sequence as "hex blob" data. Since the decoder always has
// full type information from the registry, every Vec<u8>/[u8;N] is
// already known to be bytes; these suffixes (and the insideCall flag)
// exist only to document the naming convention — the render behavior
// (hex) is the same either way.
var byteFieldSuffixes = []string{"data", "bytes", "code", "remark"}

// Renderer turns a Node tree into the canonical DecodedJson shape.
type Renderer struct {
	SS58Prefix uint16
}

// NewRenderer builds a Renderer using the given chain SS58 prefix
// (System.SS58Prefix constant; default 42).
func NewRenderer(ss58Prefix uint16) *Renderer {
	return &Renderer{SS58Prefix: ss58Prefix}
}

// Render converts node into a JSON-marshalable value. insideCall marks
// that node is nested inside a Call/OpaqueCall type.
func (r *Renderer) Render(ctx Context, node Node, insideCall bool) any {
	if accountID, ok := r.tryRenderAccountID(node); ok {
		return accountID
	}

	switch node.Kind {
	case KindPrimitive:
		return r.renderPrimitive(node)
	case KindCompact:
		return renderInt(node.Int, node.Width)
	case KindComposite:
		return r.renderComposite(ctx, node, nested(node, insideCall))
	case KindVariant:
		return r.renderVariant(ctx, node, nested(node, insideCall))
	case KindSequence, KindArray:
		if node.IsBytes {
			return hexString(node.Bytes)
		}
		return r.renderElems(ctx, node, nested(node, insideCall))
	case KindTuple:
		out := make([]any, 0, len(node.Elems))
		for _, el := range node.Elems {
			out = append(out, r.Render(ctx, el, insideCall))
		}
		return out
	case KindBitSequence:
		return hexString(node.Bytes)
	default:
		return nil
	}
}

func nested(node Node, insideCall bool) bool {
	return insideCall || strings.Contains(node.TypeName, "Call")
}

func (r *Renderer) renderPrimitive(node Node) any {
	switch node.Primitive {
	case PrimBool:
		return node.Bool
	case PrimStr:
		return node.Str
	default:
		return renderInt(node.Int, node.Width)
	}
}

// renderInt applies the integer-width emission rule: primitives ≤32
// bits are JSON numbers; ≥64 bits (and Compact<u128>/u128) are decimal
// strings, sign preserved, no scientific notation or separators.
func renderInt(v *big.Int, width int) any {
	if v == nil {
		return nil
	}
	if width >= 64 {
		return v.String()
	}
	if v.IsInt64() {
		return v.Int64()
	}
	return v.String()
}

func hexString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// tryRenderAccountID detects a composite of shape [u8;32] whose type
// name ends in AccountId32 (or AccountId), emitting its SS58 encoding.
// It returns ok=false for anything else.
func (r *Renderer) tryRenderAccountID(node Node) (string, bool) {
	if node.Kind != KindComposite {
		return "", false
	}
	if !strings.HasSuffix(node.TypeName, "AccountId32") && !strings.HasSuffix(node.TypeName, "AccountId") {
		return "", false
	}
	if len(node.Fields) != 1 {
		return "", false
	}
	inner := node.Fields[0].Value
	if !inner.IsBytes || len(inner.Bytes) != 32 {
		return "", false
	}
	var acct [32]byte
	copy(acct[:], inner.Bytes)
	return ss58.Encode(acct, r.SS58Prefix), true
}

func (r *Renderer) renderComposite(ctx Context, node Node, insideCall bool) any {
	obj := NewJSONObject()
	for i, f := range node.Fields {
		key := CamelCase(f.Name)
		if !f.HasName {
			// unnamed composite field: positional fallback, rare outside
			// tuple structs (e.g. the single [u8;32] field of AccountId32,
			// already short-circuited above).
			key = strconv.Itoa(i)
		}
		obj.Set(key, r.Render(ctx, f.Value, insideCall))
	}
	return obj
}

// renderVariant applies the basic/rich enum emission policy: a basic
// enum (every variant, zero fields) renders as its camelCased variant
// name string; a rich enum renders as
// {"<camelCasedVariant>": <fieldsJson>}, where fieldsJson is an object
// for named fields, the single value for one unnamed field, a positional
// array for several unnamed fields, or null for a zero-field variant of
// an otherwise-rich type.
func (r *Renderer) renderVariant(ctx Context, node Node, insideCall bool) any {
	name := CamelCase(node.Variant.Name)
	if len(node.Fields) == 0 {
		if node.IsBasic {
			return name
		}
		return NewJSONObject().Set(name, nil)
	}
	return NewJSONObject().Set(name, r.renderVariantFields(ctx, node, insideCall))
}

func (r *Renderer) renderVariantFields(ctx Context, node Node, insideCall bool) any {
	named := node.Variant.Fields[0].HasName
	if named {
		obj := NewJSONObject()
		for _, f := range node.Fields {
			obj.Set(CamelCase(f.Name), r.Render(ctx, f.Value, insideCall))
		}
		return obj
	}
	if len(node.Fields) == 1 {
		return r.Render(ctx, node.Fields[0].Value, insideCall)
	}
	out := make([]any, 0, len(node.Fields))
	for _, f := range node.Fields {
		out = append(out, r.Render(ctx, f.Value, insideCall))
	}
	return out
}

// renderElems renders a non-byte Sequence/Array as a JSON array in
// every context; sequence elements have no field names.
func (r *Renderer) renderElems(ctx Context, node Node, insideCall bool) any {
	out := make([]any, 0, len(node.Elems))
	for _, el := range node.Elems {
		out = append(out, r.Render(ctx, el, insideCall))
	}
	return out
}
