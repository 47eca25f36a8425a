package metadata

import (
	"fmt"
	"strings"

	"github.com/synnergy-network/substrate-gateway/internal/scale"
)

// decodeLegacy decodes the pre-V14 module-metadata format (V9 through
// V13). These versions carry no portable type registry: every argument,
// storage value, and constant type is a free-form Rust type-name string
// ("Vec<u8>", "Balance", "T::AccountId", ...). This decoder synthesizes
// one scale.TypeInfo per distinct type-name string it encounters,
// resolving well-known aliases to their primitive/composite shape and
// falling back to an opaque byte blob for anything it cannot recognize
// (documented as an Open Question decision in DESIGN.md: full generic
// Rust type-string parsing is out of scope, since every chain exposing
// these versions has long since upgraded past them).
func decodeLegacy(specName string, specVersion uint32, version int, body []byte) (*View, error) {
	c := scale.NewCursor(body)
	reg := newLegacyTypeTable()

	modules, err := decodeLegacyModules(c, version, reg)
	if err != nil {
		return nil, &DecodeError{Version: version, Err: err}
	}

	return newView(specName, specVersion, reg.registry(), modules), nil
}

// legacyTypeTable interns type-name strings into scale.TypeId values,
// synthesizing a TypeInfo for each on first sight.
type legacyTypeTable struct {
	ids   map[string]scale.TypeId
	types map[scale.TypeId]scale.TypeInfo
	next  scale.TypeId
}

func newLegacyTypeTable() *legacyTypeTable {
	return &legacyTypeTable{ids: map[string]scale.TypeId{}, types: map[scale.TypeId]scale.TypeInfo{}}
}

func (t *legacyTypeTable) registry() scale.MapRegistry {
	out := make(scale.MapRegistry, len(t.types))
	for id, info := range t.types {
		out[id] = info
	}
	return out
}

// intern resolves a Rust type-name string to a TypeId, synthesizing a
// TypeInfo the first time that exact string is seen.
func (t *legacyTypeTable) intern(typeName string) scale.TypeId {
	name := strings.TrimSpace(typeName)
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := t.next
	t.next++
	t.ids[name] = id
	t.types[id] = t.legacyTypeInfo(name)
	return id
}

// legacyTypeInfo maps a handful of well-known Substrate type aliases to
// their concrete shape and otherwise synthesizes an opaque byte-blob
// type, so decode always has somewhere to go even for types this table
// doesn't specifically recognize. Compact<T> and AccountId/Hash recurse
// through intern for their element type, so every TypeId a synthesized
// TypeInfo points at is guaranteed to resolve.
func (t *legacyTypeTable) legacyTypeInfo(name string) scale.TypeInfo {
	path := []string{name}
	switch name {
	case "bool":
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: scale.PrimBool, Path: path}
	case "u8", "U8", "Weight":
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: scale.PrimU8, Path: path}
	case "u16", "U16":
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: scale.PrimU16, Path: path}
	case "u32", "U32", "BlockNumber", "Moment", "ReferendumIndex", "PropIndex", "ProposalIndex":
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: scale.PrimU32, Path: path}
	case "u64", "U64", "Index", "Nonce":
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: scale.PrimU64, Path: path}
	case "u128", "U128", "Balance", "BalanceOf", "T::Balance":
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: scale.PrimU128, Path: path}
	case "Compact<Balance>", "Compact<BalanceOf>", "Compact<u128>":
		return scale.TypeInfo{Kind: scale.KindCompact, Path: path, Elem: t.intern("u128")}
	case "Compact<u32>", "Compact<BlockNumber>":
		return scale.TypeInfo{Kind: scale.KindCompact, Path: path, Elem: t.intern("u32")}
	case "Compact<u64>", "Compact<Index>":
		return scale.TypeInfo{Kind: scale.KindCompact, Path: path, Elem: t.intern("u64")}
	case "Vec<u8>", "Bytes", "Call::Args":
		return scale.TypeInfo{Kind: scale.KindSequence, Path: path, Elem: t.intern("u8")}
	case "AccountId", "T::AccountId":
		return scale.TypeInfo{
			Kind: scale.KindComposite,
			Path: []string{"sp_core", "crypto", "AccountId32"},
			Fields: []scale.Field{
				{HasName: false, Type: t.intern("[u8;32]")},
			},
		}
	case "Hash", "T::Hash", "[u8;32]":
		return scale.TypeInfo{Kind: scale.KindArray, Len: 32, Elem: t.intern("u8"), Path: []string{"H256"}}
	default:
		// Unknown alias: treat as a raw byte sequence so decode never
		// panics, even though its JSON rendering degrades to a hex blob.
		return scale.TypeInfo{Kind: scale.KindSequence, Path: path, Elem: t.intern("u8")}
	}
}

// legacy module-metadata wire shapes, constant across V9-V13:
//
//	ModuleMetadata {
//	  name: str,
//	  storage: Option<StorageMetadata>,
//	  calls: Option<Vec<FunctionMetadata>>,
//	  events: Option<Vec<EventMetadata>>,
//	  constants: Vec<ModuleConstantMetadata>,
//	  errors: Vec<ErrorMetadata>,
//	}
//
// The layout decoded here has no explicit module index field. This
// gateway assigns the pallet Index as the module's position in the
// vector. The runtime counts call/event indices only over modules that
// declare calls/events (a module with no calls consumes no call index),
// so where an earlier module declares none, Index differs from the
// index extrinsics/events carry on the wire.
func decodeLegacyModules(c *scale.Cursor, version int, reg *legacyTypeTable) ([]Pallet, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	pallets := make([]Pallet, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, fmt.Errorf("module %d name: %w", i, err)
		}

		storage, err := decodeLegacyStorage(c, reg)
		if err != nil {
			return nil, fmt.Errorf("module %s storage: %w", name, err)
		}

		calls, err := decodeLegacyFunctions(c, reg)
		if err != nil {
			return nil, fmt.Errorf("module %s calls: %w", name, err)
		}

		events, err := decodeLegacyEvents(c, reg)
		if err != nil {
			return nil, fmt.Errorf("module %s events: %w", name, err)
		}

		constants, err := decodeLegacyConstants(c, reg)
		if err != nil {
			return nil, fmt.Errorf("module %s constants: %w", name, err)
		}

		errs, err := decodeLegacyErrors(c)
		if err != nil {
			return nil, fmt.Errorf("module %s errors: %w", name, err)
		}

		p := Pallet{
			Name:          name,
			Index:         uint8(i),
			Calls:         map[string]Call{},
			CallsByIndex:  map[uint8]Call{},
			Events:        map[string]Event{},
			EventsByIndex: map[uint8]Event{},
			Storage:       storage,
			Constants:     constants,
			Errors:        map[string]ErrorVariant{},
			ErrorsByIndex: map[uint8]ErrorVariant{},
		}
		for idx, call := range calls {
			call.Index = uint8(idx)
			p.Calls[call.Name] = call
			p.CallsByIndex[call.Index] = call
		}
		for idx, ev := range events {
			ev.Index = uint8(idx)
			p.Events[ev.Name] = ev
			p.EventsByIndex[ev.Index] = ev
		}
		for idx, e := range errs {
			e.Index = uint8(idx)
			p.Errors[e.Name] = e
			p.ErrorsByIndex[e.Index] = e
		}
		pallets = append(pallets, p)
	}
	return pallets, nil
}

func decodeLegacyStorage(c *scale.Cursor, reg *legacyTypeTable) (map[string]StorageEntry, error) {
	has, err := c.Bool()
	if err != nil || !has {
		return map[string]StorageEntry{}, err
	}
	if _, err := c.Str(); err != nil { // storage prefix
		return nil, err
	}
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make(map[string]StorageEntry, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		modTag, err := c.Byte()
		if err != nil {
			return nil, err
		}
		_ = modTag
		kindTag, err := c.Byte()
		if err != nil {
			return nil, err
		}
		entry := StorageEntry{Name: name}
		switch kindTag {
		case 0: // Plain(type: str)
			typeName, err := c.Str()
			if err != nil {
				return nil, err
			}
			entry.Kind = StoragePlain
			entry.ValueType = reg.intern(typeName)
		case 1: // Map{hasher: enum, key: str, value: str, is_linked: bool}
			hasherTag, err := c.Byte()
			if err != nil {
				return nil, err
			}
			hasher, err := legacyHasherFromTag(hasherTag)
			if err != nil {
				return nil, err
			}
			keyType, err := c.Str()
			if err != nil {
				return nil, err
			}
			valType, err := c.Str()
			if err != nil {
				return nil, err
			}
			if _, err := c.Bool(); err != nil { // is_linked
				return nil, err
			}
			entry.Kind = StorageMap
			entry.Hashers = []Hasher{hasher}
			entry.KeyTypes = []scale.TypeId{reg.intern(keyType)}
			entry.ValueType = reg.intern(valType)
		case 2: // DoubleMap{hasher, key1, key2, key2_hasher, value}
			h1Tag, err := c.Byte()
			if err != nil {
				return nil, err
			}
			h1, err := legacyHasherFromTag(h1Tag)
			if err != nil {
				return nil, err
			}
			key1, err := c.Str()
			if err != nil {
				return nil, err
			}
			key2, err := c.Str()
			if err != nil {
				return nil, err
			}
			h2Tag, err := c.Byte()
			if err != nil {
				return nil, err
			}
			h2, err := legacyHasherFromTag(h2Tag)
			if err != nil {
				return nil, err
			}
			valType, err := c.Str()
			if err != nil {
				return nil, err
			}
			entry.Kind = StorageMap
			entry.Hashers = []Hasher{h1, h2}
			entry.KeyTypes = []scale.TypeId{reg.intern(key1), reg.intern(key2)}
			entry.ValueType = reg.intern(valType)
		default:
			return nil, fmt.Errorf("storage %s: unknown kind tag %d", name, kindTag)
		}
		hasDefault, err := c.Bool()
		if err != nil {
			return nil, err
		}
		if hasDefault {
			dlen, err := c.CompactLen()
			if err != nil {
				return nil, err
			}
			if _, err := c.Bytes(dlen); err != nil {
				return nil, err
			}
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out[name] = entry
	}
	return out, nil
}

func legacyHasherFromTag(tag byte) (Hasher, error) {
	switch tag {
	case 0:
		return HasherBlake2_128, nil
	case 1:
		return HasherBlake2_256, nil
	case 2:
		return HasherBlake2_128Concat, nil
	case 3:
		return HasherTwox128, nil
	case 4:
		return HasherTwox256, nil
	case 5:
		return HasherTwox64Concat, nil
	default:
		return 0, fmt.Errorf("unknown legacy hasher tag %d", tag)
	}
}

func decodeLegacyFunctions(c *scale.Cursor, reg *legacyTypeTable) ([]Call, error) {
	has, err := c.Bool()
	if err != nil || !has {
		return nil, err
	}
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]Call, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		argN, err := c.CompactLen()
		if err != nil {
			return nil, err
		}
		args := make([]scale.Field, 0, argN)
		for j := 0; j < argN; j++ {
			argName, err := c.Str()
			if err != nil {
				return nil, err
			}
			argType, err := c.Str()
			if err != nil {
				return nil, err
			}
			args = append(args, scale.Field{Name: argName, HasName: true, Type: reg.intern(argType)})
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out = append(out, Call{Name: name, Args: args})
	}
	return out, nil
}

func decodeLegacyEvents(c *scale.Cursor, reg *legacyTypeTable) ([]Event, error) {
	has, err := c.Bool()
	if err != nil || !has {
		return nil, err
	}
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		argN, err := c.CompactLen()
		if err != nil {
			return nil, err
		}
		args := make([]scale.Field, 0, argN)
		for j := 0; j < argN; j++ {
			argType, err := c.Str()
			if err != nil {
				return nil, err
			}
			args = append(args, scale.Field{HasName: false, Type: reg.intern(argType)})
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out = append(out, Event{Name: name, Args: args})
	}
	return out, nil
}

func decodeLegacyConstants(c *scale.Cursor, reg *legacyTypeTable) (map[string]Const, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Const, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		typeName, err := c.Str()
		if err != nil {
			return nil, err
		}
		vlen, err := c.CompactLen()
		if err != nil {
			return nil, err
		}
		val, err := c.Bytes(vlen)
		if err != nil {
			return nil, err
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out[name] = Const{Name: name, Type: reg.intern(typeName), Value: append([]byte(nil), val...)}
	}
	return out, nil
}

func decodeLegacyErrors(c *scale.Cursor) ([]ErrorVariant, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]ErrorVariant, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out = append(out, ErrorVariant{Name: name})
	}
	return out, nil
}
