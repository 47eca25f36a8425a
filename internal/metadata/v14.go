package metadata

import (
	"fmt"

	"github.com/synnergy-network/substrate-gateway/internal/scale"
)

// decodeV14Plus parses the V14/V15/V16 wire format: a portable type
// registry followed by a list of pallets whose calls/events/storage/
// constants/errors reference that registry directly by TypeId. V15/V16
// append extrinsic metadata and an API-version list after the pallet
// list; this gateway has no use for either, so the cursor is simply left
// wherever the pallet list ends.
func decodeV14Plus(specName string, specVersion uint32, version int, body []byte) (*View, error) {
	c := scale.NewCursor(body)

	regSlice, err := decodePortableRegistry(c)
	if err != nil {
		return nil, &DecodeError{Version: version, Err: fmt.Errorf("portable registry: %w", err)}
	}

	pallets, err := decodePallets(c, regSlice)
	if err != nil {
		return nil, &DecodeError{Version: version, Err: fmt.Errorf("pallets: %w", err)}
	}

	reg := make(scale.MapRegistry, len(regSlice))
	for id, info := range regSlice {
		reg[scale.TypeId(id)] = info
	}
	return newView(specName, specVersion, reg, pallets), nil
}

// decodePallets decodes Vec<PalletMetadata>, resolving each pallet's
// calls/events/errors type ids against reg immediately so the returned
// Pallet needs no further registry lookups for its own shape (field
// types inside calls/events still reference reg by TypeId, same as any
// other decoded value).
func decodePallets(c *scale.Cursor, reg []scale.TypeInfo) ([]Pallet, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	pallets := make([]Pallet, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, fmt.Errorf("pallet %d name: %w", i, err)
		}

		storage, err := decodeOptionalStorage(c, reg)
		if err != nil {
			return nil, fmt.Errorf("pallet %s storage: %w", name, err)
		}

		calls, err := decodeOptionalVariantRef(c, reg)
		if err != nil {
			return nil, fmt.Errorf("pallet %s calls: %w", name, err)
		}

		events, err := decodeOptionalVariantRef(c, reg)
		if err != nil {
			return nil, fmt.Errorf("pallet %s events: %w", name, err)
		}

		constants, err := decodeConstants(c)
		if err != nil {
			return nil, fmt.Errorf("pallet %s constants: %w", name, err)
		}

		errs, err := decodeOptionalVariantRef(c, reg)
		if err != nil {
			return nil, fmt.Errorf("pallet %s errors: %w", name, err)
		}

		idx, err := c.FixedUint(1)
		if err != nil {
			return nil, fmt.Errorf("pallet %s index: %w", name, err)
		}

		pallets = append(pallets, assemblePallet(name, uint8(idx.Int64()), calls, events, errs, storage, constants))
	}
	return pallets, nil
}

// decodeOptionalVariantRef decodes Option<{ty: compact<u32>}>, resolving
// the referenced type into its Variant list when present.
func decodeOptionalVariantRef(c *scale.Cursor, reg []scale.TypeInfo) ([]scale.Variant, error) {
	has, err := c.Bool()
	if err != nil || !has {
		return nil, err
	}
	tyID, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	if tyID < 0 || tyID >= len(reg) {
		return nil, fmt.Errorf("type id %d out of range", tyID)
	}
	return reg[tyID].Variants, nil
}

func decodeOptionalStorage(c *scale.Cursor, reg []scale.TypeInfo) ([]StorageEntry, error) {
	has, err := c.Bool()
	if err != nil || !has {
		return nil, err
	}
	if _, err := c.Str(); err != nil { // prefix
		return nil, err
	}
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	entries := make([]StorageEntry, 0, n)
	for i := 0; i < n; i++ {
		e, err := decodeStorageEntry(c)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeStorageEntry(c *scale.Cursor) (StorageEntry, error) {
	name, err := c.Str()
	if err != nil {
		return StorageEntry{}, err
	}
	if _, err := c.Byte(); err != nil { // modifier: Optional | Default
		return StorageEntry{}, err
	}
	kindTag, err := c.Byte()
	if err != nil {
		return StorageEntry{}, err
	}
	entry := StorageEntry{Name: name}
	switch kindTag {
	case 0: // Plain(ty)
		ty, err := c.CompactLen()
		if err != nil {
			return StorageEntry{}, err
		}
		entry.Kind = StoragePlain
		entry.ValueType = scale.TypeId(ty)
	case 1: // Map{hashers, key, value}
		hn, err := c.CompactLen()
		if err != nil {
			return StorageEntry{}, err
		}
		hashers := make([]Hasher, 0, hn)
		for i := 0; i < hn; i++ {
			tag, err := c.Byte()
			if err != nil {
				return StorageEntry{}, err
			}
			h, err := storageHasherFromTag(tag)
			if err != nil {
				return StorageEntry{}, err
			}
			hashers = append(hashers, h)
		}
		keyTy, err := c.CompactLen()
		if err != nil {
			return StorageEntry{}, err
		}
		valTy, err := c.CompactLen()
		if err != nil {
			return StorageEntry{}, err
		}
		entry.Kind = StorageMap
		entry.Hashers = hashers
		entry.KeyTypes = []scale.TypeId{scale.TypeId(keyTy)}
		entry.ValueType = scale.TypeId(valTy)
	default:
		return StorageEntry{}, fmt.Errorf("unknown storage entry kind tag %d", kindTag)
	}
	defaultLen, err := c.CompactLen()
	if err != nil {
		return StorageEntry{}, fmt.Errorf("default value length: %w", err)
	}
	if _, err := c.Bytes(defaultLen); err != nil { // default value bytes, unused
		return StorageEntry{}, fmt.Errorf("default value: %w", err)
	}
	if _, err := decodeStrVec(c); err != nil { // docs
		return StorageEntry{}, fmt.Errorf("docs: %w", err)
	}
	return entry, nil
}

func storageHasherFromTag(tag byte) (Hasher, error) {
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
	case 6:
		return HasherIdentity, nil
	default:
		return 0, fmt.Errorf("unknown storage hasher tag %d", tag)
	}
}

func decodeConstants(c *scale.Cursor) ([]Const, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]Const, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		ty, err := c.CompactLen()
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
		out = append(out, Const{Name: name, Type: scale.TypeId(ty), Value: append([]byte(nil), val...)})
	}
	return out, nil
}

func assemblePallet(name string, index uint8, callVariants, eventVariants, errVariants []scale.Variant, storage []StorageEntry, constants []Const) Pallet {
	p := Pallet{
		Name:          name,
		Index:         index,
		Calls:         map[string]Call{},
		CallsByIndex:  map[uint8]Call{},
		Events:        map[string]Event{},
		EventsByIndex: map[uint8]Event{},
		Storage:       map[string]StorageEntry{},
		Constants:     map[string]Const{},
		Errors:        map[string]ErrorVariant{},
		ErrorsByIndex: map[uint8]ErrorVariant{},
	}
	for _, v := range callVariants {
		call := Call{Name: v.Name, Index: v.Index, Args: v.Fields}
		p.Calls[call.Name] = call
		p.CallsByIndex[call.Index] = call
	}
	for _, v := range eventVariants {
		ev := Event{Name: v.Name, Index: v.Index, Args: v.Fields}
		p.Events[ev.Name] = ev
		p.EventsByIndex[ev.Index] = ev
	}
	for _, v := range errVariants {
		ev := ErrorVariant{Name: v.Name, Index: v.Index}
		p.Errors[ev.Name] = ev
		p.ErrorsByIndex[ev.Index] = ev
	}
	for _, s := range storage {
		p.Storage[s.Name] = s
	}
	for _, cst := range constants {
		p.Constants[cst.Name] = cst
	}
	return p
}

// decodePortableRegistry decodes Vec<PortableType>, where PortableType is
// {id: compact<u32>, ty: Type}.
func decodePortableRegistry(c *scale.Cursor) ([]scale.TypeInfo, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	maxID := 0
	entries := make([]struct {
		id   int
		info scale.TypeInfo
	}, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.CompactLen()
		if err != nil {
			return nil, fmt.Errorf("type %d id: %w", i, err)
		}
		info, err := decodeType(c)
		if err != nil {
			return nil, fmt.Errorf("type %d body: %w", i, err)
		}
		entries = append(entries, struct {
			id   int
			info scale.TypeInfo
		}{id, info})
		if id > maxID {
			maxID = id
		}
	}
	out := make([]scale.TypeInfo, maxID+1)
	for _, e := range entries {
		out[e.id] = e.info
	}
	return out, nil
}

// decodeType decodes one `Type`: {path: Vec<str>, type_params (skipped
// structurally), type_def: TypeDef, docs: Vec<str>}.
func decodeType(c *scale.Cursor) (scale.TypeInfo, error) {
	path, err := decodeStrVec(c)
	if err != nil {
		return scale.TypeInfo{}, fmt.Errorf("path: %w", err)
	}
	if err := skipTypeParams(c); err != nil {
		return scale.TypeInfo{}, fmt.Errorf("type_params: %w", err)
	}
	info, err := decodeTypeDef(c)
	if err != nil {
		return scale.TypeInfo{}, fmt.Errorf("type_def: %w", err)
	}
	info.Path = path
	if _, err := decodeStrVec(c); err != nil { // docs
		return scale.TypeInfo{}, fmt.Errorf("docs: %w", err)
	}
	return info, nil
}

// skipTypeParams consumes Vec<TypeParameter{name: str, ty: Option<compact<u32>>}>.
func skipTypeParams(c *scale.Cursor) error {
	n, err := c.CompactLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := c.Str(); err != nil {
			return err
		}
		has, err := c.Bool()
		if err != nil {
			return err
		}
		if has {
			if _, err := c.CompactLen(); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeStrVec(c *scale.Cursor) ([]string, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := c.Str()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// TypeDef variant tags, in portable-registry declaration order.
const (
	typeDefComposite = iota
	typeDefVariant
	typeDefSequence
	typeDefArray
	typeDefTuple
	typeDefPrimitive
	typeDefCompact
	typeDefBitSequence
)

func decodeTypeDef(c *scale.Cursor) (scale.TypeInfo, error) {
	tag, err := c.Byte()
	if err != nil {
		return scale.TypeInfo{}, err
	}
	switch int(tag) {
	case typeDefComposite:
		fields, err := decodeFields(c)
		if err != nil {
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindComposite, Fields: fields}, nil
	case typeDefVariant:
		variants, err := decodeVariants(c)
		if err != nil {
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindVariant, Variants: variants}, nil
	case typeDefSequence:
		elem, err := c.CompactLen()
		if err != nil {
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindSequence, Elem: scale.TypeId(elem)}, nil
	case typeDefArray:
		length, err := c.FixedUint(4)
		if err != nil {
			return scale.TypeInfo{}, err
		}
		elem, err := c.CompactLen()
		if err != nil {
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindArray, Len: int(length.Int64()), Elem: scale.TypeId(elem)}, nil
	case typeDefTuple:
		n, err := c.CompactLen()
		if err != nil {
			return scale.TypeInfo{}, err
		}
		elems := make([]scale.TypeId, 0, n)
		for i := 0; i < n; i++ {
			id, err := c.CompactLen()
			if err != nil {
				return scale.TypeInfo{}, err
			}
			elems = append(elems, scale.TypeId(id))
		}
		return scale.TypeInfo{Kind: scale.KindTuple, TupleElems: elems}, nil
	case typeDefPrimitive:
		p, err := decodePrimitiveTag(c)
		if err != nil {
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindPrimitive, Primitive: p}, nil
	case typeDefCompact:
		elem, err := c.CompactLen()
		if err != nil {
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindCompact, Elem: scale.TypeId(elem)}, nil
	case typeDefBitSequence:
		if _, err := c.CompactLen(); err != nil { // bit_store_type
			return scale.TypeInfo{}, err
		}
		if _, err := c.CompactLen(); err != nil { // bit_order_type
			return scale.TypeInfo{}, err
		}
		return scale.TypeInfo{Kind: scale.KindBitSequence}, nil
	default:
		return scale.TypeInfo{}, fmt.Errorf("unknown type_def tag %d", tag)
	}
}

// primitive tags follow the portable-registry TypeDefPrimitive order:
// Bool, Char, Str, U8, U16, U32, U64, U128, U256, I8, I16, I32, I64,
// I128, I256. Char has no Go-side representation here and is treated as
// a string.
func decodePrimitiveTag(c *scale.Cursor) (scale.Primitive, error) {
	tag, err := c.Byte()
	if err != nil {
		return 0, err
	}
	switch tag {
	case 0:
		return scale.PrimBool, nil
	case 1:
		return scale.PrimStr, nil // Char
	case 2:
		return scale.PrimStr, nil
	case 3:
		return scale.PrimU8, nil
	case 4:
		return scale.PrimU16, nil
	case 5:
		return scale.PrimU32, nil
	case 6:
		return scale.PrimU64, nil
	case 7:
		return scale.PrimU128, nil
	case 8:
		return scale.PrimU256, nil
	case 9:
		return scale.PrimI8, nil
	case 10:
		return scale.PrimI16, nil
	case 11:
		return scale.PrimI32, nil
	case 12:
		return scale.PrimI64, nil
	case 13:
		return scale.PrimI128, nil
	case 14:
		return scale.PrimI256, nil
	default:
		return 0, fmt.Errorf("unknown primitive tag %d", tag)
	}
}

func decodeFields(c *scale.Cursor) ([]scale.Field, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]scale.Field, 0, n)
	for i := 0; i < n; i++ {
		hasName, err := c.Bool()
		if err != nil {
			return nil, err
		}
		var name string
		if hasName {
			name, err = c.Str()
			if err != nil {
				return nil, err
			}
		}
		ty, err := c.CompactLen()
		if err != nil {
			return nil, err
		}
		hasTypeName, err := c.Bool()
		if err != nil {
			return nil, err
		}
		if hasTypeName {
			if _, err := c.Str(); err != nil {
				return nil, err
			}
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out = append(out, scale.Field{Name: name, HasName: hasName, Type: scale.TypeId(ty)})
	}
	return out, nil
}

func decodeVariants(c *scale.Cursor) ([]scale.Variant, error) {
	n, err := c.CompactLen()
	if err != nil {
		return nil, err
	}
	out := make([]scale.Variant, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Str()
		if err != nil {
			return nil, err
		}
		fields, err := decodeFields(c)
		if err != nil {
			return nil, err
		}
		idx, err := c.FixedUint(1)
		if err != nil {
			return nil, err
		}
		if _, err := decodeStrVec(c); err != nil { // docs
			return nil, err
		}
		out = append(out, scale.Variant{Name: name, Index: uint8(idx.Int64()), Fields: fields})
	}
	return out, nil
}
