// Package metadata fetches and decodes state_getMetadata at a block,
// normalizing wire versions V9 through V16 into one stable View: pallets
// and their calls/events/storage/constants/errors, each carrying a
// scale.TypeId into a shared scale.TypeRegistry.
package metadata

import (
	"fmt"

	"github.com/synnergy-network/substrate-gateway/internal/scale"
)

// Const is a pallet constant: its type and its still-SCALE-encoded
// value (decoded on demand by the caller via a scale.Decoder).
type Const struct {
	Name  string
	Type  scale.TypeId
	Value []byte
	Docs  string
}

// Call is one dispatchable's metadata: its declared, ordered argument
// list.
type Call struct {
	Name  string
	Index uint8
	Args  []scale.Field
	Docs  string
}

// Event is one event variant's metadata.
type Event struct {
	Name  string
	Index uint8
	Args  []scale.Field
	Docs  string
}

// StorageKind distinguishes a Plain value from a Map/DoubleMap.
type StorageKind int

const (
	StoragePlain StorageKind = iota
	StorageMap
)

// StorageEntry describes how one storage item's key is built and how its
// value should be decoded.
type StorageEntry struct {
	Name      string
	Kind      StorageKind
	Hashers   []Hasher // one per map key component; empty for Plain
	KeyTypes  []scale.TypeId      // one per map key component
	ValueType scale.TypeId
	Docs      string
}

// Hasher mirrors internal/storagekeys.Hasher's values without importing
// that package, keeping metadata decoding independent of key
// construction; internal/storage translates between the two at the
// boundary (internal/storage/query.go).
type Hasher int

const (
	HasherIdentity Hasher = iota
	HasherTwox64Concat
	HasherBlake2_128Concat
	HasherTwox128
	HasherBlake2_128
	HasherBlake2_256
	HasherTwox256
)

// ErrorVariant is one entry in a pallet's Error enum.
type ErrorVariant struct {
	Name  string
	Index uint8
	Docs  string
}

// Pallet groups one runtime module's dispatchables, events, storage,
// constants, and errors, keyed by name for handlers and by index for
// decoding extrinsics and events off their leading index bytes.
type Pallet struct {
	Name          string
	Index         uint8
	Calls         map[string]Call
	CallsByIndex  map[uint8]Call
	Events        map[string]Event
	EventsByIndex map[uint8]Event
	Storage       map[string]StorageEntry
	Constants     map[string]Const
	Errors        map[string]ErrorVariant
	ErrorsByIndex map[uint8]ErrorVariant
}

// View is the normalized, version-independent metadata surface. It is
// built once per (spec_name, spec_version) pair and shared read-only
// across every request that resolves to it.
type View struct {
	SpecVersion  uint32
	SpecName     string
	Registry     scale.TypeRegistry
	pallets      map[string]Pallet
	palletsByIdx map[uint8]Pallet
}

// Pallet looks up a pallet by name.
func (v *View) Pallet(name string) (Pallet, bool) {
	p, ok := v.pallets[name]
	return p, ok
}

// PalletByIndex looks up a pallet by its numeric index, used when
// decoding a call's or event's leading pallet-index byte.
func (v *View) PalletByIndex(idx uint8) (Pallet, bool) {
	p, ok := v.palletsByIdx[idx]
	return p, ok
}

// Pallets returns every pallet, for listing endpoints.
func (v *View) Pallets() []Pallet {
	out := make([]Pallet, 0, len(v.pallets))
	for _, p := range v.pallets {
		out = append(out, p)
	}
	return out
}

// NewViewForTesting builds a View directly from an already-assembled
// registry and pallet list, skipping the wire-format decode. Exported
// for other packages' tests that need a View without a SCALE blob.
func NewViewForTesting(specName string, specVersion uint32, reg scale.TypeRegistry, pallets []Pallet) *View {
	return newView(specName, specVersion, reg, pallets)
}

func newView(specName string, specVersion uint32, reg scale.TypeRegistry, pallets []Pallet) *View {
	v := &View{
		SpecVersion:  specVersion,
		SpecName:     specName,
		Registry:     reg,
		pallets:      make(map[string]Pallet, len(pallets)),
		palletsByIdx: make(map[uint8]Pallet, len(pallets)),
	}
	for _, p := range pallets {
		v.pallets[p.Name] = p
		v.palletsByIdx[p.Index] = p
	}
	return v
}

// UnsupportedVersionError is returned for metadata versions below V9 or
// above the highest version this package understands (V16).
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("metadata: unsupported version %d", e.Version)
}

// DecodeError wraps a failure to decode the metadata body for a
// specific version.
type DecodeError struct {
	Version int
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("metadata: decode v%d: %v", e.Version, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
