// Package storage is the Storage Query Layer: it
// translates a pallet/entry/keys request into a storage key via
// internal/storagekeys, fetches the raw bytes via internal/rpc, and
// decodes them against the entry's declared value type via
// internal/scale. Plain and Map entries are read through separate
// methods. An absent key is reported as not found; the bytes of a
// present value are decoded as they are, with no leading byte stripped,
// so an Option<T> value type is decoded through its own variant.
package storage

import (
	"context"
	"fmt"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/resolver"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
	"github.com/synnergy-network/substrate-gateway/internal/storagekeys"
)

// Query bundles the dependencies every storage read needs.
type Query struct {
	Client   *rpc.Client
	View     *metadata.View
	Renderer *scale.Renderer
}

// ReadPlain reads a Plain storage entry, returning its rendered JSON
// value. ok=false means the key is absent at this block (a legitimate
// state for storage items with no explicit default).
func (q *Query) ReadPlain(ctx context.Context, pallet, entry string, at resolver.ResolvedBlock) (any, bool, error) {
	p, se, err := q.lookup(pallet, entry)
	if err != nil {
		return nil, false, err
	}
	if se.Kind != metadata.StoragePlain {
		return nil, false, apierr.InvalidInput("item", fmt.Sprintf("%s.%s is not a plain storage entry", pallet, entry))
	}

	key := storagekeys.BuildKey(p.Name, se.Name)
	raw, ok, err := rpc.StateGetStorage(ctx, q.Client, key, at.Hash)
	if err != nil {
		return nil, false, apierr.RpcFailure("state_getStorage", err)
	}
	if !ok {
		return nil, false, nil
	}

	value, err := q.decode(se.ValueType, raw, pallet, entry)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// ReadMapEntry reads one key of a Map storage entry. rawKeyParts are the
// caller's already-SCALE-encoded key components, one per declared
// hasher (a double map has two).
func (q *Query) ReadMapEntry(ctx context.Context, pallet, entry string, rawKeyParts [][]byte, at resolver.ResolvedBlock) (any, bool, error) {
	p, se, err := q.lookup(pallet, entry)
	if err != nil {
		return nil, false, err
	}
	if se.Kind != metadata.StorageMap {
		return nil, false, apierr.InvalidInput("item", fmt.Sprintf("%s.%s is not a map storage entry", pallet, entry))
	}
	if len(rawKeyParts) != len(se.Hashers) {
		return nil, false, apierr.InvalidInput("key", fmt.Sprintf("%s.%s expects %d key component(s), got %d", pallet, entry, len(se.Hashers), len(rawKeyParts)))
	}

	parts := make([]storagekeys.MapKeyPart, len(rawKeyParts))
	for i, raw := range rawKeyParts {
		h, err := translateHasher(se.Hashers[i])
		if err != nil {
			return nil, false, err
		}
		parts[i] = storagekeys.MapKeyPart{Hasher: h, Raw: raw}
	}

	key := storagekeys.BuildKey(p.Name, se.Name, parts...)
	raw, ok, err := rpc.StateGetStorage(ctx, q.Client, key, at.Hash)
	if err != nil {
		return nil, false, apierr.RpcFailure("state_getStorage", err)
	}
	if !ok {
		return nil, false, nil
	}

	value, err := q.decode(se.ValueType, raw, pallet, entry)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// defaultPageSize bounds one state_getKeysPaged round trip; ListMapKeys
// pages through as many rounds as needed up to maxKeys, after which it
// stops and reports the truncation rather than risking an unbounded
// response.
const defaultPageSize = 256

// ListMapKeys enumerates every key under a Map storage entry, up to
// maxKeys (0 means defaultPageSize*4). Each key is returned whole, as
// the node reports it, pallet/entry prefix included; the un-hashed key
// components are recovered by the caller (storagekeys.StripPrefix).
// truncated reports whether maxKeys cut the listing short.
func (q *Query) ListMapKeys(ctx context.Context, pallet, entry string, maxKeys int, at resolver.ResolvedBlock) (keys [][]byte, truncated bool, err error) {
	p, se, err := q.lookup(pallet, entry)
	if err != nil {
		return nil, false, err
	}
	if se.Kind != metadata.StorageMap {
		return nil, false, apierr.InvalidInput("item", fmt.Sprintf("%s.%s is not a map storage entry", pallet, entry))
	}
	if maxKeys <= 0 {
		maxKeys = defaultPageSize * 4
	}

	prefix := storagekeys.PalletPrefix(p.Name, se.Name)
	var startKey []byte
	for len(keys) < maxKeys {
		page, err := rpc.StateGetKeysPaged(ctx, q.Client, prefix, defaultPageSize, startKey, at.Hash)
		if err != nil {
			return nil, false, apierr.RpcFailure("state_getKeysPaged", err)
		}
		if len(page) == 0 {
			return keys, false, nil
		}
		for _, k := range page {
			if len(keys) >= maxKeys {
				return keys, true, nil
			}
			keys = append(keys, k)
		}
		startKey = page[len(page)-1]
		if len(page) < defaultPageSize {
			return keys, false, nil
		}
	}
	return keys, true, nil
}

func (q *Query) lookup(pallet, entry string) (metadata.Pallet, metadata.StorageEntry, error) {
	p, ok := q.View.Pallet(pallet)
	if !ok {
		return metadata.Pallet{}, metadata.StorageEntry{}, apierr.StorageNotFound(pallet, entry)
	}
	se, ok := p.Storage[entry]
	if !ok {
		return metadata.Pallet{}, metadata.StorageEntry{}, apierr.StorageNotFound(pallet, entry)
	}
	return p, se, nil
}

func (q *Query) decode(valueType scale.TypeId, raw []byte, pallet, entry string) (any, error) {
	dec := scale.NewDecoder(q.View.Registry)
	cur := scale.NewCursor(raw)
	node, err := dec.Decode(cur, valueType)
	if err != nil {
		return nil, apierr.DecodeFailed(pallet, entry, err)
	}
	return q.Renderer.Render(scale.ContextStorage, node, false), nil
}

// translateHasher maps a metadata.Hasher (decoded from runtime metadata)
// to the internal/storagekeys.Hasher used to build keys. Blake2_256 and
// Twox256 appear in legacy (pre-V14) metadata for a handful of
// deprecated storage items; no live key-building path in this gateway
// needs them, so they report an error rather than silently building a
// wrong key.
func translateHasher(h metadata.Hasher) (storagekeys.Hasher, error) {
	switch h {
	case metadata.HasherIdentity:
		return storagekeys.Identity, nil
	case metadata.HasherTwox64Concat:
		return storagekeys.Twox64Concat, nil
	case metadata.HasherBlake2_128Concat:
		return storagekeys.Blake2_128Concat, nil
	case metadata.HasherTwox128:
		return storagekeys.Twox128, nil
	case metadata.HasherBlake2_128:
		return storagekeys.Blake2_128, nil
	default:
		return 0, fmt.Errorf("storage: unsupported hasher %v", h)
	}
}
