package storagekeys

// MapKeyPart is one hashed component of a map/double-map storage key
// (the metadata declares one hasher per map key; double maps declare two).
type MapKeyPart struct {
	Hasher Hasher
	Raw    []byte // the un-hashed SCALE-encoded key value
}

// PalletPrefix is twox128(pallet) || twox128(entry): the 32-byte prefix
// shared by every key under a storage entry, Plain or Map alike.
func PalletPrefix(pallet, entry string) []byte {
	out := make([]byte, 0, 32)
	out = append(out, Hash(Twox128, []byte(pallet))...)
	out = append(out, Hash(Twox128, []byte(entry))...)
	return out
}

// BuildKey constructs the full storage key for a Plain entry (no parts)
// or a Map/DoubleMap entry (one part per declared key).
func BuildKey(pallet, entry string, parts ...MapKeyPart) []byte {
	key := PalletPrefix(pallet, entry)
	for _, p := range parts {
		key = append(key, Hash(p.Hasher, p.Raw)...)
	}
	return key
}

// StripPrefix recovers the un-hashed map key suffix from a full storage
// key, when every part's hasher preserves its raw bytes (Identity or a
// *Concat variant). It returns ok=false if any hasher in hashers does
// not preserve raw bytes, or if the concatenated hashed lengths don't
// fit within key.
func StripPrefix(key []byte, pallet, entry string, hashers []Hasher, partLens []int) (suffix []byte, ok bool) {
	prefix := PalletPrefix(pallet, entry)
	if len(key) < len(prefix) {
		return nil, false
	}
	rest := key[len(prefix):]
	for i, h := range hashers {
		if !h.Concat() {
			return nil, false
		}
		hashLen := hashLength(h)
		need := hashLen + partLens[i]
		if len(rest) < need {
			return nil, false
		}
		rest = rest[hashLen:] // skip the digest, keep the raw suffix
		if i == len(hashers)-1 {
			suffix = append(suffix, rest[:partLens[i]]...)
		} else {
			suffix = append(suffix, rest[:partLens[i]]...)
			rest = rest[partLens[i]:]
		}
	}
	return suffix, true
}

func hashLength(h Hasher) int {
	switch h {
	case Identity:
		return 0
	case Twox64Concat:
		return 8
	case Blake2_128Concat:
		return 16
	default:
		return 0
	}
}
