package metadata

import "fmt"

// metadataMagic is the 4-byte prefix ("meta") every state_getMetadata
// response begins with, ASCII-encoded little-endian as 0x6174656d.
var metadataMagic = [4]byte{'m', 'e', 't', 'a'}

// Decode normalizes a raw state_getMetadata SCALE byte string into a
// version-independent View. specName and specVersion come from the
// paired state_getRuntimeVersion call and are stamped onto the result;
// they play no part in the decode itself.
func Decode(raw []byte, specName string, specVersion uint32) (*View, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("metadata: truncated, got %d bytes", len(raw))
	}
	var magic [4]byte
	copy(magic[:], raw[:4])
	if magic != metadataMagic {
		return nil, fmt.Errorf("metadata: bad magic %x, want %x", magic, metadataMagic)
	}
	version := int(raw[4])
	body := raw[5:]

	switch {
	case version >= 9 && version <= 13:
		return decodeLegacy(specName, specVersion, version, body)
	case version >= 14 && version <= 16:
		return decodeV14Plus(specName, specVersion, version, body)
	default:
		return nil, &UnsupportedVersionError{Version: version}
	}
}
