package blockbuilder

import (
	"encoding/binary"
	"fmt"
)

// DigestLog is one decoded header.digest.logs entry.
type DigestLog struct {
	Kind    string // "preRuntime", "consensus", "seal", "other", "runtimeEnvironmentUpdated"
	Engine  string // 4-byte consensus engine id, e.g. "BABE", "aura"; empty for Other/RuntimeEnvironmentUpdated
	Data    string // 0x-hex payload; empty for RuntimeEnvironmentUpdated
	rawData []byte // same bytes as Data, kept for author-index extraction
}

// decodeDigestLog decodes one raw DigestItem. The wire enum's
// discriminants are not contiguous (0, 4, 5, 6, 8 — the gaps are
// variants removed across upstream's history), so this switches on
// the literal tag byte rather than treating it as a dense index.
func decodeDigestLog(raw []byte) (DigestLog, error) {
	if len(raw) < 1 {
		return DigestLog{}, fmt.Errorf("digest: empty log")
	}
	tag := raw[0]
	rest := raw[1:]
	switch tag {
	case 0: // Other(Vec<u8>)
		_, data, err := readCompactBytes(rest)
		if err != nil {
			return DigestLog{}, fmt.Errorf("digest: Other: %w", err)
		}
		return DigestLog{Kind: "other", Data: hexPrefix(data)}, nil
	case 4: // Consensus(ConsensusEngineId, Vec<u8>)
		return decodeEngineDigest("consensus", rest)
	case 5: // Seal(ConsensusEngineId, Vec<u8>)
		return decodeEngineDigest("seal", rest)
	case 6: // PreRuntime(ConsensusEngineId, Vec<u8>)
		return decodeEngineDigest("preRuntime", rest)
	case 8: // RuntimeEnvironmentUpdated
		return DigestLog{Kind: "runtimeEnvironmentUpdated"}, nil
	default:
		return DigestLog{}, fmt.Errorf("digest: unknown DigestItem tag %d", tag)
	}
}

func decodeEngineDigest(kind string, rest []byte) (DigestLog, error) {
	if len(rest) < 4 {
		return DigestLog{}, fmt.Errorf("digest: %s: truncated engine id", kind)
	}
	engine := string(rest[:4])
	_, data, err := readCompactBytes(rest[4:])
	if err != nil {
		return DigestLog{}, fmt.Errorf("digest: %s: %w", kind, err)
	}
	return DigestLog{Kind: kind, Engine: engine, Data: hexPrefix(data), rawData: data}, nil
}

func hexPrefix(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 2+len(b)*2)
	out[0], out[1] = '0', 'x'
	for i, c := range b {
		out[2+i*2] = hexdigits[c>>4]
		out[2+i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

// readCompactBytes reads a compact-length-prefixed byte vector from the
// front of b, local to this file since digest payloads are decoded
// ahead of metadata being available (DigestItem isn't a registry type).
func readCompactBytes(b []byte) (rest, data []byte, err error) {
	n, consumed, err := readCompactLen(b)
	if err != nil {
		return nil, nil, err
	}
	b = b[consumed:]
	if len(b) < n {
		return nil, nil, fmt.Errorf("digest: want %d bytes, have %d", n, len(b))
	}
	return b[n:], b[:n], nil
}

func readCompactLen(b []byte) (n, consumed int, err error) {
	if len(b) < 1 {
		return 0, 0, fmt.Errorf("digest: empty compact length")
	}
	switch b[0] & 0x03 {
	case 0:
		return int(b[0] >> 2), 1, nil
	case 1:
		if len(b) < 2 {
			return 0, 0, fmt.Errorf("digest: truncated 2-byte compact")
		}
		return int(binary.LittleEndian.Uint16(b[:2]) >> 2), 2, nil
	case 2:
		if len(b) < 4 {
			return 0, 0, fmt.Errorf("digest: truncated 4-byte compact")
		}
		return int(binary.LittleEndian.Uint32(b[:4]) >> 2), 4, nil
	default:
		if len(b) < 1 {
			return 0, 0, fmt.Errorf("digest: truncated big-int compact")
		}
		extraBytes := int(b[0]>>2) + 4
		if len(b) < 1+extraBytes {
			return 0, 0, fmt.Errorf("digest: truncated big-int compact body")
		}
		var v uint64
		for i := extraBytes - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[1+i])
		}
		return int(v), 1 + extraBytes, nil
	}
}

// babeAuthorityIndex extracts the authority_index field every BABE
// PreDigest variant (Primary, SecondaryPlain, SecondaryVRF) carries as
// its first field, right after the variant's own tag byte.
func babeAuthorityIndex(preRuntimeData []byte) (uint32, bool) {
	if len(preRuntimeData) < 5 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(preRuntimeData[1:5]), true
}

// auraSlot extracts Aura's plain (non-enum) PreDigest slot number, used
// together with the current authority set's length (slot % len) to find
// the block author; aura has no authority_index field of its own.
func auraSlot(preRuntimeData []byte) (uint64, bool) {
	if len(preRuntimeData) < 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(preRuntimeData[:8]), true
}
