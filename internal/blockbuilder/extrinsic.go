package blockbuilder

import (
	"encoding/hex"
	"fmt"

	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
	"github.com/synnergy-network/substrate-gateway/internal/ss58"
)

// DecodedExtrinsic is one decoded extrinsic: its envelope (signer/era/
// nonce/tip when signed) and its call, rendered through the extrinsic-
// args context. A decode failure is captured as DecodeError rather than
// aborting the whole block.
type DecodedExtrinsic struct {
	Signed      bool
	SignerSS58  string // empty when unsigned or signer form isn't Id(AccountId32)
	Nonce       string // decimal string; empty when unsigned
	Tip         string // decimal string; empty when unsigned
	Pallet      string
	Call        string
	Args        any
	RawHex      string
	DecodeError string
}

// extrinsic wire layout (V4/V5, the form every chain in practice still
// emits): compact<u32> length, then a version byte whose top bit marks
// "signed" and whose low 7 bits are the transaction format version,
// followed by (if signed) a MultiAddress signer, a MultiSignature, an
// Era, and compact nonce/tip, and finally the call itself (pallet index
// byte, call index byte, SCALE-encoded args). Signed extensions beyond
// nonce/tip (asset-payment, metadata hash, etc.) are chain-specific and
// are not decoded; fee info is sourced from payment_queryInfo instead of
// parsed from the extension bytes.
func decodeExtrinsic(raw []byte, view *metadata.View, renderer *scale.Renderer) DecodedExtrinsic {
	out := DecodedExtrinsic{RawHex: "0x" + hex.EncodeToString(raw)}
	c := scale.NewCursor(raw)

	if _, err := c.CompactLen(); err != nil {
		out.DecodeError = fmt.Sprintf("length prefix: %v", err)
		return out
	}

	versionByte, err := c.Byte()
	if err != nil {
		out.DecodeError = fmt.Sprintf("version byte: %v", err)
		return out
	}
	out.Signed = versionByte&0x80 != 0

	if out.Signed {
		signer, err := decodeMultiAddress(c, renderer.SS58Prefix)
		if err != nil {
			out.DecodeError = fmt.Sprintf("signer: %v", err)
			return out
		}
		out.SignerSS58 = signer

		if err := skipMultiSignature(c); err != nil {
			out.DecodeError = fmt.Sprintf("signature: %v", err)
			return out
		}
		if err := skipEra(c); err != nil {
			out.DecodeError = fmt.Sprintf("era: %v", err)
			return out
		}
		nonce, err := c.Compact()
		if err != nil {
			out.DecodeError = fmt.Sprintf("nonce: %v", err)
			return out
		}
		out.Nonce = nonce.String()
		tip, err := c.Compact()
		if err != nil {
			out.DecodeError = fmt.Sprintf("tip: %v", err)
			return out
		}
		out.Tip = tip.String()
	}

	palletIdx, err := c.Byte()
	if err != nil {
		out.DecodeError = fmt.Sprintf("pallet index: %v", err)
		return out
	}
	callIdx, err := c.Byte()
	if err != nil {
		out.DecodeError = fmt.Sprintf("call index: %v", err)
		return out
	}

	pallet, ok := view.PalletByIndex(palletIdx)
	if !ok {
		out.DecodeError = fmt.Sprintf("unknown pallet index %d", palletIdx)
		return out
	}
	call, ok := pallet.CallsByIndex[callIdx]
	if !ok {
		out.DecodeError = fmt.Sprintf("unknown call index %d in pallet %s", callIdx, pallet.Name)
		return out
	}
	out.Pallet = pallet.Name
	out.Call = call.Name

	dec := scale.NewDecoder(view.Registry)
	args := scale.NewJSONObject()
	for _, f := range call.Args {
		node, err := dec.Decode(c, f.Type)
		if err != nil {
			out.DecodeError = fmt.Sprintf("arg %s: %v", f.Name, err)
			return out
		}
		args.Set(scale.CamelCase(f.Name), renderer.Render(scale.ContextExtrinsicArgs, node, true))
	}
	out.Args = args
	return out
}

// decodeMultiAddress decodes the MultiAddress enum and, for the common
// Id(AccountId32) variant, returns its SS58 encoding; other variants
// (Index, Raw, Address32, Address20) return an empty string since they
// carry no AccountId32 to render.
func decodeMultiAddress(c *scale.Cursor, ss58Prefix uint16) (string, error) {
	tag, err := c.Byte()
	if err != nil {
		return "", err
	}
	switch tag {
	case 0: // Id(AccountId32)
		b, err := c.Bytes(32)
		if err != nil {
			return "", err
		}
		var acct [32]byte
		copy(acct[:], b)
		return ss58.Encode(acct, ss58Prefix), nil
	case 1: // Index(Compact<AccountIndex>)
		if _, err := c.Compact(); err != nil {
			return "", err
		}
		return "", nil
	case 2: // Raw(Vec<u8>)
		n, err := c.CompactLen()
		if err != nil {
			return "", err
		}
		if _, err := c.Bytes(n); err != nil {
			return "", err
		}
		return "", nil
	case 3: // Address32([u8;32])
		if _, err := c.Bytes(32); err != nil {
			return "", err
		}
		return "", nil
	case 4: // Address20([u8;20])
		if _, err := c.Bytes(20); err != nil {
			return "", err
		}
		return "", nil
	default:
		return "", fmt.Errorf("unknown MultiAddress tag %d", tag)
	}
}

// skipMultiSignature consumes the MultiSignature enum: Ed25519/Sr25519
// (64 bytes) or Ecdsa (65 bytes). The signature is never surfaced in the
// rendered extrinsic, so only its length matters.
func skipMultiSignature(c *scale.Cursor) error {
	tag, err := c.Byte()
	if err != nil {
		return err
	}
	switch tag {
	case 0, 1: // Ed25519, Sr25519
		_, err := c.Bytes(64)
		return err
	case 2: // Ecdsa
		_, err := c.Bytes(65)
		return err
	default:
		return fmt.Errorf("unknown MultiSignature tag %d", tag)
	}
}

// skipEra consumes an Era: Immortal is a single 0x00 byte; Mortal is two
// bytes encoding period and phase together.
func skipEra(c *scale.Cursor) error {
	first, err := c.Byte()
	if err != nil {
		return err
	}
	if first == 0 {
		return nil
	}
	_, err = c.Byte()
	return err
}
