package rpc

import (
	"context"
	"encoding/hex"
	"fmt"
)

// HeaderResponse mirrors the JSON shape of chain_getHeader.
type HeaderResponse struct {
	ParentHash     string        `json:"parentHash"`
	Number         string        `json:"number"` // hex-encoded height
	StateRoot      string        `json:"stateRoot"`
	ExtrinsicsRoot string        `json:"extrinsicsRoot"`
	Digest         DigestWrapper `json:"digest"`
}

// DigestWrapper wraps the raw digest log list.
type DigestWrapper struct {
	Logs []string `json:"logs"` // each a SCALE-encoded, hex-prefixed DigestItem
}

// BlockResponse mirrors chain_getBlock's {block: {header, extrinsics}}.
type BlockResponse struct {
	Block struct {
		Header      HeaderResponse `json:"header"`
		Extrinsics  []string       `json:"extrinsics"` // hex-encoded SCALE extrinsics
	} `json:"block"`
}

// RuntimeVersion mirrors state_getRuntimeVersion.
type RuntimeVersion struct {
	SpecName    string `json:"specName"`
	ImplName    string `json:"implName"`
	SpecVersion uint32 `json:"specVersion"`
}

// ChainGetFinalizedHead calls chain_getFinalizedHead.
func ChainGetFinalizedHead(ctx context.Context, c *Client) ([32]byte, error) {
	var raw string
	ok, err := c.Call(ctx, &raw, "chain_getFinalizedHead")
	if err != nil {
		return [32]byte{}, err
	}
	if !ok {
		return [32]byte{}, fmt.Errorf("rpc: chain_getFinalizedHead returned null")
	}
	return decodeHash(raw)
}

// ChainGetBlockHash calls chain_getBlockHash(height). ok=false means the
// node has no block at that height (null result).
func ChainGetBlockHash(ctx context.Context, c *Client, height uint64) (h [32]byte, ok bool, err error) {
	var raw string
	ok, err = c.Call(ctx, &raw, "chain_getBlockHash", height)
	if err != nil || !ok {
		return [32]byte{}, ok, err
	}
	h, err = decodeHash(raw)
	return h, true, err
}

// ChainGetHeader calls chain_getHeader(hash). ok=false means the hash is
// unknown to the node.
func ChainGetHeader(ctx context.Context, c *Client, hash [32]byte) (hdr HeaderResponse, ok bool, err error) {
	ok, err = c.Call(ctx, &hdr, "chain_getHeader", "0x"+hex.EncodeToString(hash[:]))
	return hdr, ok, err
}

// ChainGetBlock calls chain_getBlock(hash).
func ChainGetBlock(ctx context.Context, c *Client, hash [32]byte) (blk BlockResponse, ok bool, err error) {
	ok, err = c.Call(ctx, &blk, "chain_getBlock", "0x"+hex.EncodeToString(hash[:]))
	return blk, ok, err
}

// StateGetRuntimeVersion calls state_getRuntimeVersion(hash).
func StateGetRuntimeVersion(ctx context.Context, c *Client, hash [32]byte) (RuntimeVersion, error) {
	var v RuntimeVersion
	ok, err := c.Call(ctx, &v, "state_getRuntimeVersion", "0x"+hex.EncodeToString(hash[:]))
	if err != nil {
		return RuntimeVersion{}, err
	}
	if !ok {
		return RuntimeVersion{}, fmt.Errorf("rpc: state_getRuntimeVersion returned null")
	}
	return v, nil
}

// StateGetMetadata calls state_getMetadata(hash) and returns the raw
// SCALE-encoded metadata bytes.
func StateGetMetadata(ctx context.Context, c *Client, hash [32]byte) ([]byte, error) {
	var raw string
	ok, err := c.Call(ctx, &raw, "state_getMetadata", "0x"+hex.EncodeToString(hash[:]))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rpc: state_getMetadata returned null")
	}
	return decodeHexBytes(raw)
}

// StateGetStorage calls state_getStorage(key, hash). ok=false means the
// key is absent at that block.
func StateGetStorage(ctx context.Context, c *Client, key []byte, hash [32]byte) (val []byte, ok bool, err error) {
	var raw string
	ok, err = c.Call(ctx, &raw, "state_getStorage", "0x"+hex.EncodeToString(key), "0x"+hex.EncodeToString(hash[:]))
	if err != nil || !ok {
		return nil, ok, err
	}
	val, err = decodeHexBytes(raw)
	return val, true, err
}

// StateGetKeysPagedResult is one page of state_getKeysPaged.
type StateGetKeysPagedResult struct {
	Keys [][]byte
}

// StateGetKeysPaged calls state_getKeysPaged(prefix, pageSize, startKey, hash).
func StateGetKeysPaged(ctx context.Context, c *Client, prefix []byte, pageSize int, startKey []byte, hash [32]byte) ([][]byte, error) {
	var raw []string
	startParam := any(nil)
	if startKey != nil {
		startParam = "0x" + hex.EncodeToString(startKey)
	}
	ok, err := c.Call(ctx, &raw, "state_getKeysPaged",
		"0x"+hex.EncodeToString(prefix), pageSize, startParam, "0x"+hex.EncodeToString(hash[:]))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out := make([][]byte, 0, len(raw))
	for _, r := range raw {
		b, err := decodeHexBytes(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// PaymentQueryInfo calls payment_queryInfo(extrinsicHex, hash) and returns
// the raw JSON so the fee-info transform (internal/blockbuilder's
// normalizeFeeInfo) can normalize it.
func PaymentQueryInfo(ctx context.Context, c *Client, extrinsic []byte, hash [32]byte) (map[string]any, error) {
	var out map[string]any
	ok, err := c.Call(ctx, &out, "payment_queryInfo", "0x"+hex.EncodeToString(extrinsic), "0x"+hex.EncodeToString(hash[:]))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("rpc: payment_queryInfo returned null")
	}
	return out, nil
}

// SystemProperties calls system_properties.
func SystemProperties(ctx context.Context, c *Client) (map[string]any, error) {
	var out map[string]any
	_, err := c.Call(ctx, &out, "system_properties")
	return out, err
}

// SystemName calls system_name.
func SystemName(ctx context.Context, c *Client) (string, error) {
	var out string
	_, err := c.Call(ctx, &out, "system_name")
	return out, err
}

// SystemVersion calls system_version.
func SystemVersion(ctx context.Context, c *Client) (string, error) {
	var out string
	_, err := c.Call(ctx, &out, "system_version")
	return out, err
}

// SystemChain calls system_chain.
func SystemChain(ctx context.Context, c *Client) (string, error) {
	var out string
	_, err := c.Call(ctx, &out, "system_chain")
	return out, err
}

// SystemHealth calls system_health.
func SystemHealth(ctx context.Context, c *Client) (map[string]any, error) {
	var out map[string]any
	_, err := c.Call(ctx, &out, "system_health")
	return out, err
}

// SystemNetworkState calls system_networkState (peer count, listening
// addresses; node-dependent shape, passed through verbatim).
func SystemNetworkState(ctx context.Context, c *Client) (map[string]any, error) {
	var out map[string]any
	_, err := c.Call(ctx, &out, "system_networkState")
	return out, err
}

// SystemPeers calls system_peers.
func SystemPeers(ctx context.Context, c *Client) ([]map[string]any, error) {
	var out []map[string]any
	_, err := c.Call(ctx, &out, "system_peers")
	return out, err
}

func decodeHash(raw string) ([32]byte, error) {
	b, err := decodeHexBytes(raw)
	if err != nil {
		return [32]byte{}, err
	}
	if len(b) != 32 {
		return [32]byte{}, fmt.Errorf("rpc: expected 32-byte hash, got %d bytes", len(b))
	}
	var h [32]byte
	copy(h[:], b)
	return h, nil
}

func decodeHexBytes(raw string) ([]byte, error) {
	if len(raw) < 2 || raw[0:2] != "0x" {
		return nil, fmt.Errorf("rpc: expected 0x-prefixed hex, got %q", raw)
	}
	return hex.DecodeString(raw[2:])
}
