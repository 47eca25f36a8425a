// Package blockbuilder assembles one block's full JSON view — header,
// decoded extrinsics
// (with per-extrinsic fee info and the events they fired), events fired
// outside any extrinsic, and decoded digest logs — from the handful of
// RPC calls and the metadata View that make it possible.
package blockbuilder

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/blockid"
	"github.com/synnergy-network/substrate-gateway/internal/metadata"
	"github.com/synnergy-network/substrate-gateway/internal/pool"
	"github.com/synnergy-network/substrate-gateway/internal/resolver"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
	"github.com/synnergy-network/substrate-gateway/internal/scale"
	"github.com/synnergy-network/substrate-gateway/internal/storagekeys"
)

// ExtrinsicJSON is one extrinsic's rendered shape within a BlockJSON.
type ExtrinsicJSON struct {
	Index       int            `json:"index"`
	Signed      bool           `json:"signed"`
	Signer      string         `json:"signer,omitempty"`
	Nonce       string         `json:"nonce,omitempty"`
	Tip         string         `json:"tip,omitempty"`
	Pallet      string         `json:"pallet,omitempty"`
	Call        string         `json:"call,omitempty"`
	Args        any            `json:"args,omitempty"`
	Info        any            `json:"info,omitempty"`
	Events      []DecodedEvent `json:"events"`
	RawHex      string         `json:"raw"`
	DecodeError string         `json:"decodeError,omitempty"`
}

// BlockJSON is the Block Builder's full output.
type BlockJSON struct {
	Hash           string          `json:"hash"`
	Height         uint64          `json:"height"`
	ParentHash     string          `json:"parentHash"`
	StateRoot      string          `json:"stateRoot"`
	ExtrinsicsRoot string          `json:"extrinsicsRoot"`
	Author         string          `json:"author,omitempty"`
	Extrinsics     []ExtrinsicJSON `json:"extrinsics"`
	OnInitialize   []DecodedEvent  `json:"onInitialize"`
	OnFinalize     []DecodedEvent  `json:"onFinalize"`
	Digest         []DigestLog     `json:"digest"`
}

// feeConcurrency bounds how many payment_queryInfo calls run at once
// per block, independent of the block's extrinsic count.
const feeConcurrency = 8

// MetadataLoader is the subset of *metadata.Cache that Build needs,
// letting tests substitute a fake view lookup without decoding a real
// SCALE metadata blob.
type MetadataLoader interface {
	ViewAt(ctx context.Context, hash [32]byte) (*metadata.View, error)
}

// Build resolves id, loads the metadata active at that block, and
// assembles its BlockJSON. A single extrinsic's decode failure, or an
// event whose payload has an unexpected shape, is captured inline rather
// than failing the whole block. System.Events bytes that fail to decode
// fail the whole request, and so does a missing System.Events entry
// (chains below metadata V9 never carried one), since nothing downstream
// can recover the expected event data.
func Build(ctx context.Context, client *rpc.Client, cache MetadataLoader, id blockid.BlockId) (*BlockJSON, error) {
	resolved, err := resolver.Resolve(ctx, client, id)
	if err != nil {
		return nil, err
	}

	view, err := cache.ViewAt(ctx, resolved.Hash)
	if err != nil {
		return nil, fmt.Errorf("blockbuilder: load metadata: %w", err)
	}
	renderer := scale.NewRenderer(ss58PrefixOf(view))

	blk, eventsRaw, err := fetchBlockAndEvents(ctx, client, resolved)
	if err != nil {
		return nil, err
	}

	onInit, onFinalize, byExtrinsic, err := decodeEvents(eventsRaw, view, renderer)
	if err != nil {
		return nil, fmt.Errorf("blockbuilder: %w", err)
	}

	rawExtrinsics := make([][]byte, len(blk.Block.Extrinsics))
	for i, hexStr := range blk.Block.Extrinsics {
		b, err := decodeHex0x(hexStr)
		if err != nil {
			return nil, apierr.DecodeFailed("chain", "block.extrinsics", err)
		}
		rawExtrinsics[i] = b
	}

	fees := queryFees(ctx, client, rawExtrinsics, resolved)

	extrinsics := make([]ExtrinsicJSON, len(rawExtrinsics))
	for i, raw := range rawExtrinsics {
		dec := decodeExtrinsic(raw, view, renderer)
		ej := ExtrinsicJSON{
			Index:       i,
			Signed:      dec.Signed,
			Signer:      dec.SignerSS58,
			Nonce:       dec.Nonce,
			Tip:         dec.Tip,
			Pallet:      dec.Pallet,
			Call:        dec.Call,
			Args:        dec.Args,
			RawHex:      dec.RawHex,
			DecodeError: dec.DecodeError,
			Events:      byExtrinsic[uint32(i)],
		}
		if ej.Events == nil {
			ej.Events = []DecodedEvent{}
		}
		if fees[i] != nil {
			ej.Info = fees[i]
		}
		extrinsics[i] = ej
	}

	digest, err := decodeDigestLogs(blk.Block.Header.Digest.Logs)
	if err != nil {
		return nil, apierr.DecodeFailed("chain", "header.digest", err)
	}

	author := resolveAuthor(ctx, client, view, renderer, resolved, digest)

	if onInit == nil {
		onInit = []DecodedEvent{}
	}
	if onFinalize == nil {
		onFinalize = []DecodedEvent{}
	}

	return &BlockJSON{
		Hash:           "0x" + hex.EncodeToString(resolved.Hash[:]),
		Height:         resolved.Height,
		ParentHash:     blk.Block.Header.ParentHash,
		StateRoot:      blk.Block.Header.StateRoot,
		ExtrinsicsRoot: blk.Block.Header.ExtrinsicsRoot,
		Author:         author,
		Extrinsics:     extrinsics,
		OnInitialize:   onInit,
		OnFinalize:     onFinalize,
		Digest:         digest,
	}, nil
}

// fetchBlockAndEvents runs chain_getBlock and the raw System.Events read
// concurrently, since neither depends on the other's result.
func fetchBlockAndEvents(ctx context.Context, client *rpc.Client, at resolver.ResolvedBlock) (rpc.BlockResponse, []byte, error) {
	type result struct {
		blk       rpc.BlockResponse
		eventsRaw []byte
		err       error
	}
	blkCh := make(chan result, 1)
	evCh := make(chan result, 1)

	go func() {
		blk, ok, err := rpc.ChainGetBlock(ctx, client, at.Hash)
		if err != nil {
			blkCh <- result{err: apierr.RpcFailure("chain_getBlock", err)}
			return
		}
		if !ok {
			blkCh <- result{err: apierr.BlockNotFound(fmt.Sprintf("0x%x", at.Hash))}
			return
		}
		blkCh <- result{blk: blk}
	}()
	go func() {
		key := storagekeys.BuildKey("System", "Events")
		raw, ok, err := rpc.StateGetStorage(ctx, client, key, at.Hash)
		if err != nil {
			evCh <- result{err: apierr.RpcFailure("state_getStorage", err)}
			return
		}
		if !ok {
			evCh <- result{err: apierr.UnsupportedChain("System.Events is not present at this block; chains below metadata V9 are not supported")}
			return
		}
		evCh <- result{eventsRaw: raw}
	}()

	blkRes := <-blkCh
	evRes := <-evCh
	if blkRes.err != nil {
		return rpc.BlockResponse{}, nil, blkRes.err
	}
	if evRes.err != nil {
		return rpc.BlockResponse{}, nil, evRes.err
	}
	return blkRes.blk, evRes.eventsRaw, nil
}

// queryFees issues one payment_queryInfo per extrinsic through the
// Concurrency Pool. A single extrinsic's fee query failing never aborts
// its siblings: the pool task always succeeds, carrying the failure (if
// any) as a nil result, so the block still renders with that one
// extrinsic's "info" omitted.
func queryFees(ctx context.Context, client *rpc.Client, rawExtrinsics [][]byte, at resolver.ResolvedBlock) []map[string]any {
	tasks := make([]pool.Task[map[string]any], len(rawExtrinsics))
	for i, raw := range rawExtrinsics {
		raw := raw
		tasks[i] = func(ctx context.Context) (map[string]any, error) {
			info, err := rpc.PaymentQueryInfo(ctx, client, raw, at.Hash)
			if err != nil {
				return nil, nil //nolint:nilerr // degrade this one extrinsic's fee info, not the block
			}
			return normalizeFeeInfo(info), nil
		}
	}
	results, _ := pool.Run(ctx, feeConcurrency, tasks)
	return results
}

// normalizeFeeInfo brings payment_queryInfo's response to one stable
// shape: "weight" is always {"refTime": "<decimal>", "proofSize":
// "<decimal>"}, and "partialFee" is always a decimal string. Nodes
// disagree on all of this: older runtimes report "weight" as a bare
// scalar (ref-time only, pre-dating proof-size-aware weights) instead
// of an object; the object's keys come back snake_cased
// (ref_time/proof_size) on some clients and camelCase on others; and
// any numeric field may arrive as a JSON number, a decimal string, or
// a 0x-prefixed hex string.
func normalizeFeeInfo(info map[string]any) map[string]any {
	w, ok := info["weight"]
	if ok {
		info["weight"] = normalizeWeight(w)
	}
	if fee, ok := info["partialFee"]; ok {
		if s, ok := extractNumberAsString(fee); ok {
			info["partialFee"] = s
		}
	}
	return info
}

func normalizeWeight(w any) map[string]any {
	v, ok := w.(map[string]any)
	if !ok {
		s, _ := extractNumberAsString(w)
		return map[string]any{"refTime": s, "proofSize": "0"}
	}
	refTime, hasRefTime := v["refTime"]
	if !hasRefTime {
		refTime, hasRefTime = v["ref_time"]
	}
	proofSize, hasProofSize := v["proofSize"]
	if !hasProofSize {
		proofSize, hasProofSize = v["proof_size"]
	}
	refTimeStr := "0"
	if hasRefTime {
		if s, ok := extractNumberAsString(refTime); ok {
			refTimeStr = s
		}
	}
	proofSizeStr := "0"
	if hasProofSize {
		if s, ok := extractNumberAsString(proofSize); ok {
			proofSizeStr = s
		}
	}
	return map[string]any{"refTime": refTimeStr, "proofSize": proofSizeStr}
}

// extractNumberAsString coerces a JSON-decoded numeric value (a
// float64, a decimal string, or a 0x-prefixed hex string) into a
// decimal string, matching the >=64-bit integer-width emission rule
// everywhere the node's own number encoding can't be trusted.
func extractNumberAsString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
			n := new(big.Int)
			if _, ok := n.SetString(t[2:], 16); !ok {
				return "", false
			}
			return n.String(), true
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func decodeDigestLogs(logs []string) ([]DigestLog, error) {
	out := make([]DigestLog, len(logs))
	for i, h := range logs {
		raw, err := decodeHex0x(h)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		log, err := decodeDigestLog(raw)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		out[i] = log
	}
	return out, nil
}

// resolveAuthor makes a best-effort attempt to identify the block
// author from the header's PreRuntime digest, falling back to empty
// when the engine is unrecognized or Session.Validators can't be read
// at this block — author identification degrades gracefully rather
// than failing the block.
func resolveAuthor(ctx context.Context, client *rpc.Client, view *metadata.View, renderer *scale.Renderer, at resolver.ResolvedBlock, digest []DigestLog) string {
	var preRuntime *DigestLog
	for i := range digest {
		if digest[i].Kind == "preRuntime" {
			preRuntime = &digest[i]
			break
		}
	}
	if preRuntime == nil {
		return ""
	}

	var idx uint32
	switch preRuntime.Engine {
	case "BABE":
		i, ok := babeAuthorityIndex(preRuntime.rawData)
		if !ok {
			return ""
		}
		idx = i
	case "aura":
		slot, ok := auraSlot(preRuntime.rawData)
		if !ok {
			return ""
		}
		validators, ok := sessionValidatorCount(ctx, client, view, renderer, at)
		if !ok || validators == 0 {
			return ""
		}
		idx = uint32(slot % uint64(validators))
	default:
		return ""
	}

	names, ok := sessionValidators(ctx, client, view, renderer, at)
	if !ok || int(idx) >= len(names) {
		return ""
	}
	return names[idx]
}

func sessionValidators(ctx context.Context, client *rpc.Client, view *metadata.View, renderer *scale.Renderer, at resolver.ResolvedBlock) ([]string, bool) {
	p, ok := view.Pallet("Session")
	if !ok {
		return nil, false
	}
	se, ok := p.Storage["Validators"]
	if !ok || se.Kind != metadata.StoragePlain {
		return nil, false
	}
	key := storagekeys.BuildKey("Session", "Validators")
	raw, ok, err := rpc.StateGetStorage(ctx, client, key, at.Hash)
	if err != nil || !ok {
		return nil, false
	}
	dec := scale.NewDecoder(view.Registry)
	node, err := dec.Decode(scale.NewCursor(raw), se.ValueType)
	if err != nil {
		return nil, false
	}
	rendered, ok := renderer.Render(scale.ContextStorage, node, false).([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(rendered))
	for _, v := range rendered {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func sessionValidatorCount(ctx context.Context, client *rpc.Client, view *metadata.View, renderer *scale.Renderer, at resolver.ResolvedBlock) (int, bool) {
	names, ok := sessionValidators(ctx, client, view, renderer, at)
	if !ok {
		return 0, false
	}
	return len(names), true
}

// ss58PrefixOf reads System.SS58Prefix from the metadata's constants,
// falling back to 42 (the Substrate default) when the pallet or
// constant is absent.
func ss58PrefixOf(view *metadata.View) uint16 {
	p, ok := view.Pallet("System")
	if !ok {
		return 42
	}
	c, ok := p.Constants["SS58Prefix"]
	if !ok || len(c.Value) < 2 {
		return 42
	}
	return uint16(c.Value[0]) | uint16(c.Value[1])<<8
}

func decodeHex0x(s string) ([]byte, error) {
	if len(s) < 2 || s[0] != '0' || s[1] != 'x' {
		return nil, fmt.Errorf("expected 0x-prefixed hex, got %q", s)
	}
	return hex.DecodeString(s[2:])
}
