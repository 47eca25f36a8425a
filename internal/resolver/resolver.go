// Package resolver turns a user-supplied BlockId (height, hash, or
// "head") into a ResolvedBlock
// carrying both the canonical hash and height, since every downstream
// RPC call is keyed on the hash but every response body also reports
// the height.
package resolver

import (
	"context"
	"errors"

	"github.com/synnergy-network/substrate-gateway/internal/apierr"
	"github.com/synnergy-network/substrate-gateway/internal/blockid"
	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

// ResolvedBlock pins a request to one block by both hash and height.
type ResolvedBlock struct {
	Hash   [32]byte
	Height uint64
}

// Resolve normalizes id against client into a ResolvedBlock.
//
//   - Head: chain_getFinalizedHead, then chain_getHeader for its height.
//   - Hash: chain_getHeader(h); the header's number field gives the height.
//   - Height(n): chain_getBlockHash(n) to get the canonical hash.
//
// Any RPC failure is wrapped as apierr.RpcFailure/RpcTimeout; an unknown
// hash or height is reported as apierr.BlockNotFound.
func Resolve(ctx context.Context, client *rpc.Client, id blockid.BlockId) (ResolvedBlock, error) {
	switch id.Kind {
	case blockid.KindHead:
		hash, err := rpc.ChainGetFinalizedHead(ctx, client)
		if err != nil {
			return ResolvedBlock{}, wrapRPCErr("chain_getFinalizedHead", err)
		}
		height, err := headerHeight(ctx, client, hash)
		if err != nil {
			return ResolvedBlock{}, err
		}
		return ResolvedBlock{Hash: hash, Height: height}, nil

	case blockid.KindHash:
		height, err := headerHeight(ctx, client, id.Hash)
		if err != nil {
			return ResolvedBlock{}, err
		}
		return ResolvedBlock{Hash: id.Hash, Height: height}, nil

	case blockid.KindHeight:
		hash, ok, err := rpc.ChainGetBlockHash(ctx, client, id.Height)
		if err != nil {
			return ResolvedBlock{}, wrapRPCErr("chain_getBlockHash", err)
		}
		if !ok {
			return ResolvedBlock{}, apierr.BlockNotFound(id.String())
		}
		return ResolvedBlock{Hash: hash, Height: id.Height}, nil

	default:
		return ResolvedBlock{}, apierr.InvalidInput("id", "unrecognized block identifier kind")
	}
}

func headerHeight(ctx context.Context, client *rpc.Client, hash [32]byte) (uint64, error) {
	hdr, ok, err := rpc.ChainGetHeader(ctx, client, hash)
	if err != nil {
		return 0, wrapRPCErr("chain_getHeader", err)
	}
	if !ok {
		return 0, apierr.BlockNotFound(blockid.Hash(hash).String())
	}
	n, err := decodeHexHeight(hdr.Number)
	if err != nil {
		return 0, apierr.DecodeFailed("chain", "header.number", err)
	}
	return n, nil
}

func decodeHexHeight(hexNum string) (uint64, error) {
	if len(hexNum) < 2 || hexNum[:2] != "0x" {
		return 0, errors.New("resolver: header number not 0x-prefixed")
	}
	var n uint64
	for _, r := range hexNum[2:] {
		var d uint64
		switch {
		case r >= '0' && r <= '9':
			d = uint64(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint64(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = uint64(r-'A') + 10
		default:
			return 0, errors.New("resolver: invalid hex digit in header number")
		}
		n = n<<4 | d
	}
	return n, nil
}

func wrapRPCErr(method string, err error) error {
	var timeout *rpc.TimeoutError
	if errors.As(err, &timeout) {
		return apierr.RpcTimeout(method, err)
	}
	return apierr.RpcFailure(method, err)
}
