package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotFormat identifies the encoding written by EncodeSnapshot.
const SnapshotFormat = "msgpack_tokens_v1"

// EncodeSnapshot packs raw snapshot tokens. Decoding and re-tokenizing
// reproduces the turn exactly, including trailing tokens the parser ignored.
func EncodeSnapshot(tokens []string) ([]byte, error) {
	b, err := msgpack.Marshal(tokens)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func DecodeSnapshot(format string, blob []byte) ([]string, error) {
	if format != SnapshotFormat {
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
	var tokens []string
	if err := msgpack.Unmarshal(blob, &tokens); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return tokens, nil
}
