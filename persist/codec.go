package persist

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressed wraps a backend so blobs are stored zstd compressed.
type compressed struct {
	Backend
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Compressed returns b with transparent zstd compression. EncodeAll and
// DecodeAll are safe for concurrent use.
func Compressed(b Backend) (Backend, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &compressed{Backend: b, enc: enc, dec: dec}, nil
}

func (c *compressed) Save(ctx context.Context, key string, blob []byte) error {
	return c.Backend.Save(ctx, key, c.enc.EncodeAll(blob, nil))
}

func (c *compressed) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := c.Backend.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, writeFailed(err, "stored snapshot is not zstd compressed")
	}
	return out, nil
}
