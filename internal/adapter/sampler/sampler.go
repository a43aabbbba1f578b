package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"

	"framesearch/internal/domain"
	"framesearch/internal/port"
)

// Sampler selects every interval-th frame from a decoded stream.
// Frame ordinals start at 0, so the first frame is always emitted.
type Sampler struct {
	interval int
}

func New(interval int) (*Sampler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: sampling interval must be positive, got %d", domain.ErrInvalidConfiguration, interval)
	}
	return &Sampler{interval: interval}, nil
}

// Each consumes the stream exactly once, calling fn for every frame whose
// ordinal position i satisfies i % interval == 0. Frames are never
// buffered; memory use is bounded by one frame regardless of video
// length. An empty stream yields no calls and no error. The context is
// checked between frames so arbitrarily long videos stay cancellable.
func (s *Sampler) Each(ctx context.Context, stream port.FrameStream, fn func(frameIndex int, frame []byte) error) error {
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decoding frame %d: %w", i, err)
		}

		if i%s.interval != 0 {
			continue
		}
		if err := fn(i, frame); err != nil {
			return err
		}
	}
}
