package port

import "context"

// FrameDecoder opens a video file and yields its frames lazily, in
// presentation order. The stream is finite, single-pass, and not
// restartable within one Open call.
type FrameDecoder interface {
	Open(ctx context.Context, path string) (FrameStream, error)
}

// FrameStream is a lazy sequence of JPEG-encoded frames.
// Next returns io.EOF after the last frame.
type FrameStream interface {
	Next() ([]byte, error)
	Close() error
}
