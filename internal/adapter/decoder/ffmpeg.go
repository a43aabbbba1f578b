package decoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"framesearch/internal/domain"
	"framesearch/internal/port"
)

// FFmpegDecoder decodes video files by piping MJPEG frames out of an
// external ffmpeg process. Frames are yielded lazily in presentation
// order; the whole video is never held in memory.
type FFmpegDecoder struct{}

var _ port.FrameDecoder = (*FFmpegDecoder)(nil)

func NewFFmpegDecoder() *FFmpegDecoder {
	return &FFmpegDecoder{}
}

func (d *FFmpegDecoder) Open(ctx context.Context, path string) (port.FrameStream, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnreadableVideo, path)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start ffmpeg for %s: %v", domain.ErrUnreadableVideo, path, err)
	}

	return &ffmpegStream{
		path:   path,
		cmd:    cmd,
		reader: bufio.NewReaderSize(stdout, 64*1024),
		stderr: &stderr,
	}, nil
}

// Probe returns the video duration in seconds via ffprobe.
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

type ffmpegStream struct {
	path    string
	cmd     *exec.Cmd
	reader  *bufio.Reader
	stderr  *bytes.Buffer
	yielded int
	waited  bool
}

func (s *ffmpegStream) Next() ([]byte, error) {
	frame, err := nextJPEG(s.reader)
	if err == io.EOF {
		// ffmpeg rejects unsupported formats after Open succeeds, so a
		// failed exit with zero frames is surfaced as an unreadable video.
		waitErr := s.wait()
		if waitErr != nil && s.yielded == 0 {
			return nil, fmt.Errorf("%w: ffmpeg failed for %s: %s", domain.ErrUnreadableVideo, s.path, stderrTail(s.stderr))
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	s.yielded++
	return frame, nil
}

func (s *ffmpegStream) Close() error {
	if s.cmd.Process != nil && !s.waited {
		s.cmd.Process.Kill()
	}
	s.wait()
	return nil
}

func (s *ffmpegStream) wait() error {
	if s.waited {
		return nil
	}
	s.waited = true
	return s.cmd.Wait()
}

func stderrTail(buf *bytes.Buffer) string {
	out := strings.TrimSpace(buf.String())
	if i := strings.LastIndex(out, "\n"); i >= 0 {
		out = out[i+1:]
	}
	return out
}

// nextJPEG reads one JPEG image from an MJPEG byte stream, delimited by
// the SOI (FFD8) and EOI (FFD9) markers. Returns io.EOF once the stream
// is exhausted.
func nextJPEG(r *bufio.Reader) ([]byte, error) {
	// Scan to the start-of-image marker.
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xFF {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == 0xD8 {
			break
		}
	}

	frame := []byte{0xFF, 0xD8}
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("truncated frame: %w", io.ErrUnexpectedEOF)
		}
		frame = append(frame, b)
		if b != 0xFF {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("truncated frame: %w", io.ErrUnexpectedEOF)
		}
		frame = append(frame, b)
		if b == 0xD9 {
			return frame, nil
		}
	}
}
