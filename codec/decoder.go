package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/dsp/buffer"
)

// Decoder dispatches payloads on their media type.
type Decoder struct {
	ffmpeg *FFmpeg
	log    *zap.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithFFmpeg enables decoding of formats other than WAV and raw PCM.
func WithFFmpeg(f *FFmpeg) Option {
	return func(d *Decoder) { d.ffmpeg = f }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDecoder returns a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecodePayload decodes p. WAV content is detected by its header regardless
// of the declared type.
func (d *Decoder) DecodePayload(ctx context.Context, p Payload) (*buffer.Audio, error) {
	if p.Empty() {
		return nil, decodeErr("", ErrEmpty)
	}

	mt, params := parseType(p.MIMEType)
	switch {
	case looksLikeWAV(p.Data) || isWAVType(mt):
		return decodeWAV(p.Data)
	case isPCMType(mt):
		rate, ch, err := pcmShape(params)
		if err != nil {
			return nil, decodeErr("pcm", err)
		}
		return DecodePCM16(p.Data, rate, ch)
	case d.ffmpeg != nil:
		d.log.Debug("decoding through ffmpeg", zap.String("mime", p.MIMEType), zap.Int("bytes", len(p.Data)))
		return d.ffmpeg.Decode(ctx, p.Data)
	default:
		return nil, decodeErr(mt, ErrUnsupportedFormat)
	}
}

// FFmpeg decodes arbitrary containers by piping them through an ffmpeg
// process and reading back 16-bit PCM.
type FFmpeg struct {
	// Path is the binary to run. Empty means "ffmpeg" from PATH.
	Path       string
	SampleRate int
	Channels   int
}

// Decode runs ffmpeg over data.
func (f *FFmpeg) Decode(ctx context.Context, data []byte) (*buffer.Audio, error) {
	rate, ch := f.SampleRate, f.Channels
	if rate <= 0 {
		rate = 48000
	}
	if ch <= 0 {
		ch = 2
	}
	path := f.Path
	if path == "" {
		path = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, path,
		"-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(ch),
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return nil, decodeErr("ffmpeg", err)
	}
	if len(out) == 0 {
		return nil, decodeErr("ffmpeg", ErrEmpty)
	}
	out = out[:len(out)-len(out)%(2*ch)]
	return DecodePCM16(out, rate, ch)
}
