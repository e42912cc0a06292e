package codec

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
)

// Common media types.
const (
	MIMEWAV = "audio/wav"
	MIMEL16 = "audio/L16"
)

// Payload is an encoded audio blob tagged with its media type.
type Payload struct {
	MIMEType string
	Data     []byte
}

// Empty reports whether the payload carries no bytes.
func (p Payload) Empty() bool {
	return len(p.Data) == 0
}

// PCMType builds the media type for raw little-endian 16-bit PCM.
func PCMType(rate, channels int) string {
	return fmt.Sprintf("%s;rate=%d;channels=%d", MIMEL16, rate, channels)
}

// pcmShape extracts rate and channel parameters, defaulting to 24 kHz mono
// when they are absent.
func pcmShape(params map[string]string) (rate, channels int, err error) {
	rate, channels = 24000, 1
	if v, ok := params["rate"]; ok {
		if rate, err = strconv.Atoi(v); err != nil || rate <= 0 {
			return 0, 0, fmt.Errorf("bad rate parameter %q", v)
		}
	}
	if v, ok := params["channels"]; ok {
		if channels, err = strconv.Atoi(v); err != nil || channels <= 0 {
			return 0, 0, fmt.Errorf("bad channels parameter %q", v)
		}
	}
	return rate, channels, nil
}

func parseType(t string) (string, map[string]string) {
	if t == "" {
		return "", nil
	}
	mt, params, err := mime.ParseMediaType(t)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(t, ";", 2)[0])), nil
	}
	return mt, params
}

func isWAVType(mt string) bool {
	switch mt {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return true
	}
	return false
}

func isPCMType(mt string) bool {
	return mt == "audio/l16" || mt == "audio/pcm"
}
