// Package codec turns encoded audio payloads into planar sample buffers and
// back.
//
// WAV is handled natively through go-audio. Raw 16-bit PCM payloads carry
// their shape in MIME parameters, e.g. "audio/L16;rate=24000;channels=1".
// Compressed formats need an external ffmpeg binary; see [FFmpeg].
package codec
