package capture

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-studio/codec"
)

// fakeFFmpeg writes an executable shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts only")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFFmpegDeviceDeniedBeforeAudio(t *testing.T) {
	dev := &FFmpegDevice{
		Path:         fakeFFmpeg(t, "echo 'default: Permission denied' >&2\nexit 1"),
		Format:       "pulse",
		Input:        "default",
		GrantTimeout: 5 * time.Second,
	}
	r := NewRecorder(dev)

	err := r.Start(context.Background())
	var dae *DeviceAccessError
	require.ErrorAs(t, err, &dae)
	assert.Contains(t, err.Error(), "Permission denied")
	assert.Equal(t, Idle, r.State())

	p, err := r.Stop()
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestFFmpegDeviceExitWithoutAudio(t *testing.T) {
	dev := &FFmpegDevice{
		Path:         fakeFFmpeg(t, "exit 0"),
		Format:       "pulse",
		Input:        "default",
		GrantTimeout: 5 * time.Second,
	}
	_, err := dev.Open(context.Background())
	var dae *DeviceAccessError
	require.ErrorAs(t, err, &dae)
}

func TestFFmpegDeviceGrantedKeepsFirstChunk(t *testing.T) {
	dev := &FFmpegDevice{
		Path:         fakeFFmpeg(t, "printf 'abcd'\nexec sleep 5"),
		Format:       "pulse",
		Input:        "default",
		SampleRate:   16000,
		GrantTimeout: 5 * time.Second,
	}
	r := NewRecorder(dev)

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, Capturing, r.State())

	p, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(p.Data))
	assert.Equal(t, codec.PCMType(16000, 1), p.MIMEType)
	assert.Equal(t, Idle, r.State())
}

func TestFFmpegDeviceOpenBoundedByContext(t *testing.T) {
	dev := &FFmpegDevice{
		Path:         fakeFFmpeg(t, "exec sleep 5"),
		Format:       "pulse",
		Input:        "default",
		GrantTimeout: 5 * time.Second,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := dev.Open(ctx)
	var dae *DeviceAccessError
	require.ErrorAs(t, err, &dae)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
