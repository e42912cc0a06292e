package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/capture"
	"github.com/cwbudde/algo-studio/codec"
	"github.com/cwbudde/algo-studio/dsp/analyser"
	"github.com/cwbudde/algo-studio/dsp/core"
	"github.com/cwbudde/algo-studio/graph"
	"github.com/cwbudde/algo-studio/playback"
	"github.com/cwbudde/algo-studio/remote"
)

type engineOptions struct {
	output  bool
	capture bool
}

// newEngine builds the audio graph from cfg. Without an output device the
// graph is only rendered on demand.
func newEngine(o engineOptions) (*graph.Manager, error) {
	ffmpeg := &codec.FFmpeg{Path: cfg.Capture.FFmpegPath, SampleRate: int(cfg.Audio.SampleRate)}
	opts := []graph.Option{
		graph.WithProcessor(
			core.WithSampleRate(cfg.Audio.SampleRate),
			core.WithBlockSize(cfg.Audio.BlockSize),
		),
		graph.WithTimeConstant(cfg.Audio.TimeConstant),
		graph.WithMasterGain(cfg.Audio.MasterGain),
		graph.WithAnalyser(analyser.WithFFTSize(cfg.Audio.FFTSize)),
		graph.WithLogger(log),
		graph.WithMetrics(mtr),
		graph.WithDecoder(codec.NewDecoder(codec.WithFFmpeg(ffmpeg), codec.WithLogger(log))),
	}
	if o.output {
		out := playback.New(
			playback.WithBackend(playback.OtoBackend{BufferSize: cfg.Audio.OutputBuffer}),
			playback.WithLogger(log),
		)
		opts = append(opts, graph.WithSink(out))
	}
	if o.capture {
		dev := &capture.FFmpegDevice{
			Path:       cfg.Capture.FFmpegPath,
			Format:     cfg.Capture.Format,
			Input:      cfg.Capture.Device,
			SampleRate: cfg.Capture.SampleRate,
			Channels:   cfg.Capture.Channels,
		}
		opts = append(opts, graph.WithRecorder(
			capture.NewRecorder(dev, capture.WithLogger(log), capture.WithMetrics(mtr)),
		))
	}

	m, err := graph.New(opts...)
	if err != nil {
		if !o.output {
			return nil, err
		}
		log.Warn("audio output unavailable, continuing without sound", zap.Error(err))
		return graph.Disabled(), nil
	}
	return m, nil
}

func newRemote() (*remote.Client, error) {
	if !cfg.HasRemote() {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	g := cfg.Gemini
	return remote.New(g.APIKey,
		remote.WithBaseURL(g.BaseURL),
		remote.WithHTTPClient(&http.Client{Timeout: g.Timeout}),
		remote.WithModels(g.SpeechModel, g.AnalysisModel),
		remote.WithRateLimit(g.RequestsPerMinute),
		remote.WithRetry(g.MaxRetries, g.RetryBackoff),
		remote.WithLogger(log),
		remote.WithMetrics(mtr),
	)
}
