package remote

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-studio/codec"
)

// AnalysisPrompt is sent with every clip passed to Analyze.
const AnalysisPrompt = "Analyze this voice clip. Provide details on speaker age, gender, accent, and clarity."

// VoiceName maps a studio voice to a prebuilt service voice.
func VoiceName(voice string) string {
	if voice == "Adam" {
		return "Kore"
	}
	return "Puck"
}

// SpeechPrompt wraps text with a delivery instruction. An empty mood reads
// as neutral.
func SpeechPrompt(text, mood string) string {
	if strings.TrimSpace(mood) == "" {
		mood = "neutral"
	}
	return fmt.Sprintf("Say this in a %s tone: %s", mood, text)
}

// Synthesize renders text as speech in the given studio voice and mood.
func (c *Client) Synthesize(ctx context.Context, text, voice, mood string) (codec.Payload, error) {
	if strings.TrimSpace(text) == "" {
		return codec.Payload{}, fmt.Errorf("remote: synthesize: empty text")
	}
	req := &generateRequest{
		Contents: []content{{Parts: []part{{Text: SpeechPrompt(text, mood)}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoice{VoiceName: VoiceName(voice)},
			}},
		},
	}

	resp, err := c.generate(ctx, "synthesize", c.speechModel, req)
	if err != nil {
		return codec.Payload{}, err
	}
	audio := resp.firstAudio()
	if audio == nil {
		return codec.Payload{}, ErrNoAudio
	}
	c.log.Info("speech synthesized",
		zap.String("voice", voice), zap.String("mood", mood), zap.Int("bytes", len(audio.Data)))
	return codec.Payload{MIMEType: audio.MIMEType, Data: audio.Data}, nil
}

// Analyze asks for a description of the speaker in p.
func (c *Client) Analyze(ctx context.Context, p codec.Payload) (string, error) {
	if p.Empty() {
		return "", fmt.Errorf("remote: analyze: %w", codec.ErrEmpty)
	}
	mime := p.MIMEType
	if mime == "" {
		mime = "audio/mp3"
	}
	req := &generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MIMEType: mime, Data: p.Data}},
			{Text: AnalysisPrompt},
		}}},
	}

	resp, err := c.generate(ctx, "analyze", c.analysisModel, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.text())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Clean returns a cleaned copy of p. The service has no cleaning model yet,
// so the audio comes back unchanged.
func (c *Client) Clean(_ context.Context, p codec.Payload) (codec.Payload, error) {
	c.log.Debug("clean requested", zap.Int("bytes", len(p.Data)))
	return codec.Payload{MIMEType: p.MIMEType, Data: append([]byte(nil), p.Data...)}, nil
}
