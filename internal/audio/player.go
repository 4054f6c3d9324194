// Package audio renders ringtones and fallback tones through the
// system sound server.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"time"

	"github.com/jfreymuth/pulse"
)

const toneSampleRate = 16000

// toneVolume keeps synthesized tones well below full scale.
const toneVolume = 0.18

// Player plays ringtone sources through an external playback command
// and synthesizes tones directly against the Pulse server.
type Player struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewPlayer picks the playback command. An explicit command wins;
// otherwise pw-play, then paplay, is probed on PATH. With neither
// present, ringtone playback fails and callers fall back to tones.
func NewPlayer(command string) *Player {
	p := &Player{logger: slog.Default()}
	if command != "" {
		p.command = command
		return p
	}
	for _, candidate := range []string{"pw-play", "paplay"} {
		if path, err := exec.LookPath(candidate); err == nil {
			p.command = path
			if candidate == "pw-play" {
				p.args = []string{"--media-role", "Notification"}
			}
			break
		}
	}
	return p
}

// Play renders one ringtone source, blocking until playback finishes
// or ctx expires.
func (p *Player) Play(ctx context.Context, source string) error {
	if p.command == "" {
		return fmt.Errorf("no playback command available")
	}
	args := append(append([]string(nil), p.args...), source)
	if err := exec.CommandContext(ctx, p.command, args...).Run(); err != nil {
		return fmt.Errorf("playing %q: %w", source, err)
	}
	return nil
}

// SynthesizeTone plays a plain sine tone. Failures degrade to a logged
// no-op; the tone is already the last resort.
func (p *Player) SynthesizeTone(freqHz float64, dur time.Duration) {
	samples := synthesize(freqHz, dur)
	if len(samples) == 0 {
		return
	}
	if err := playSamples(samples); err != nil {
		p.logger.Warn("fallback tone unavailable", "error", err)
	}
}

func playSamples(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("nudge"),
		pulse.ClientApplicationIconName("appointment-soon"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(toneSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("nudge alert tone"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play tone stream: %w", err)
	}
	return nil
}

// synthesize produces mono s16 PCM for a sine tone with a short
// attack/release ramp so playback does not click.
func synthesize(freqHz float64, dur time.Duration) []int16 {
	n := samplesForDuration(dur)
	if n <= 0 || freqHz <= 0 {
		return nil
	}

	attackRelease := n / 10
	maxRamp := toneSampleRate / 200 // 5ms
	if attackRelease > maxRamp {
		attackRelease = maxRamp
	}
	if attackRelease < 1 {
		attackRelease = 1
	}

	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		envelope := 1.0
		if i < attackRelease {
			envelope = float64(i) / float64(attackRelease)
		}
		releaseIndex := n - i - 1
		if releaseIndex < attackRelease {
			release := float64(releaseIndex) / float64(attackRelease)
			if release < envelope {
				envelope = release
			}
		}
		t := float64(i) / toneSampleRate
		sample := math.Sin(2 * math.Pi * freqHz * t)
		pcm[i] = int16(math.Round(sample * toneVolume * envelope * 32767))
	}

	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * toneSampleRate))
}
