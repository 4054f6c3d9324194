// Package notify turns a due reminder into something the user can hear
// and see: a ringtone played through the sound backend, with a
// synthesized fallback tone when playback is unavailable.
package notify

import (
	"context"
	"log/slog"
	"time"
)

const (
	// playCount is how many times the ringtone repeats per alert.
	playCount = 3
	// playSpacing separates consecutive repeats.
	playSpacing = 500 * time.Millisecond
	// playTimeout bounds a single playback attempt.
	playTimeout = 5 * time.Second
)

// SoundPlayer is the audio backend behind the dispatcher.
type SoundPlayer interface {
	// Play renders the ringtone at source, blocking until done or ctx
	// expires.
	Play(ctx context.Context, source string) error
	// SynthesizeTone plays a plain generated tone. It is the fallback
	// path and must not fail; backends degrade to a no-op.
	SynthesizeTone(freqHz float64, dur time.Duration)
}

// RingtoneResolver maps ringtone keys to playable sources and picks
// the default key for a channel.
type RingtoneResolver interface {
	Resolve(key string) (string, bool)
	DefaultFor(channel string) string
}

// Dispatcher plays reminder alerts. Playback failures never propagate:
// an alert that cannot be heard as a ringtone is heard as a tone.
type Dispatcher struct {
	player    SoundPlayer
	ringtones RingtoneResolver
	gate      *InteractionGate
	logger    *slog.Logger
	spacing   time.Duration
	timeout   time.Duration
}

// New creates a Dispatcher. gate may be nil, in which case dispatches
// run unconditionally.
func New(player SoundPlayer, ringtones RingtoneResolver, gate *InteractionGate) *Dispatcher {
	return &Dispatcher{
		player:    player,
		ringtones: ringtones,
		gate:      gate,
		logger:    slog.Default(),
		spacing:   playSpacing,
		timeout:   playTimeout,
	}
}

// Dispatch plays the alert for one due reminder. An unset or unknown
// ringtone key falls back to the channel's default. If the sound
// backend is gated, the alert is parked until the gate unlocks.
func (d *Dispatcher) Dispatch(channel, ringtone string) {
	run := func() { d.play(channel, ringtone) }
	if d.gate != nil && !d.gate.Run(run) {
		d.logger.Info("alert sound parked until audio is unlocked", "channel", channel)
	}
}

func (d *Dispatcher) play(channel, ringtone string) {
	key := ringtone
	source, ok := d.ringtones.Resolve(key)
	if !ok {
		key = d.ringtones.DefaultFor(channel)
		source, ok = d.ringtones.Resolve(key)
	}
	if !ok {
		d.logger.Warn("no ringtone available, falling back to tone", "channel", channel)
		d.fallback(channel)
		return
	}

	for i := 0; i < playCount; i++ {
		if i > 0 {
			time.Sleep(d.spacing)
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.player.Play(ctx, source)
		cancel()
		if err != nil {
			d.logger.Warn("ringtone playback failed", "ringtone", key, "error", err)
			d.fallback(channel)
			return
		}
	}
}

// fallback plays a one second generated tone, pitched by channel so an
// alarm still sounds different from a call.
func (d *Dispatcher) fallback(channel string) {
	d.player.SynthesizeTone(fallbackFreq(channel), time.Second)
}

func fallbackFreq(channel string) float64 {
	switch channel {
	case "alarm":
		return 880
	case "ring":
		return 660
	default:
		return 440
	}
}
