// Package audio renders notes through a SoundFont software synthesizer and
// the Ebitengine audio pipeline. It is the playback collaborator of the
// sequencer: one PlayNote call per fired note.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SampleRate is the audio sample rate used for synthesis.
const SampleRate = 44100

// NoteVelocity is the fixed velocity used for triggered notes.
const NoteVelocity = 100

var (
	// ErrNoSoundFont is returned when no SoundFont path is provided.
	ErrNoSoundFont = errors.New("SoundFont file is required for audio playback")
	// ErrSoundFontNotFound is returned when the SoundFont file cannot be read.
	ErrSoundFontNotFound = errors.New("SoundFont file not found")
)

// synthStream implements io.Reader for the Ebitengine audio player by
// rendering samples from the synthesizer. The mutex serializes rendering
// against note triggers, which arrive on sequencer timer goroutines.
type synthStream struct {
	synth *meltysynth.Synthesizer
	mu    sync.Mutex
}

func (s *synthStream) Read(p []byte) (int, error) {
	samples := len(p) / 4 // 16-bit stereo
	if samples == 0 {
		return 0, nil
	}

	left := make([]float32, samples)
	right := make([]float32, samples)

	s.mu.Lock()
	s.synth.Render(left, right)
	s.mu.Unlock()

	for i := 0; i < samples; i++ {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return len(p), nil
}

func (s *synthStream) noteOn(key uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.NoteOn(0, int32(key), NoteVelocity)
}

func (s *synthStream) noteOff(key uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.NoteOff(0, int32(key))
}

func (s *synthStream) allNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synth.NoteOffAll(false)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Synth triggers individual notes on a SoundFont synthesizer.
type Synth struct {
	stream *synthStream
	player *audio.Player
	mu     sync.Mutex
}

// NewSynth loads the SoundFont and starts a continuously rendering audio
// player. ctx may be nil, in which case a context is created; Ebitengine
// allows only one audio context per process, so callers embedding this in a
// larger program should pass theirs in.
func NewSynth(soundFontPath string, ctx *audio.Context) (*Synth, error) {
	if soundFontPath == "" {
		return nil, ErrNoSoundFont
	}

	data, err := os.ReadFile(soundFontPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, soundFontPath)
		}
		return nil, fmt.Errorf("failed to read SoundFont file: %w", err)
	}

	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}

	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}

	stream := &synthStream{synth: synth}
	player, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	player.Play()

	return &Synth{stream: stream, player: player}, nil
}

// PlayNote starts the given key now and releases it after the duration.
func (s *Synth) PlayNote(key uint8, durationSeconds float64) {
	s.stream.noteOn(key)
	time.AfterFunc(time.Duration(durationSeconds*float64(time.Second)), func() {
		s.stream.noteOff(key)
	})
}

// StopAll releases every sounding note.
func (s *Synth) StopAll() {
	s.stream.allNotesOff()
}

// SetMuted silences or restores the audio output without stopping
// rendering, so timing-sensitive callers behave identically when muted.
func (s *Synth) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if muted {
		s.player.SetVolume(0)
	} else {
		s.player.SetVolume(1)
	}
}

// Close stops playback and releases the audio player.
func (s *Synth) Close() error {
	s.stream.allNotesOff()
	return s.player.Close()
}
