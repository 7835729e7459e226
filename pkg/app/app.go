// Package app wires the command line, logger, parser, sequencer and
// synthesizer into the bansuri application.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/deereeco/bansuri/pkg/audio"
	"github.com/deereeco/bansuri/pkg/bansuri"
	"github.com/deereeco/bansuri/pkg/cli"
	"github.com/deereeco/bansuri/pkg/fileutil"
	"github.com/deereeco/bansuri/pkg/logger"
	"github.com/deereeco/bansuri/pkg/music"
	"github.com/deereeco/bansuri/pkg/sequencer"
	"github.com/deereeco/bansuri/pkg/smf"
)

// pollInterval is how often playback completion is checked.
const pollInterval = 50 * time.Millisecond

// Application holds the state shared by all modes.
type Application struct {
	config *cli.Config
	log    *slog.Logger
	sa     uint8
}

// New creates an Application.
func New() *Application {
	return &Application{}
}

// Run parses args and executes the selected mode.
func (app *Application) Run(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	app.sa, err = music.ParseNote(config.Key, music.DefaultSa)
	if err != nil {
		return fmt.Errorf("invalid -key: %w", err)
	}
	app.log.Info("Application started", "mode", config.Mode, "sa", music.KeyName(app.sa))

	switch config.Mode {
	case cli.ModeChart:
		return app.runChart()
	case cli.ModePlay:
		return app.runPlay()
	case cli.ModeListen:
		return app.runListen()
	case cli.ModeExport:
		return app.runExport()
	default:
		return fmt.Errorf("unknown mode: %s", config.Mode)
	}
}

// loadNotes reads, parses and assembles the MIDI file named on the command
// line.
func (app *Application) loadNotes() (*smf.File, []smf.Note, error) {
	if app.config.Path == "" {
		return nil, nil, fmt.Errorf("no MIDI file given (see --help)")
	}
	path, err := fileutil.ResolvePath(app.config.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("MIDI file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}

	file, err := smf.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	notes := smf.AssembleNotes(file)
	app.log.Info("MIDI file loaded",
		"path", path,
		"format", file.Format,
		"tracks", file.TrackCount,
		"division", file.Division,
		"notes", len(notes))
	return file, notes, nil
}

func (app *Application) runChart() error {
	_, notes, err := app.loadNotes()
	if err != nil {
		return err
	}
	fmt.Print(bansuri.Chart(notes, app.sa))
	return nil
}

func (app *Application) runPlay() error {
	_, notes, err := app.loadNotes()
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		app.log.Warn("MIDI file contains no notes")
		return nil
	}

	player := sequencer.NewPlayer(notes)
	player.SetTempoMultiplier(app.config.Tempo)

	if app.config.SoundFont != "" {
		soundFontPath, err := fileutil.ResolvePath(app.config.SoundFont)
		if err != nil {
			return fmt.Errorf("SoundFont not found: %w", err)
		}
		synth, err := audio.NewSynth(soundFontPath, nil)
		if err != nil {
			return err
		}
		defer synth.Close()
		synth.SetMuted(app.config.Headless)
		player.SetPlayNote(synth.PlayNote)
	} else if !app.config.Headless {
		return audio.ErrNoSoundFont
	}

	unsubscribe := player.OnNoteChange(func(index int, note smf.Note) {
		name, octave := music.SargamName(note.Key, app.sa)
		fingering := "out of range"
		if f, ok := bansuri.Lookup(note.Key, app.sa); ok {
			fingering = f.String()
		}
		app.log.Info("note",
			"index", index,
			"key", music.KeyName(note.Key),
			"sargam", name,
			"octave", octave,
			"fingering", fingering)
	})
	defer unsubscribe()

	player.Play()
	app.log.Info("Playback started", "notes", len(notes), "tempo", app.config.Tempo)

	deadline := time.Time{}
	if app.config.Timeout > 0 {
		deadline = time.Now().Add(app.config.Timeout)
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !player.IsPlaying() {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			app.log.Info("Timeout reached, stopping playback")
			player.Stop()
			break
		}
	}

	app.log.Info("Playback finished")
	return nil
}

func (app *Application) runExport() error {
	_, notes, err := app.loadNotes()
	if err != nil {
		return err
	}
	if app.config.Transpose != 0 {
		notes = smf.Transpose(notes, app.config.Transpose)
		app.log.Info("Transposed", "semitones", app.config.Transpose, "notes", len(notes))
	}

	out, err := os.Create(app.config.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := smf.WriteNotes(out, notes); err != nil {
		return err
	}
	app.log.Info("Exported", "path", app.config.Output, "notes", len(notes))
	return nil
}

// waitForInterrupt blocks until SIGINT or, when a timeout is configured,
// until it elapses.
func (app *Application) waitForInterrupt() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	if app.config.Timeout > 0 {
		select {
		case <-interrupt:
		case <-time.After(app.config.Timeout):
			app.log.Info("Timeout reached")
		}
		return
	}
	<-interrupt
}
