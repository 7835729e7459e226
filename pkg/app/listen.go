package app

import (
	"fmt"

	"github.com/deereeco/bansuri/pkg/bansuri"
	"github.com/deereeco/bansuri/pkg/music"

	midi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver
)

// runListen follows the first connected MIDI input port and logs the
// fingering for every key pressed, until interrupted or the timeout
// elapses.
func (app *Application) runListen() error {
	defer midi.CloseDriver()

	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return fmt.Errorf("no MIDI input ports available")
	}
	in := ins[0]
	app.log.Info("Listening", "port", in.String(), "sa", music.KeyName(app.sa))

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var channel, key, velocity uint8
		if !msg.GetNoteOn(&channel, &key, &velocity) || velocity == 0 {
			return
		}
		name, octave := music.SargamName(key, app.sa)
		fingering := "out of range"
		if f, ok := bansuri.Lookup(key, app.sa); ok {
			fingering = f.String()
		}
		app.log.Info("note",
			"key", music.KeyName(key),
			"sargam", name,
			"octave", octave,
			"fingering", fingering)
	})
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", in.String(), err)
	}
	defer stop()

	app.waitForInterrupt()
	return nil
}
