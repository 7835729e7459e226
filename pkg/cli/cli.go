// Package cli parses command line arguments into a Config.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Modes of operation.
const (
	ModeChart  = "chart"  // print a fingering chart for a MIDI file
	ModePlay   = "play"   // play a MIDI file through the synthesizer
	ModeListen = "listen" // follow a live MIDI input port
	ModeExport = "export" // write a transposed copy of a MIDI file
)

// Config holds the settings parsed from command line arguments.
type Config struct {
	Path      string        // path to the MIDI file (positional)
	Mode      string        // one of the Mode constants
	SoundFont string        // path to the SoundFont (.sf2) file
	Key       string        // the note that sounds as Sa (free text)
	Tempo     float64       // tempo multiplier for playback
	Transpose int           // semitone shift for export mode
	Output    string        // output path for export mode
	Timeout   time.Duration // run time limit (0 means unlimited)
	LogLevel  string        // debug, info, warn, error
	Headless  bool          // mute audio output
	ShowHelp  bool
}

// ParseArgs parses command line arguments and returns a Config. Flags may
// appear before or after the positional MIDI file path; some settings fall
// back to environment variables when the flag is absent.
func ParseArgs(args []string) (*Config, error) {
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("bansuri", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.StringVar(&config.Mode, "mode", ModeChart, "operation mode (chart, play, listen, export)")
	fs.StringVar(&config.Mode, "m", ModeChart, "operation mode (short form)")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFont (.sf2) file for playback")
	fs.StringVar(&config.SoundFont, "s", "", "SoundFont file (short form)")
	fs.StringVar(&config.Key, "key", "C5", "note that sounds as Sa")
	fs.StringVar(&config.Key, "k", "C5", "note that sounds as Sa (short form)")
	fs.Float64Var(&config.Tempo, "tempo", 1.0, "tempo multiplier for playback")
	fs.IntVar(&config.Transpose, "transpose", 0, "semitone shift for export mode")
	fs.StringVar(&config.Output, "out", "out.mid", "output path for export mode")
	fs.StringVar(&config.Output, "o", "out.mid", "output path (short form)")
	fs.IntVar(&timeoutSec, "timeout", 0, "run time limit in seconds")
	fs.IntVar(&timeoutSec, "t", 0, "run time limit in seconds (short form)")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (short form)")
	fs.BoolVar(&config.Headless, "headless", false, "mute audio output")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (short form)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment variables fill in unset flags; flags take precedence.
	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("BANSURI_SOUNDFONT")
	}
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if config.Tempo <= 0 {
		return nil, fmt.Errorf("tempo multiplier must be positive, got %g", config.Tempo)
	}

	validModes := map[string]bool{
		ModeChart:  true,
		ModePlay:   true,
		ModeListen: true,
		ModeExport: true,
	}
	if !validModes[config.Mode] {
		return nil, fmt.Errorf("invalid mode: %s (must be chart, play, listen, or export)", config.Mode)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if fs.NArg() > 0 {
		config.Path = fs.Arg(0)
	}

	return config, nil
}

// boolFlags are flags that never take a value, used by reorderArgs to tell
// "-flag value" apart from "-flag positional".
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"--headless": true, "-headless": true,
}

// reorderArgs moves flags in front of positional arguments so that
// "bansuri song.mid --mode play" parses the same as
// "bansuri --mode play song.mid".
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// A value-taking flag consumes the next argument too.
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if !boolFlags[arg] && !strings.Contains(arg, "=") {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp writes the usage message to stdout.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `bansuri - MIDI fingering trainer for the Indian bamboo flute

Usage:
  bansuri [options] [midi-file]

Arguments:
  midi-file     Standard MIDI File to chart, play or export
                (not used in listen mode)

Options:
  -m, --mode <mode>          chart, play, listen or export (default: chart)
  -s, --soundfont <file>     SoundFont (.sf2) for play mode
  -k, --key <note>           note that sounds as Sa (default: C5)
      --tempo <multiplier>   playback speed, e.g. 0.5 for half speed
      --transpose <n>        semitone shift for export mode
  -o, --out <file>           output path for export mode (default: out.mid)
  -t, --timeout <seconds>    stop after the given number of seconds
  -l, --log-level <level>    log level: debug, info, warn, error (default: info)
      --headless             mute audio output
  -h, --help                 show this help

Environment Variables:
  BANSURI_SOUNDFONT=<file>   default SoundFont path
  HEADLESS=1                 mute audio output
  TIMEOUT=<seconds>          run time limit
  LOG_LEVEL=<level>          log level

Examples:
  bansuri raag.mid                          print the fingering chart
  bansuri -m play -s font.sf2 raag.mid      play through the synthesizer
  bansuri -m play --tempo 0.5 raag.mid      practice at half speed
  bansuri -m listen -k D5                   follow a connected MIDI keyboard
  bansuri -m export --transpose 2 raag.mid  write a transposed copy
`)
}
