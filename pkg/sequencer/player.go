package sequencer

import (
	"sync"
	"time"

	"github.com/deereeco/bansuri/pkg/smf"
)

// State is the playback state of a Player.
type State int

const (
	// Stopped is the initial state: index 0, no scheduled callbacks.
	Stopped State = iota
	// Playing has one callback outstanding per remaining note.
	Playing
	// Paused has no outstanding callbacks but preserves the playback offset.
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// NoteFunc is the audio side channel invoked once per fired note. The
// duration is in seconds, already scaled by the tempo multiplier.
type NoteFunc func(key uint8, durationSeconds float64)

// NoteObserver is notified when the current note changes.
type NoteObserver func(index int, note smf.Note)

// Player schedules callback-driven playback over an assembled note list.
//
// All mutable state (index, offset, timers) is guarded by one mutex so the
// player is safe for concurrent callers; the scheduled callbacks themselves
// re-check the state and a generation counter when they fire, which resolves
// the benign race where a callback fires just as it is being cancelled.
type Player struct {
	mu    sync.Mutex
	notes []smf.Note
	clock Clock
	sched Scheduler

	state      State
	current    int     // index of the note most recently fired
	next       int     // index of the next note to schedule
	offset     float64 // logical playback position in note-time ms
	anchor     time.Time
	multiplier float64
	timers     []Timer
	gen        uint64 // incremented by every (re)scheduling

	playNote  NoteFunc
	observers map[int]NoteObserver
	nextObsID int
}

// NewPlayer creates a player over notes using the system clock and
// time.AfterFunc scheduling.
func NewPlayer(notes []smf.Note) *Player {
	return NewPlayerWith(notes, SystemClock{}, SystemScheduler{})
}

// NewPlayerWith creates a player with an explicit clock and scheduler.
// Tests use this to drive time manually.
func NewPlayerWith(notes []smf.Note, clock Clock, sched Scheduler) *Player {
	return &Player{
		notes:      notes,
		clock:      clock,
		sched:      sched,
		multiplier: 1.0,
		observers:  make(map[int]NoteObserver),
	}
}

// SetPlayNote installs the audio collaborator called once per fired note.
func (p *Player) SetPlayNote(f NoteFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playNote = f
}

// OnNoteChange registers an observer for note-change notifications and
// returns a function that unsubscribes it.
func (p *Player) OnNoteChange(f NoteObserver) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextObsID
	p.nextObsID++
	p.observers[id] = f
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

// Play starts playback from the stopped state or resumes from pause.
// Calling Play while already playing is a no-op.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Playing || len(p.notes) == 0 {
		return
	}
	if p.state == Stopped {
		// Fresh start: anchor logical time at the current note's start so
		// any leading silence in the file is skipped.
		p.offset = p.notes[p.next].Start
	}
	p.state = Playing
	p.anchor = p.clock.Now()
	p.scheduleLocked()
}

// Pause cancels all outstanding callbacks and folds the wall time elapsed
// since the last anchor into the preserved logical offset, so a following
// Play resumes exactly where playback left off.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Playing {
		return
	}
	p.cancelTimersLocked()
	elapsed := p.clock.Now().Sub(p.anchor)
	p.offset += elapsed.Seconds() * 1000.0 * p.multiplier
	p.state = Paused
}

// Stop cancels all outstanding callbacks and resets index and offset.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// SetTempoMultiplier changes the playback rate. While playing, in-flight
// schedules are recomputed at the new rate by an internal pause/resume;
// playback restarts from the next note boundary, never mid-note.
// Non-positive multipliers are ignored.
func (p *Player) SetTempoMultiplier(x float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if x <= 0 {
		return
	}
	if p.state != Playing {
		p.multiplier = x
		return
	}
	p.cancelTimersLocked()
	elapsed := p.clock.Now().Sub(p.anchor)
	p.offset += elapsed.Seconds() * 1000.0 * p.multiplier
	p.multiplier = x
	p.anchor = p.clock.Now()
	p.scheduleLocked()
}

// IsPlaying reports whether the player is in the playing state.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == Playing
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentIndex returns the index of the note most recently fired (or the
// next note to play when nothing has fired since the last start).
func (p *Player) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// TempoMultiplier returns the current playback rate.
func (p *Player) TempoMultiplier() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.multiplier
}

// scheduleLocked schedules one callback per remaining note at real-time
// delay (start - offset) / multiplier. Must be called with the lock held
// and no timers outstanding.
func (p *Player) scheduleLocked() {
	p.gen++
	gen := p.gen
	if p.next >= len(p.notes) {
		// Resumed or rescheduled during the final note's tail: only the
		// finish remains.
		last := p.notes[len(p.notes)-1]
		remaining := (last.Start + last.Duration - p.offset) / p.multiplier
		if remaining < 0 {
			remaining = 0
		}
		t := p.sched.AfterFunc(time.Duration(remaining*float64(time.Millisecond)), func() {
			p.finish(gen)
		})
		p.timers = append(p.timers, t)
		return
	}
	for i := p.next; i < len(p.notes); i++ {
		delayMillis := (p.notes[i].Start - p.offset) / p.multiplier
		if delayMillis < 0 {
			delayMillis = 0
		}
		index := i
		t := p.sched.AfterFunc(time.Duration(delayMillis*float64(time.Millisecond)), func() {
			p.fireNote(gen, index)
		})
		p.timers = append(p.timers, t)
	}
}

// fireNote runs when a note's scheduled delay elapses. A callback from a
// superseded schedule, or one that fires after pause/stop won the race,
// returns without effect.
func (p *Player) fireNote(gen uint64, index int) {
	p.mu.Lock()
	if p.state != Playing || gen != p.gen {
		p.mu.Unlock()
		return
	}

	p.current = index
	p.next = index + 1
	note := p.notes[index]
	multiplier := p.multiplier
	playNote := p.playNote
	observers := make([]NoteObserver, 0, len(p.observers))
	for _, f := range p.observers {
		observers = append(observers, f)
	}

	if index == len(p.notes)-1 {
		// After the last note rings out, return to the stopped state.
		endDelay := time.Duration(note.Duration / multiplier * float64(time.Millisecond))
		t := p.sched.AfterFunc(endDelay, func() {
			p.finish(gen)
		})
		p.timers = append(p.timers, t)
	}
	p.mu.Unlock()

	for _, f := range observers {
		f(index, note)
	}
	if playNote != nil {
		playNote(note.Key, note.Duration/1000.0/multiplier)
	}
}

func (p *Player) finish(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || gen != p.gen {
		return
	}
	p.stopLocked()
}

func (p *Player) stopLocked() {
	p.cancelTimersLocked()
	p.state = Stopped
	p.current = 0
	p.next = 0
	p.offset = 0
}

func (p *Player) cancelTimersLocked() {
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}
