package smf

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestVarLenRoundTrip checks that any value in the 28-bit range survives a
// variable-length encode/decode cycle.
func TestVarLenRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("encode then decode returns the value", prop.ForAll(
		func(value uint32) bool {
			encoded := encodeVarInt(value)
			decoded, n, err := readVarLen(encoded)
			if err != nil {
				return false
			}
			return decoded == value && n == len(encoded)
		},
		gen.UInt32Range(0, 0x0FFFFFFF),
	))

	properties.Property("encoding is at most four bytes", prop.ForAll(
		func(value uint32) bool {
			return len(encodeVarInt(value)) <= 4
		},
		gen.UInt32Range(0, 0x0FFFFFFF),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// toPairs reads a flat tick list as (gap, length) pairs, dropping an odd
// trailing element.
func toPairs(ticks []int) [][2]int {
	pairs := make([][2]int, 0, len(ticks)/2)
	for i := 0; i+1 < len(ticks); i += 2 {
		pairs = append(pairs, [2]int{ticks[i], ticks[i+1]})
	}
	return pairs
}

// buildNoteTrack turns gap/length tick pairs into a sequential track body of
// Note-On/Note-Off events.
func buildNoteTrack(pairs [][2]int) []byte {
	tr := &track{}
	key := uint8(60)
	for _, p := range pairs {
		tr.event(uint32(p[0]), 0x90, key, 0x40)
		tr.event(uint32(p[1]), 0x80, key, 0x00)
		key = 60 + (key-60+1)%12
	}
	return tr.endOfTrack()
}

// TestAssembledNotesInvariants checks the structural guarantees every
// assembled note list carries, for arbitrary sequential tracks.
func TestAssembledNotesInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genTicks := gen.SliceOf(gen.IntRange(0, 960))

	properties.Property("notes are sorted by start time", prop.ForAll(
		func(ticks []int) bool {
			notes := mustAssemble(t, toPairs(ticks))
			for i := 1; i < len(notes); i++ {
				if notes[i].Start < notes[i-1].Start {
					return false
				}
			}
			return true
		},
		genTicks,
	))

	properties.Property("every duration is at least the floor", prop.ForAll(
		func(ticks []int) bool {
			for _, n := range mustAssemble(t, toPairs(ticks)) {
				if n.Duration < MinNoteDurationMillis {
					return false
				}
			}
			return true
		},
		genTicks,
	))

	properties.Property("every on/off pair yields exactly one note", prop.ForAll(
		func(ticks []int) bool {
			pairs := toPairs(ticks)
			return len(mustAssemble(t, pairs)) == len(pairs)
		},
		genTicks,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func mustAssemble(t *testing.T, pairs [][2]int) []Note {
	t.Helper()
	file, err := Parse(buildSMF(480, buildNoteTrack(pairs)))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return AssembleNotes(file)
}

// TestTempoMapInversion checks that TickAt undoes TimeAt for arbitrary tempo
// maps, and that TimeAt never decreases as ticks grow.
func TestTempoMapInversion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genMap := gen.SliceOf(gen.IntRange(10000, 2000000)).Map(func(tempi []int) TempoMap {
		m := TempoMap{{Tick: 0, MicrosPerQuarter: DefaultMicrosPerQuarter}}
		tick := int64(0)
		for _, micros := range tempi {
			tick += 480
			m = append(m, TempoChange{Tick: tick, MicrosPerQuarter: micros})
		}
		return m
	})

	properties.Property("TickAt inverts TimeAt", prop.ForAll(
		func(m TempoMap, tick int64) bool {
			return m.TickAt(m.TimeAt(tick, 480), 480) == tick
		},
		genMap,
		gen.Int64Range(0, 100000),
	))

	properties.Property("TimeAt is monotonic", prop.ForAll(
		func(m TempoMap, a, b int64) bool {
			if a > b {
				a, b = b, a
			}
			return m.TimeAt(a, 480) <= m.TimeAt(b, 480)
		},
		genMap,
		gen.Int64Range(0, 100000),
		gen.Int64Range(0, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
