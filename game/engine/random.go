package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// RandomSource supplies dice rolls and narrative picks
type RandomSource interface {
	RollDie() int
	Pick(options []string) string
}

type seededRandom struct {
	rng *rand.Rand
}

// NewRandomSource returns a source seeded for reproducible games
func NewRandomSource(seed int64) RandomSource {
	return &seededRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *seededRandom) RollDie() int {
	return r.rng.Intn(DieFaces) + 1
}

func (r *seededRandom) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[r.rng.Intn(len(options))]
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ScriptedRandom replays fixed rolls and pick indexes, cycling when exhausted
type ScriptedRandom struct {
	Rolls []int
	Picks []int

	roll, pick int
}

// NewScriptedRandom returns a source that rolls the given values in order
func NewScriptedRandom(rolls ...int) *ScriptedRandom {
	return &ScriptedRandom{Rolls: rolls}
}

// RollDie returns the next scripted roll, or 1 when none are scripted
func (s *ScriptedRandom) RollDie() int {
	if len(s.Rolls) == 0 {
		return 1
	}
	v := s.Rolls[s.roll%len(s.Rolls)]
	s.roll++
	return v
}

// Pick returns the option at the next scripted index
func (s *ScriptedRandom) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	idx := 0
	if len(s.Picks) > 0 {
		idx = s.Picks[s.pick%len(s.Picks)]
		s.pick++
	}
	return options[((idx%len(options))+len(options))%len(options)]
}
