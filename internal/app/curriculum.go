package app

import (
	"context"
	"fmt"
	"sync"
)

// StaticCurriculum serves exercises from a built-in bank, rotating
// per student so consecutive turns get fresh material.
type StaticCurriculum struct {
	mu     sync.Mutex
	cursor map[string]int
	bank   []Exercise
}

// defaultBank covers the phonemes young learners most often struggle
// with. Symbols are IPA.
var defaultBank = []Exercise{
	{Prompt: "Say: cat", Phonemes: []string{"k", "æ", "t"}, Topic: "animals"},
	{Prompt: "Say: think", Phonemes: []string{"θ", "ɪ", "ŋ", "k"}, Topic: "thinking words"},
	{Prompt: "Say: this", Phonemes: []string{"ð", "ɪ", "s"}, Topic: "thinking words"},
	{Prompt: "Say: red", Phonemes: []string{"r", "ɛ", "d"}, Topic: "colors"},
	{Prompt: "Say: very", Phonemes: []string{"v", "ɛ", "r", "i"}, Topic: "describing"},
	{Prompt: "Say: water", Phonemes: []string{"w", "ɔ", "t", "ə", "r"}, Topic: "nature"},
	{Prompt: "Say: ship", Phonemes: []string{"ʃ", "ɪ", "p"}, Topic: "travel"},
	{Prompt: "Say: measure", Phonemes: []string{"m", "ɛ", "ʒ", "ə", "r"}, Topic: "actions"},
	{Prompt: "Say: chair", Phonemes: []string{"tʃ", "ɛ", "r"}, Topic: "home"},
	{Prompt: "Say: jump", Phonemes: []string{"dʒ", "ʌ", "m", "p"}, Topic: "actions"},
}

// NewStaticCurriculum creates a curriculum over the built-in bank, or
// over the provided exercises when any are given.
func NewStaticCurriculum(exercises ...Exercise) *StaticCurriculum {
	bank := defaultBank
	if len(exercises) > 0 {
		bank = exercises
	}
	return &StaticCurriculum{
		cursor: make(map[string]int),
		bank:   bank,
	}
}

// CurrentExercise returns the student's next exercise and advances
// their cursor.
func (c *StaticCurriculum) CurrentExercise(_ context.Context, studentID string) (Exercise, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.bank) == 0 {
		return Exercise{}, fmt.Errorf("curriculum has no exercises")
	}
	i := c.cursor[studentID] % len(c.bank)
	c.cursor[studentID] = i + 1
	return c.bank[i], nil
}
