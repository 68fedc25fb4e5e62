package main

import (
	"errors"
	"fmt"
)

var (
	ErrKeyCount     = errors.New("number of keys and notes differ")
	ErrUnknownNote  = errors.New("note has no frequency")
	ErrDuplicateKey = errors.New("key mapped twice")
)

// Keymap resolves key bytes to frequencies. It is immutable once built.
type Keymap struct {
	freq   [256]float64
	mapped [256]bool
	notes  [256]string
}

// NewKeymap pairs keys[i] with notes[i] and resolves every note through
// freqs, so an inconsistent table fails here and never while playing.
func NewKeymap(keys string, notes []string, freqs map[string]float64) (*Keymap, error) {
	if len(keys) != len(notes) {
		return nil, fmt.Errorf("%w: %d keys, %d notes", ErrKeyCount, len(keys), len(notes))
	}
	var k Keymap
	for i := 0; i < len(keys); i++ {
		key, note := keys[i], notes[i]
		if k.mapped[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		f, ok := freqs[note]
		if !ok {
			return nil, fmt.Errorf("%w: key %q maps to %q", ErrUnknownNote, key, note)
		}
		if !validFrequency(f) {
			return nil, fmt.Errorf("%w: note %q is %v", ErrFrequency, note, f)
		}
		k.freq[key] = f
		k.notes[key] = note
		k.mapped[key] = true
	}
	return &k, nil
}

// Resolve returns the frequency for key. Unmapped keys report false.
func (k *Keymap) Resolve(key byte) (float64, bool) {
	return k.freq[key], k.mapped[key]
}

func (k *Keymap) Note(key byte) string {
	return k.notes[key]
}

func (k *Keymap) Len() int {
	n := 0
	for _, m := range k.mapped {
		if m {
			n++
		}
	}
	return n
}

// Mapping is what the input side needs to turn a key into a retarget.
// Snapshots are swapped whole on config reload.
type Mapping struct {
	Keymap *Keymap
	Glide  Glide
}

// Retarget resolves key into a message, false when the key plays nothing.
func (m *Mapping) Retarget(key byte) (Retarget, bool) {
	f, ok := m.Keymap.Resolve(key)
	if !ok {
		return Retarget{}, false
	}
	return Retarget{Frequency: f, Glide: m.Glide}, true
}
