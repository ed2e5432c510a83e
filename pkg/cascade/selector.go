// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cascade

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// Mode is the state of a selector.
type Mode string

const (
	// ModeCascade is the normal mode: levels are being chosen.
	ModeCascade Mode = "cascade"

	// ModeResolved means a terminal record has been chosen.
	ModeResolved Mode = "resolved"

	// ModeManualEntry means the category has no records and the user types
	// the component in directly.
	ModeManualEntry Mode = "manual_entry"
)

// TerminalOption is one record offered at the terminal level.
type TerminalOption struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Resolution is the outcome of a completed cascade.
type Resolution struct {
	Record     catalog.Record `json:"record" yaml:"record"`
	InstanceID string         `json:"instanceId" yaml:"instanceId"`
}

// LevelState is the view of one level.
type LevelState struct {
	Label    string    `json:"label" yaml:"label"`
	Path     string    `json:"path" yaml:"path"`
	Kind     ValueKind `json:"kind" yaml:"kind"`
	Terminal bool      `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Options  []string  `json:"options" yaml:"options"`
	Selected string    `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// State is the serializable view of a selector.
type State struct {
	Category        catalog.Category `json:"category" yaml:"category"`
	Mode            Mode             `json:"mode" yaml:"mode"`
	Current         int              `json:"current" yaml:"current"`
	Levels          []LevelState     `json:"levels" yaml:"levels"`
	TerminalOptions []TerminalOption `json:"terminalOptions" yaml:"terminalOptions"`
	Resolution      *Resolution      `json:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// Selector narrows a category's records to one through the levels of a
// Definition. It is not safe for concurrent use; see Session.
type Selector struct {
	def     Definition
	records []catalog.Record

	selected []string
	options  [][]string
	terminal []catalog.Record

	resolution *Resolution
	newID      func() string
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithInstanceIDs replaces the instance id generator used by Resolve.
func WithInstanceIDs(gen func() string) SelectorOption {
	return func(s *Selector) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New builds a selector over records. With no records the selector is in
// manual entry mode and has no levels.
func New(def Definition, records []catalog.Record, opts ...SelectorOption) *Selector {
	s := &Selector{
		def:     def,
		records: records,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}

	n := def.choiceLevels()
	if len(records) == 0 {
		slog.Debug("cascade has no records, using manual entry", "category", def.Category)
		return s
	}

	s.selected = make([]string, n)
	s.options = make([][]string, n)
	if n == 0 {
		s.terminal = s.filter(0)
		return s
	}
	s.options[0] = s.optionsAt(0)
	return s
}

// Mode reports the current mode.
func (s *Selector) Mode() Mode {
	switch {
	case len(s.records) == 0:
		return ModeManualEntry
	case s.resolution != nil:
		return ModeResolved
	default:
		return ModeCascade
	}
}

// Current returns the index of the first level without a choice. It equals
// the number of choice levels once the terminal level is reached.
func (s *Selector) Current() int {
	for i, v := range s.selected {
		if v == "" {
			return i
		}
	}
	return len(s.selected)
}

// Select chooses value at level k. Levels after k are reset and the options
// of level k+1 are recomputed from the records consistent with levels 0..k.
// An invalid choice leaves the selector unchanged.
func (s *Selector) Select(k int, value string) error {
	if err := s.checkLevel(k); err != nil {
		return err
	}
	if k > s.Current() {
		return malformed(s.def.Category, k, value, "level %d chosen before level %d", k, s.Current())
	}

	level := s.def.Levels[k]
	idx := slices.IndexFunc(s.options[k], func(o string) bool {
		return sameValue(level.Kind, o, value)
	})
	if idx < 0 {
		return malformed(s.def.Category, k, value, "value %q is not an option of level %q", value, level.Label)
	}

	s.selected[k] = s.options[k][idx]
	s.reset(k + 1)

	if next := k + 1; next < len(s.selected) {
		s.options[next] = s.optionsAt(next)
	} else {
		s.terminal = s.filter(len(s.selected))
	}
	return nil
}

// Clear unselects level k and empties every downstream option set.
func (s *Selector) Clear(k int) error {
	if err := s.checkLevel(k); err != nil {
		return err
	}
	s.selected[k] = ""
	s.reset(k + 1)
	return nil
}

// Resolve picks the terminal record with the given id. Every choice level
// must be selected first.
func (s *Selector) Resolve(recordID string) (*Resolution, error) {
	if s.Mode() == ModeManualEntry {
		return nil, malformed(s.def.Category, -1, recordID, "category has no catalog records")
	}
	if s.Current() < len(s.selected) {
		return nil, malformed(s.def.Category, s.Current(), recordID, "level %d is not selected yet", s.Current())
	}
	for _, r := range s.terminal {
		if r.ID == recordID {
			s.resolution = &Resolution{Record: r, InstanceID: s.newID()}
			return s.resolution, nil
		}
	}
	return nil, malformed(s.def.Category, len(s.selected), recordID, "record %q is not a terminal option", recordID)
}

// State returns the view model of the selector.
func (s *Selector) State() State {
	st := State{
		Category:        s.def.Category,
		Mode:            s.Mode(),
		Levels:          []LevelState{},
		TerminalOptions: []TerminalOption{},
	}
	if st.Mode == ModeManualEntry {
		return st
	}

	st.Current = s.Current()
	for i, l := range s.def.Levels {
		ls := LevelState{Label: l.Label, Path: l.Path, Kind: l.Kind, Terminal: l.Terminal, Options: []string{}}
		if !l.Terminal && i < len(s.selected) {
			ls.Options = append(ls.Options, s.options[i]...)
			ls.Selected = s.selected[i]
		}
		st.Levels = append(st.Levels, ls)
	}
	for _, r := range s.terminal {
		st.TerminalOptions = append(st.TerminalOptions, TerminalOption{ID: r.ID, Label: s.def.label(r)})
	}
	if s.resolution != nil {
		res := *s.resolution
		st.Resolution = &res
	}
	return st
}

// Replay rebuilds a selector from scratch by applying choices to levels
// 0..len(choices)-1 in order.
func Replay(def Definition, records []catalog.Record, choices []string, opts ...SelectorOption) (*Selector, error) {
	s := New(def, records, opts...)
	for k, c := range choices {
		if err := s.Select(k, c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Selector) checkLevel(k int) error {
	if s.Mode() == ModeManualEntry {
		return malformed(s.def.Category, k, "", "category has no catalog records")
	}
	if k < 0 || k >= len(s.selected) {
		return malformed(s.def.Category, k, "", "unknown level %d", k)
	}
	return nil
}

// reset clears the choices and options of levels k and later, the terminal
// set and any resolution.
func (s *Selector) reset(k int) {
	for i := k; i < len(s.selected); i++ {
		s.selected[i] = ""
		s.options[i] = nil
	}
	s.terminal = nil
	s.resolution = nil
}

// filter returns the records matching choices of levels < upto.
func (s *Selector) filter(upto int) []catalog.Record {
	out := make([]catalog.Record, 0, len(s.records))
	for _, r := range s.records {
		if s.matches(r, upto) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Selector) matches(r catalog.Record, upto int) bool {
	for i := 0; i < upto; i++ {
		level := s.def.Levels[i]
		found := false
		for _, v := range values(r, level) {
			if sameValue(level.Kind, v, s.selected[i]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// optionsAt computes the sorted, de-duplicated values of level k among the
// records matching levels < k.
func (s *Selector) optionsAt(k int) []string {
	level := s.def.Levels[k]
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.filter(k) {
		for _, v := range values(r, level) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sortValues(level.Kind, out)
	return out
}

// values returns the canonical option values a record offers at level.
func values(r catalog.Record, level Level) []string {
	var raw []string
	if level.Match == MatchMember {
		raw = r.Attributes.Strings(level.Path)
	} else if v := r.Attributes.String(level.Path); v != "" {
		raw = []string{v}
	}
	if level.Kind != KindNumber {
		return raw
	}

	out := raw[:0:0]
	for _, v := range raw {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
	return out
}

func sameValue(kind ValueKind, a, b string) bool {
	if kind == KindNumber {
		fa, errA := strconv.ParseFloat(a, 64)
		fb, errB := strconv.ParseFloat(b, 64)
		return errA == nil && errB == nil && fa == fb
	}
	return a == b
}

func sortValues(kind ValueKind, vals []string) {
	if kind != KindNumber {
		slices.Sort(vals)
		return
	}
	slices.SortFunc(vals, func(a, b string) int {
		fa, _ := strconv.ParseFloat(a, 64)
		fb, _ := strconv.ParseFloat(b, 64)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	})
}

func malformed(c catalog.Category, level int, value, format string, args ...any) error {
	return cberrors.NewWithContext(cberrors.ErrCodeMalformedCascadeSelection,
		fmt.Sprintf(format, args...), map[string]any{
			"category": string(c),
			"level":    level,
			"value":    value,
		})
}
