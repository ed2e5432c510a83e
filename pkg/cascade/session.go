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
	"sync"

	"github.com/NVIDIA/server-builder/pkg/catalog"
	cberrors "github.com/NVIDIA/server-builder/pkg/errors"
)

// CatalogLevel is the ticket level used while the category's records load.
const CatalogLevel = -1

// Ticket identifies one in-flight request against a Session. Only the
// most recently issued ticket may be applied.
type Ticket struct {
	Category   catalog.Category `json:"category"`
	Level      int              `json:"level"`
	Generation uint64           `json:"generation"`
}

// Session wraps a Selector for asynchronous callers. Each request takes a
// ticket first; results carrying a superseded ticket are rejected so a slow
// response never overwrites a newer choice.
type Session struct {
	mu   sync.Mutex
	def  Definition
	opts []SelectorOption

	sel        *Selector
	generation uint64
	level      int
}

// NewSession returns a session that starts in manual entry mode until
// records are loaded.
func NewSession(def Definition, opts ...SelectorOption) *Session {
	return &Session{
		def:   def,
		opts:  opts,
		sel:   New(def, nil, opts...),
		level: CatalogLevel,
	}
}

// Begin issues a ticket for a request at level and supersedes every ticket
// issued before it.
func (s *Session) Begin(level int) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.level = level
	return Ticket{Category: s.def.Category, Level: level, Generation: s.generation}
}

// Load replaces the session records, resetting every choice.
func (s *Session) Load(t Ticket, records []catalog.Record) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(t, CatalogLevel); err != nil {
		return s.sel.State(), err
	}
	s.sel = New(s.def, records, s.opts...)
	return s.sel.State(), nil
}

// Apply selects value at the ticket's level.
func (s *Session) Apply(t Ticket, value string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(t, t.Level); err != nil {
		return s.sel.State(), err
	}
	if err := s.sel.Select(t.Level, value); err != nil {
		return s.sel.State(), err
	}
	return s.sel.State(), nil
}

// Resolve picks the terminal record for the ticket.
func (s *Session) Resolve(t Ticket, recordID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(t, t.Level); err != nil {
		return s.sel.State(), err
	}
	if _, err := s.sel.Resolve(recordID); err != nil {
		return s.sel.State(), err
	}
	return s.sel.State(), nil
}

// State returns the current view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.State()
}

func (s *Session) check(t Ticket, level int) error {
	if t.Category != s.def.Category || t.Generation != s.generation || t.Level != s.level || t.Level != level {
		return cberrors.NewWithContext(cberrors.ErrCodeMalformedCascadeSelection,
			"stale cascade request", map[string]any{
				"category":   string(t.Category),
				"level":      t.Level,
				"generation": t.Generation,
				"current":    s.generation,
			})
	}
	return nil
}
