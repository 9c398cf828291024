package carddef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ErrUnknownCard is returned when a name has no definition.
var ErrUnknownCard = errors.New("unknown card")

// Library is the read-only set of definitions a game builds cards from.
type Library struct {
	defs  map[string]*Definition
	names []string
}

// NewLibrary validates defs and indexes them by name. Any invalid or
// duplicate definition fails the whole library.
func NewLibrary(defs ...*Definition) (*Library, error) {
	lib := &Library{defs: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		if err := lib.add(def); err != nil {
			return nil, err
		}
	}
	if err := lib.checkReferences(); err != nil {
		return nil, err
	}
	return lib, nil
}

func (l *Library) add(def *Definition) error {
	if def == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if _, dup := l.defs[def.Name]; dup {
		return fmt.Errorf("%w: duplicate card %q", ErrInvalidDefinition, def.Name)
	}
	l.defs[def.Name] = def
	l.names = append(l.names, def.Name)
	return nil
}

func (l *Library) checkReferences() error {
	for _, name := range l.names {
		if err := l.checkDefinition(l.defs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) checkDefinition(def *Definition) error {
	for _, ref := range def.CardNames() {
		if _, ok := l.defs[ref]; !ok {
			return fmt.Errorf("%w %q: references %w %q", ErrInvalidDefinition, def.Name, ErrUnknownCard, ref)
		}
	}
	return nil
}

// Lookup returns the definition for name.
func (l *Library) Lookup(name string) (*Definition, error) {
	def, ok := l.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
	}
	return def, nil
}

// Has reports whether name is defined.
func (l *Library) Has(name string) bool {
	_, ok := l.defs[name]
	return ok
}

// Names lists the defined cards in load order.
func (l *Library) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Len returns the number of definitions.
func (l *Library) Len() int { return len(l.names) }

// CheckDeck verifies that every name of a deck list is defined.
func (l *Library) CheckDeck(names []string) error {
	for _, name := range names {
		if !l.Has(name) {
			return fmt.Errorf("deck: %w: %q", ErrUnknownCard, name)
		}
	}
	return nil
}

// SplitDocument breaks a library document into one raw entry per card. The
// document is either an array of definitions or an object keyed by card
// name, in which case the key supplies a missing Name.
func SplitDocument(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode library: %w", err)
		}
		return entries, nil
	}

	var byName map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &byName); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]json.RawMessage, 0, len(keys))
	for _, name := range keys {
		raw := byName[name]
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			// left for Decode to report against the entry
			entries = append(entries, raw)
			continue
		}
		if _, ok := fields["Name"]; !ok {
			quoted, _ := json.Marshal(name)
			fields["Name"] = quoted
			encoded, err := json.Marshal(fields)
			if err != nil {
				return nil, err
			}
			raw = encoded
		}
		entries = append(entries, raw)
	}
	return entries, nil
}

// Decode parses one strict definition entry and validates it.
func Decode(raw []byte) (*Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Build assembles a library from raw entries. Malformed entries, duplicates
// and entries referencing unknown cards are logged and skipped; the
// rejections are returned alongside the library.
func Build(entries []json.RawMessage, logger *zap.Logger) (*Library, []error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib := &Library{defs: make(map[string]*Definition, len(entries))}
	var rejected []error
	for i, raw := range entries {
		def, err := Decode(raw)
		if err == nil {
			err = lib.add(def)
		}
		if err != nil {
			logger.Warn("skipping card definition", zap.Int("entry", i), zap.Error(err))
			rejected = append(rejected, err)
		}
	}

	// dropping one card can orphan another, so repeat until stable
	for {
		removed := false
		kept := lib.names[:0]
		for _, name := range lib.names {
			if err := lib.checkDefinition(lib.defs[name]); err != nil {
				logger.Warn("skipping card definition", zap.String("card", name), zap.Error(err))
				rejected = append(rejected, err)
				delete(lib.defs, name)
				removed = true
				continue
			}
			kept = append(kept, name)
		}
		lib.names = kept
		if !removed {
			break
		}
	}
	return lib, rejected
}
