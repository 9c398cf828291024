package rules

import (
	"errors"
	"fmt"
	"sync"
)

// StackItemKind describes the type of work on the resolution stack.
type StackItemKind string

const (
	// StackItemKindStep is one step of a rules sequence (draw, combat, destroy).
	StackItemKindStep StackItemKind = "STEP"
	// StackItemKindEffect is a triggered effect awaiting its guard and budget check.
	StackItemKindEffect StackItemKind = "EFFECT"
	// StackItemKindSettle consumes an effect's budget once its action has completed.
	StackItemKindSettle StackItemKind = "SETTLE"
)

// ErrStackEmpty is returned by Pop on an empty stack.
var ErrStackEmpty = errors.New("stack empty")

// StackItem represents a single unit of pending work.
type StackItem struct {
	ID          string
	Controller  string
	Description string
	Kind        StackItemKind
	SourceID    string
	Resolve     func() error
}

// StackManager is the LIFO work stack that replaces recursion: an item that
// schedules further work pushes it on top, so nested work completes before
// the items below it.
type StackManager struct {
	mu    sync.Mutex
	items []StackItem
}

// NewStackManager returns an empty work stack.
func NewStackManager() *StackManager {
	return &StackManager{
		items: make([]StackItem, 0, 16),
	}
}

// Push schedules item to run next.
func (sm *StackManager) Push(item StackItem) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.items = append(sm.items, item)
}

// PushAll pushes items so that items[0] resolves first.
func (sm *StackManager) PushAll(items ...StackItem) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i := len(items) - 1; i >= 0; i-- {
		sm.items = append(sm.items, items[i])
	}
}

// Pop takes the next item to run.
func (sm *StackManager) Pop() (StackItem, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, ErrStackEmpty
	}

	idx := len(sm.items) - 1
	item := sm.items[idx]
	sm.items = sm.items[:idx]
	return item, nil
}

// Peek reports the next item without taking it.
func (sm *StackManager) Peek() (StackItem, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if len(sm.items) == 0 {
		return StackItem{}, false
	}
	return sm.items[len(sm.items)-1], true
}

// List snapshots the pending work, next item last.
func (sm *StackManager) List() []StackItem {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	cpy := make([]StackItem, len(sm.items))
	copy(cpy, sm.items)
	return cpy
}

// Len returns the number of pending items.
func (sm *StackManager) Len() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.items)
}

// IsEmpty reports whether the game has settled.
func (sm *StackManager) IsEmpty() bool {
	return sm.Len() == 0
}

// Clear discards all pending work and returns how many items were dropped.
func (sm *StackManager) Clear() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	n := len(sm.items)
	sm.items = sm.items[:0]
	return n
}

// Drain resolves items until the stack is empty. When halt reports true the
// remaining work is discarded. A failing item clears the stack and its error
// is returned.
func (sm *StackManager) Drain(halt func() bool) error {
	for {
		if halt != nil && halt() {
			sm.Clear()
			return nil
		}
		item, err := sm.Pop()
		if errors.Is(err, ErrStackEmpty) {
			return nil
		}
		if item.Resolve == nil {
			continue
		}
		if err := item.Resolve(); err != nil {
			sm.Clear()
			return fmt.Errorf("resolve %s %q: %w", item.Kind, item.Description, err)
		}
	}
}
