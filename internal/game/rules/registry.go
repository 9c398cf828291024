package rules

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/counters"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
)

// Effect is a registered, budgeted reaction to one trigger.
type Effect struct {
	ID          string
	Trigger     Trigger
	Refill      Trigger
	Budget      counters.Budget
	Unstackable bool
	Key         string
	Guard       *expr.Expr
	Op          effects.Op
	Spec        effects.Spec

	// SourceName is the name of the card that defined the effect.
	SourceName string
	// Source is the defining card; opaque to the registry.
	Source any

	inFlight int
}

// NewEffect binds a validated spec to its source card.
func NewEffect(spec effects.Spec, sourceName string, source any) (*Effect, error) {
	trigger, err := ParseTrigger(spec.Trigger)
	if err != nil {
		return nil, err
	}
	refill := TriggerNone
	if spec.Refill != "" {
		if refill, err = ParseTrigger(spec.Refill); err != nil {
			return nil, fmt.Errorf("refill: %w", err)
		}
	}
	guard, err := spec.Guard()
	if err != nil {
		return nil, err
	}
	key, err := spec.Key(sourceName)
	if err != nil {
		return nil, err
	}
	return &Effect{
		ID:          uuid.NewString(),
		Trigger:     trigger,
		Refill:      refill,
		Budget:      counters.NewBudget(spec.MaxAmount()),
		Unstackable: spec.Unstackable,
		Key:         key,
		Guard:       guard,
		Op:          spec.Effect,
		Spec:        spec,
		SourceName:  sourceName,
		Source:      source,
	}, nil
}

// Ready evaluates the guard and then the budget. A false guard never
// touches the budget. Activations already started but not yet consumed
// count against the budget, so a cascade cannot re-fire a spent effect.
func (e *Effect) Ready(env expr.Env) (bool, error) {
	ok, err := e.Guard.Eval(env)
	if err != nil || !ok {
		return false, err
	}
	if e.Budget.IsUnlimited() {
		return true, nil
	}
	return e.Budget.Current-e.inFlight > 0, nil
}

// Begin marks an activation as started; Consume settles it.
func (e *Effect) Begin() {
	e.inFlight++
}

// Consume spends one activation.
func (e *Effect) Consume() {
	if e.inFlight > 0 {
		e.inFlight--
	}
	e.Budget.Consume()
}

// Resolve runs guard, budget, perform and consume synchronously.
func (e *Effect) Resolve(env expr.Env, perform func() error) (bool, error) {
	ok, err := e.Ready(env)
	if err != nil || !ok {
		return false, err
	}
	e.Begin()
	if err := perform(); err != nil {
		e.inFlight--
		return false, err
	}
	e.Consume()
	return true, nil
}

// Registry stores the effects of one holder (a player, a card or a face),
// keyed sparsely by trigger.
type Registry struct {
	buckets map[Trigger][]*Effect
	order   []*Effect
	keys    map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[Trigger][]*Effect),
		keys:    make(map[string]struct{}),
	}
}

// Register inserts the effect into its trigger bucket. It returns false when
// the effect is unstackable and an identical one is already held.
func (r *Registry) Register(e *Effect) bool {
	if e.Unstackable {
		if _, dup := r.keys[e.Key]; dup {
			return false
		}
		r.keys[e.Key] = struct{}{}
	}
	r.buckets[e.Trigger] = append(r.buckets[e.Trigger], e)
	r.order = append(r.order, e)
	return true
}

// Refill restores one activation of every effect refilled by t, across all buckets.
func (r *Registry) Refill(t Trigger) int {
	refilled := 0
	for _, e := range r.order {
		if e.Refill != TriggerNone && e.Refill == t {
			e.Budget.Refill()
			refilled++
		}
	}
	return refilled
}

// Bucket returns a snapshot of the effects registered under t, in
// registration order.
func (r *Registry) Bucket(t Trigger) []*Effect {
	bucket := r.buckets[t]
	if len(bucket) == 0 {
		return nil
	}
	cpy := make([]*Effect, len(bucket))
	copy(cpy, bucket)
	return cpy
}

// Pop runs the refill phase for t and hands each effect of t's bucket to
// fire. Effects registered while firing wait for the next pop.
func (r *Registry) Pop(t Trigger, fire func(*Effect)) {
	r.Refill(t)
	for _, e := range r.Bucket(t) {
		fire(e)
	}
}

// Len returns the number of registered effects.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every effect in registration order.
func (r *Registry) All() []*Effect {
	cpy := make([]*Effect, len(r.order))
	copy(cpy, r.order)
	return cpy
}
