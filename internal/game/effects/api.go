package effects

// Builder provides a fluent API for assembling effect specs in code,
// mostly for tests and generated cards.
type Builder struct {
	spec Spec
}

// On starts an effect answering to trigger.
func On(trigger string) *Builder {
	return &Builder{spec: Spec{Trigger: trigger}}
}

// Do sets the operation performed when the effect resolves.
func (b *Builder) Do(op Op) *Builder {
	b.spec.Effect = op
	return b
}

// When sets the guard expression.
func (b *Builder) When(test string) *Builder {
	b.spec.Test = test
	return b
}

// Times limits the effect to n activations.
func (b *Builder) Times(n int) *Builder {
	b.spec.Amount = &n
	return b
}

// RefillOn restores one activation whenever trigger fires.
func (b *Builder) RefillOn(trigger string) *Builder {
	b.spec.Refill = trigger
	return b
}

// Unstackable refuses a second identical registration on the same holder.
func (b *Builder) Unstackable() *Builder {
	b.spec.Unstackable = true
	return b
}

// Invocation registers the effect while the card is in the deck.
func (b *Builder) Invocation() *Builder {
	b.spec.Type = TypeInvocation
	return b
}

// Build returns the spec.
func (b *Builder) Build() Spec {
	return b.spec
}
