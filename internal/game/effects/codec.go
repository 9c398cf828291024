package effects

import (
	"encoding/json"
	"fmt"
)

// specWire is the on-disk shape of a Spec.
type specWire struct {
	Trigger     string
	Effect      json.RawMessage
	Test        string `json:",omitempty"`
	Amount      *int   `json:",omitempty"`
	Refill      string `json:",omitempty"`
	Unstackable bool   `json:",omitempty"`
	Type        string `json:",omitempty"`
}

// UnmarshalJSON decodes a Spec, dispatching its Effect on the Op tag.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var w specWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var op Op
	if len(w.Effect) > 0 && string(w.Effect) != "null" {
		var err error
		op, err = DecodeOp(w.Effect)
		if err != nil {
			return fmt.Errorf("effect on %s: %w", w.Trigger, err)
		}
	}
	*s = Spec{
		Trigger:     w.Trigger,
		Effect:      op,
		Test:        w.Test,
		Amount:      w.Amount,
		Refill:      w.Refill,
		Unstackable: w.Unstackable,
		Type:        w.Type,
	}
	return nil
}

// MarshalJSON encodes a Spec with a tagged Effect.
func (s Spec) MarshalJSON() ([]byte, error) {
	w := specWire{
		Trigger:     s.Trigger,
		Test:        s.Test,
		Amount:      s.Amount,
		Refill:      s.Refill,
		Unstackable: s.Unstackable,
		Type:        s.Type,
	}
	if s.Effect != nil {
		body, err := EncodeOp(s.Effect)
		if err != nil {
			return nil, err
		}
		w.Effect = body
	}
	return json.Marshal(w)
}

// DecodeOp decodes one tagged op. An object without an Op tag but with a
// Trigger is a nested registration on the owner.
func DecodeOp(data []byte) (Op, error) {
	var head struct {
		Op      Kind
		Trigger string
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.Op == "" {
		if head.Trigger == "" {
			return nil, fmt.Errorf("%w: missing Op tag", ErrUnknownOp)
		}
		var nested Spec
		if err := json.Unmarshal(data, &nested); err != nil {
			return nil, err
		}
		return Register{Holder: HolderOwner, Effect: nested}, nil
	}

	var (
		op  Op
		err error
	)
	switch head.Op {
	case KindBuff:
		op, err = decodeAs[Buff](data)
	case KindDamage:
		op, err = decodeAs[Damage](data)
	case KindHeal:
		op, err = decodeAs[Heal](data)
	case KindGainShadows:
		op, err = decodeAs[GainShadows](data)
	case KindGainEnergy:
		op, err = decodeAs[GainEnergy](data)
	case KindGainTotalEnergy:
		op, err = decodeAs[GainTotalEnergy](data)
	case KindDraw:
		op, err = decodeAs[Draw](data)
	case KindAddCards:
		op, err = decodeAs[AddCards](data)
	case KindSummon:
		op, err = decodeAs[Summon](data)
	case KindTutor:
		op, err = decodeAs[Tutor](data)
	case KindInvoke:
		op = Invoke{}
	case KindDestroy:
		op, err = decodeAs[Destroy](data)
	case KindBanish:
		op, err = decodeAs[Banish](data)
	case KindDiscard:
		op, err = decodeAs[Discard](data)
	case KindSetAttackState:
		op, err = decodeAs[SetAttackState](data)
	case KindCountdown:
		op, err = decodeAs[Countdown](data)
	case KindEvolve:
		op, err = decodeAs[Evolve](data)
	case KindRegister:
		op, err = decodeAs[Register](data)
	case KindNecromancy:
		var w struct {
			Shadows int
			Then    json.RawMessage
		}
		if err = json.Unmarshal(data, &w); err == nil {
			var then Op
			if len(w.Then) > 0 {
				then, err = DecodeOp(w.Then)
			}
			op = Necromancy{Shadows: w.Shadows, Then: then}
		}
	case KindAll:
		var w struct {
			Ops []json.RawMessage
		}
		if err = json.Unmarshal(data, &w); err == nil {
			all := All{Ops: make([]Op, 0, len(w.Ops))}
			for _, raw := range w.Ops {
				child, childErr := DecodeOp(raw)
				if childErr != nil {
					err = childErr
					break
				}
				all.Ops = append(all.Ops, child)
			}
			op = all
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, head.Op)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.Op, err)
	}
	return withDefaults(op), nil
}

func decodeAs[T Op](data []byte) (Op, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeOp encodes an op with its Op tag.
func EncodeOp(op Op) ([]byte, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(op.Kind())
	fields["Op"] = tag
	return json.Marshal(fields)
}

// MarshalJSON keeps child tags.
func (o All) MarshalJSON() ([]byte, error) {
	ops := make([]json.RawMessage, 0, len(o.Ops))
	for _, child := range o.Ops {
		body, err := EncodeOp(child)
		if err != nil {
			return nil, err
		}
		ops = append(ops, body)
	}
	return json.Marshal(struct{ Ops []json.RawMessage }{ops})
}

// MarshalJSON keeps the tag of Then.
func (o Necromancy) MarshalJSON() ([]byte, error) {
	w := struct {
		Shadows int
		Then    json.RawMessage `json:",omitempty"`
	}{Shadows: o.Shadows}
	if o.Then != nil {
		body, err := EncodeOp(o.Then)
		if err != nil {
			return nil, err
		}
		w.Then = body
	}
	return json.Marshal(w)
}

func withDefaults(op Op) Op {
	switch o := op.(type) {
	case Buff:
		o.Subject = orSubject(o.Subject, SubjectSelf)
		return o
	case Damage:
		o.Subject = orSubject(o.Subject, SubjectTargets)
		return o
	case Heal:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		return o
	case GainShadows:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		return o
	case GainEnergy:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		return o
	case GainTotalEnergy:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		return o
	case Draw:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		if o.Count == 0 {
			o.Count = 1
		}
		return o
	case AddCards:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		return o
	case Summon:
		o.Subject = orSubject(o.Subject, SubjectOwner)
		return o
	case Tutor:
		if o.Count == 0 {
			o.Count = 1
		}
		return o
	case Destroy:
		o.Subject = orSubject(o.Subject, SubjectTargets)
		return o
	case Banish:
		o.Subject = orSubject(o.Subject, SubjectTargets)
		return o
	case Discard:
		o.Subject = orSubject(o.Subject, SubjectTargets)
		return o
	case SetAttackState:
		o.Subject = orSubject(o.Subject, SubjectSelf)
		return o
	case Countdown:
		o.Subject = orSubject(o.Subject, SubjectSelf)
		if o.Amount == 0 {
			o.Amount = 1
		}
		return o
	case Evolve:
		o.Subject = orSubject(o.Subject, SubjectSelf)
		return o
	case Register:
		if o.Holder == "" {
			o.Holder = HolderOwner
		}
		return o
	}
	return op
}

func orSubject(s, fallback Subject) Subject {
	if s == "" {
		return fallback
	}
	return s
}
