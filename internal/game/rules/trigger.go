package rules

import "fmt"

// Trigger identifies the game moment an effect answers to.
type Trigger int

const (
	TriggerNone Trigger = iota

	// Player-scoped: fired on a player and every card they own.
	OnFriendlyTurnStart
	OnEnemyTurnStart
	OnFriendlyTurnEnd
	OnEnemyTurnEnd
	OnFriendlyCardDrawn
	OnEnemyCardDrawn
	OnFriendlyCardPlayed
	OnEnemyCardPlayed
	OnFriendlyCardDiscarded
	OnEnemyCardDiscarded
	OnFriendlyCardSummoned
	OnEnemyCardSummoned
	OnFriendlyCardEntersBattlefield
	OnEnemyCardEntersBattlefield
	OnFriendlyCardInvoked
	OnEnemyCardInvoked
	OnFriendlyNecromancy
	OnEnemyNecromancy
	OnFriendlyCardAttacking
	OnEnemyCardAttacking
	OnFriendlyCardDestroyed
	OnEnemyCardDestroyed
	OnFriendlyCardEvolved
	OnEnemyCardEvolved
	OnFriendlyChanged
	OnEnemyChanged

	// Card-scoped: fired on one card instance.
	OnDrawn
	OnSummoned
	OnInvoked
	OnPlayed
	OnAccelerated
	OnEnhanced
	OnTargetsChosen
	OnEntersBoard
	OnEvolved
	OnAttacking
	OnClashing
	OnLeaderClashing
	OnDealtDamage
	OnTookDamage
	OnDestroying
	OnDestroyed
	OnBanishing
	OnBanished
	OnLeavesBoard
	OnDiscarded
)

var triggerNames = map[Trigger]string{
	OnFriendlyTurnStart:             "onFriendlyTurnStart",
	OnEnemyTurnStart:                "onEnemyTurnStart",
	OnFriendlyTurnEnd:               "onFriendlyTurnEnd",
	OnEnemyTurnEnd:                  "onEnemyTurnEnd",
	OnFriendlyCardDrawn:             "onFriendlyCardDrawn",
	OnEnemyCardDrawn:                "onEnemyCardDrawn",
	OnFriendlyCardPlayed:            "onFriendlyCardPlayed",
	OnEnemyCardPlayed:               "onEnemyCardPlayed",
	OnFriendlyCardDiscarded:         "onFriendlyCardDiscarded",
	OnEnemyCardDiscarded:            "onEnemyCardDiscarded",
	OnFriendlyCardSummoned:          "onFriendlyCardSummoned",
	OnEnemyCardSummoned:             "onEnemyCardSummoned",
	OnFriendlyCardEntersBattlefield: "onFriendlyCardEntersBattlefield",
	OnEnemyCardEntersBattlefield:    "onEnemyCardEntersBattlefield",
	OnFriendlyCardInvoked:           "onFriendlyCardInvoked",
	OnEnemyCardInvoked:              "onEnemyCardInvoked",
	OnFriendlyNecromancy:            "onFriendlyNecromancy",
	OnEnemyNecromancy:               "onEnemyNecromancy",
	OnFriendlyCardAttacking:         "onFriendlyCardAttacking",
	OnEnemyCardAttacking:            "onEnemyCardAttacking",
	OnFriendlyCardDestroyed:         "onFriendlyCardDestroyed",
	OnEnemyCardDestroyed:            "onEnemyCardDestroyed",
	OnFriendlyCardEvolved:           "onFriendlyCardEvolved",
	OnEnemyCardEvolved:              "onEnemyCardEvolved",
	OnFriendlyChanged:               "onFriendlyChanged",
	OnEnemyChanged:                  "onEnemyChanged",
	OnDrawn:                         "onDrawn",
	OnSummoned:                      "onSummoned",
	OnInvoked:                       "onInvoked",
	OnPlayed:                        "onPlayed",
	OnAccelerated:                   "onAccelerated",
	OnEnhanced:                      "onEnhanced",
	OnTargetsChosen:                 "onTargetsChosen",
	OnEntersBoard:                   "onEntersBoard",
	OnEvolved:                       "onEvolved",
	OnAttacking:                     "onAttacking",
	OnClashing:                      "onClashing",
	OnLeaderClashing:                "onLeaderClashing",
	OnDealtDamage:                   "onDealtDamage",
	OnTookDamage:                    "onTookDamage",
	OnDestroying:                    "onDestroying",
	OnDestroyed:                     "onDestroyed",
	OnBanishing:                     "onBanishing",
	OnBanished:                      "onBanished",
	OnLeavesBoard:                   "onLeavesBoard",
	OnDiscarded:                     "onDiscarded",
}

var triggersByName = func() map[string]Trigger {
	m := make(map[string]Trigger, len(triggerNames))
	for t, name := range triggerNames {
		m[name] = t
	}
	return m
}()

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TRIGGER_%d", int(t))
}

// ParseTrigger resolves a trigger by its definition name.
func ParseTrigger(name string) (Trigger, error) {
	if t, ok := triggersByName[name]; ok {
		return t, nil
	}
	return TriggerNone, fmt.Errorf("unknown trigger %q", name)
}

// PlayerScoped reports whether the trigger belongs to the player-scoped family.
func (t Trigger) PlayerScoped() bool {
	return t >= OnFriendlyTurnStart && t <= OnEnemyChanged
}

// Broadcast is a game event observed by both players, each through its own
// friendly or enemy trigger.
type Broadcast int

const (
	BroadcastTurnStart Broadcast = iota
	BroadcastTurnEnd
	BroadcastCardDrawn
	BroadcastCardPlayed
	BroadcastCardDiscarded
	BroadcastCardSummoned
	BroadcastCardEntersBattlefield
	BroadcastCardInvoked
	BroadcastNecromancy
	BroadcastCardAttacking
	BroadcastCardDestroyed
	BroadcastCardEvolved
	BroadcastChanged
)

var broadcastTriggers = map[Broadcast][2]Trigger{
	BroadcastTurnStart:             {OnFriendlyTurnStart, OnEnemyTurnStart},
	BroadcastTurnEnd:               {OnFriendlyTurnEnd, OnEnemyTurnEnd},
	BroadcastCardDrawn:             {OnFriendlyCardDrawn, OnEnemyCardDrawn},
	BroadcastCardPlayed:            {OnFriendlyCardPlayed, OnEnemyCardPlayed},
	BroadcastCardDiscarded:         {OnFriendlyCardDiscarded, OnEnemyCardDiscarded},
	BroadcastCardSummoned:          {OnFriendlyCardSummoned, OnEnemyCardSummoned},
	BroadcastCardEntersBattlefield: {OnFriendlyCardEntersBattlefield, OnEnemyCardEntersBattlefield},
	BroadcastCardInvoked:           {OnFriendlyCardInvoked, OnEnemyCardInvoked},
	BroadcastNecromancy:            {OnFriendlyNecromancy, OnEnemyNecromancy},
	BroadcastCardAttacking:         {OnFriendlyCardAttacking, OnEnemyCardAttacking},
	BroadcastCardDestroyed:         {OnFriendlyCardDestroyed, OnEnemyCardDestroyed},
	BroadcastCardEvolved:           {OnFriendlyCardEvolved, OnEnemyCardEvolved},
	BroadcastChanged:               {OnFriendlyChanged, OnEnemyChanged},
}

// Friendly is the trigger seen by the acting player.
func (b Broadcast) Friendly() Trigger {
	return broadcastTriggers[b][0]
}

// Enemy is the trigger seen by the acting player's opponent.
func (b Broadcast) Enemy() Trigger {
	return broadcastTriggers[b][1]
}

func (b Broadcast) String() string {
	return b.Friendly().String()
}
