package rules

// Reasons reported when an action is not legal.
const (
	ReasonInsufficientEnergy = "insufficient energy"
	ReasonBoardFull          = "board is full"
	ReasonNoTargets          = "no legal targets"
	ReasonNotInHand          = "card is not in hand"
	ReasonNotOnBoard         = "card is not on the board"
	ReasonNotMonster         = "card is not a monster"
	ReasonCannotAttack       = "card cannot attack"
	ReasonCannotAttackLeader = "card cannot attack the leader"
	ReasonInvalidTarget      = "invalid attack target"
	ReasonEvolveUnavailable  = "evolution unavailable"
	ReasonAlreadyEvolved     = "card already evolved"
	ReasonModeUnavailable    = "play mode unavailable"
	ReasonGameOver           = "game is over"
	ReasonNotYourTurn        = "not your turn"
	ReasonUnknownAction      = "unknown action"
)

// LegalityResult represents the result of a legality check.
type LegalityResult struct {
	Legal   bool
	Reason  string
	Details map[string]string
}

// Legal returns a passing result.
func Legal() LegalityResult {
	return LegalityResult{Legal: true}
}

// Illegal returns a failing result. Details are given as key/value pairs.
func Illegal(reason string, kv ...string) LegalityResult {
	res := LegalityResult{Reason: reason}
	if len(kv) > 1 {
		res.Details = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			res.Details[kv[i]] = kv[i+1]
		}
	}
	return res
}
