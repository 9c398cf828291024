package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegalityResults(t *testing.T) {
	assert.True(t, Legal().Legal)

	res := Illegal(ReasonInsufficientEnergy, "cost", "3", "energy", "2", "dangling")
	assert.False(t, res.Legal)
	assert.Equal(t, ReasonInsufficientEnergy, res.Reason)
	assert.Equal(t, map[string]string{"cost": "3", "energy": "2"}, res.Details)

	assert.Nil(t, Illegal(ReasonBoardFull).Details)
}
