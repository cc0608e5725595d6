package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalQuietSuppressesOutput(t *testing.T) {
	term := NewTerminal(true)
	assert.NotPanics(t, func() {
		term.Progress("Decrypting", 10, 100)
		term.Message("hello")
		term.Finish()
	})
}

func TestTerminalSkipsRepeatedPercent(t *testing.T) {
	term := NewTerminal(false)
	term.Progress("Decrypting", 10, 1000) // 1%
	first := term.lastPct["Decrypting"]
	term.Progress("Decrypting", 11, 1000) // still 1%
	assert.Equal(t, first, term.lastPct["Decrypting"])
	term.Finish()
}

func TestTerminalTracksPerStepPercent(t *testing.T) {
	term := NewTerminal(false)
	term.Progress("Decrypting", 50, 100)
	term.Progress("Unpacking&Installing", 10, 100)
	assert.Equal(t, 50, term.lastPct["Decrypting"])
	assert.Equal(t, 10, term.lastPct["Unpacking&Installing"])
	term.Finish()
}
