package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardRunsInLIFOOrder(t *testing.T) {
	g := &guard{}
	var order []int

	g.add(func() error { order = append(order, 1); return nil })
	g.add(func() error { order = append(order, 2); return nil })
	g.add(func() error { order = append(order, 3); return nil })

	assert.NoError(t, g.Close())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestGuardRunsAllDespiteErrors(t *testing.T) {
	g := &guard{}
	var ran []int

	g.add(func() error { ran = append(ran, 1); return assert.AnError })
	g.add(func() error { ran = append(ran, 2); return nil })

	err := g.Close()
	assert.Error(t, err)
	assert.Equal(t, []int{2, 1}, ran)
}

func TestGuardIdempotent(t *testing.T) {
	g := &guard{}
	calls := 0
	g.add(func() error { calls++; return nil })

	assert.NoError(t, g.Close())
	assert.NoError(t, g.Close())
	assert.Equal(t, 1, calls)
}
