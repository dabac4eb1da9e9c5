package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestSeq_BeginClaimsFreshGeneration(t *testing.T) {
	seq := NewRequestSeq()

	token := seq.Begin()

	assert.False(t, seq.Superseded(token))
}

func TestRequestSeq_LaterBeginSupersedesEarlier(t *testing.T) {
	seq := NewRequestSeq()

	first := seq.Begin()
	second := seq.Begin()

	assert.True(t, seq.Superseded(first))
	assert.False(t, seq.Superseded(second))
}

func TestRequestSeq_BumpSupersedesWithoutClaiming(t *testing.T) {
	seq := NewRequestSeq()
	token := seq.Begin()

	seq.Bump()

	assert.True(t, seq.Superseded(token))
}

func TestRequestSeq_ConcurrentBegins(t *testing.T) {
	seq := NewRequestSeq()

	const goroutines = 32
	tokens := make([]uint64, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			tokens[i] = seq.Begin()
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, goroutines)
	live := 0
	for _, token := range tokens {
		assert.False(t, seen[token], "tokens are unique")
		seen[token] = true
		if !seq.Superseded(token) {
			live++
		}
	}
	assert.Equal(t, 1, live, "exactly the newest generation survives")
}
