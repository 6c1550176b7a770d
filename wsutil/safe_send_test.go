package wsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeSend_Delivers(t *testing.T) {
	ch := make(chan []byte, 1)

	assert.True(t, SafeSend(ch, []byte("hello")))
	assert.Equal(t, []byte("hello"), <-ch)
}

func TestSafeSend_FullChannel(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte("first")

	assert.False(t, SafeSend(ch, []byte("second")))
	assert.Equal(t, []byte("first"), <-ch)
}

func TestSafeSend_ClosedChannel(t *testing.T) {
	ch := make(chan []byte, 1)
	close(ch)

	assert.NotPanics(t, func() {
		assert.False(t, SafeSend(ch, []byte("late")))
	})
}
