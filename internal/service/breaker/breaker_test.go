package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(Settings{Name: "t", ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	fail := func() (any, error) { return nil, errors.New("down") }

	_, err := b.Execute(fail)
	require.Error(t, err)
	_, err = b.Execute(fail)
	require.Error(t, err)

	_, err = b.Execute(func() (any, error) { return "ok", nil })
	assert.True(t, IsOpen(err))
	assert.Equal(t, "open", b.State())
}

func TestPassesResults(t *testing.T) {
	b := New(Settings{Name: "t"})
	v, err := b.Execute(func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, IsOpen(errors.New("x")))
}

func TestIsSuccessfulKeepsBreakerClosed(t *testing.T) {
	notFound := errors.New("not found")
	b := New(Settings{Name: "t", ConsecutiveFailures: 1, IsSuccessful: func(err error) bool {
		return err == nil || errors.Is(err, notFound)
	}})
	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (any, error) { return nil, notFound })
		require.ErrorIs(t, err, notFound)
	}
	assert.Equal(t, "closed", b.State())
}
