package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafe(t *testing.T) {
	t.Run("returns error", func(t *testing.T) {
		boom := errors.New("boom")
		assert.ErrorIs(t, Safe(func() error { return boom }), boom)
	})

	t.Run("recovers panic", func(t *testing.T) {
		err := Safe(func() error { panic("bad") })
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "panic: bad", pe.Error())
	})

	t.Run("panic with error unwraps", func(t *testing.T) {
		boom := errors.New("boom")
		err := Safe(func() error { panic(boom) })
		assert.ErrorIs(t, err, boom)
	})
}

func TestError(t *testing.T) {
	boom := errors.New("boom")
	err := &Error{Category: CategoryEvaluation, Info: "render", Component: "<Counter>", Wrapped: boom}
	assert.Equal(t, "error in render (<Counter>): boom", err.Error())
	assert.ErrorIs(t, err, boom)
}

func TestRecorder(t *testing.T) {
	log, rec := NewRecorder()
	log.Warn(CategoryConfig, "Missing required prop: \"title\"", "")
	log.Tip("production tip", "")

	assert.Equal(t, []string{"Missing required prop: \"title\""}, rec.Warnings())
	assert.True(t, rec.HasWarning("required prop"))
	assert.Len(t, rec.Entries(), 2)

	log.SetSilent(true)
	log.Warn(CategoryConfig, "hidden", "")
	assert.False(t, rec.HasWarning("hidden"))

	rec.Reset()
	assert.Empty(t, rec.Entries())
}
