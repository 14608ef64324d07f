package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeNotFound, "person not found")
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeConflict))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load roster")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "failed to load roster")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeSurvivesWrapping(t *testing.T) {
	inner := New(CodeValidation, "bad date")
	outer := fmt.Errorf("handling update: %w", inner)
	assert.Equal(t, CodeValidation, CodeOf(outer))
}
