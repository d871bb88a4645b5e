package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOwner(t *testing.T) {
	t.Parallel()

	owner, err := NewOwner(" Bob@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", owner.Email)

	_, err = NewOwner("")
	assert.ErrorIs(t, err, ErrEmptyEmail)

	_, err = NewOwner("bob@")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}
