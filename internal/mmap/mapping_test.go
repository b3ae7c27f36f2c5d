package mmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)

	data := m.Bytes()
	require.Len(t, data, 4096)
	assert.Equal(t, 4096, m.Size())

	for _, b := range data {
		require.Zero(t, b)
	}

	data[0] = 1
	data[4095] = 2
	assert.Equal(t, byte(1), m.Bytes()[0])

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
	assert.Nil(t, m.Bytes())

	// Idempotent
	assert.NoError(t, m.Close())
}

func TestMapAnon_Zero(t *testing.T) {
	m, err := MapAnon(0)
	require.NoError(t, err)
	assert.Nil(t, m.Bytes())
	assert.NoError(t, m.Close())
}

func TestMapAnon_Negative(t *testing.T) {
	_, err := MapAnon(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
