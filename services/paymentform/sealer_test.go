package paymentform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealer(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	sealer, err := NewSealer(key)
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("0001234567"))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "0001234567")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "0001234567", string(opened))

	again, err := sealer.Seal([]byte("0001234567"))
	require.NoError(t, err)
	require.NotEqual(t, sealed, again)

	otherKey, err := GenerateKey()
	require.NoError(t, err)
	other, err := NewSealer(otherKey)
	require.NoError(t, err)
	_, err = other.Open(sealed)
	require.Error(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = sealer.Open(sealed)
	require.Error(t, err)
	_, err = sealer.Open([]byte("short"))
	require.Error(t, err)
}

func TestNewSealerRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "abcd", "zz" + string(make([]byte, 62))} {
		_, err := NewSealer(key)
		require.ErrorIs(t, err, ErrInvalidKey)
	}
}
