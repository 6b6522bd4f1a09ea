package oauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStateCodec_RoundTrip(t *testing.T) {
	c := NewStateCodec([]byte("k"))

	state, err := c.Encode("nonce-1")
	require.NoError(t, err)

	nonce, err := c.Decode(state)
	require.NoError(t, err)
	assert.Equal(t, "nonce-1", nonce)
}

func TestStateCodec_WrongKey(t *testing.T) {
	state, err := NewStateCodec([]byte("k1")).Encode("nonce-1")
	require.NoError(t, err)

	_, err = NewStateCodec([]byte("k2")).Decode(state)
	assert.ErrorIs(t, err, errInvalidState)
}

func TestStateCodec_Expired(t *testing.T) {
	c := NewStateCodec([]byte("k"))
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return issued }

	state, err := c.Encode("nonce-1")
	require.NoError(t, err)

	c.now = func() time.Time { return issued.Add(StateTTL + time.Minute) }
	_, err = c.Decode(state)
	assert.ErrorIs(t, err, errInvalidState)
}

func TestStateCodec_Garbage(t *testing.T) {
	_, err := NewStateCodec([]byte("k")).Decode("not-a-token")
	assert.ErrorIs(t, err, errInvalidState)
}

func TestStateCodec_MissingNonce(t *testing.T) {
	c := NewStateCodec([]byte("k"))
	state, err := c.Encode("")
	require.NoError(t, err)

	_, err = c.Decode(state)
	assert.ErrorIs(t, err, errInvalidState)
}
