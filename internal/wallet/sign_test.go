package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyMessage(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	msg := []byte("hello trex")
	sig, err := SignMessage(key, msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	got, err := VerifyMessage(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// raw recovery ids are accepted too
	raw := append([]byte{}, sig...)
	raw[64] -= 27
	got, err = VerifyMessage(msg, raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVerifyMessageWrongMessage(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	sig, err := SignMessage(key, []byte("a"))
	require.NoError(t, err)

	got, err := VerifyMessage([]byte("b"), sig)
	if err == nil {
		assert.NotEqual(t, crypto.PubkeyToAddress(key.PublicKey), got)
	}
}

func TestVerifyMessageBadLength(t *testing.T) {
	_, err := VerifyMessage([]byte("a"), make([]byte, 64))
	assert.ErrorContains(t, err, "invalid signature length")
}
