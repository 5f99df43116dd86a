package sign

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestNewSigner(t *testing.T) {
	t.Run("accepts a bare hex key", func(t *testing.T) {
		signer, err := NewSigner(testPrivateKeyHex)
		require.NoError(t, err)
		assert.NotEqual(t, "0x0000000000000000000000000000000000000000", signer.Address().Hex())
	})

	t.Run("accepts a 0x-prefixed key", func(t *testing.T) {
		signer, err := NewSigner("0x" + testPrivateKeyHex)
		require.NoError(t, err)
		assert.NotEmpty(t, signer.Address())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := NewSigner("not-a-key")
		require.Error(t, err)
	})
}

func TestSignAndRecover(t *testing.T) {
	signer, err := NewSigner(testPrivateKeyHex)
	require.NoError(t, err)

	t.Run("personal signature round-trips", func(t *testing.T) {
		message := []byte("walletbridge test message")
		sig, err := signer.SignPersonal(message)
		require.NoError(t, err)
		require.Len(t, []byte(sig), 65)

		recovered, err := RecoverPersonal(message, sig)
		require.NoError(t, err)
		assert.Equal(t, signer.Address(), recovered)
	})

	t.Run("v is wallet compatible", func(t *testing.T) {
		sig, err := signer.SignPersonal([]byte("msg"))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sig[64], byte(27))
	})

	t.Run("a different message recovers a different address", func(t *testing.T) {
		sig, err := signer.SignPersonal([]byte("first"))
		require.NoError(t, err)

		recovered, err := RecoverPersonal([]byte("second"), sig)
		if err == nil {
			assert.NotEqual(t, signer.Address(), recovered)
		}
	})

	t.Run("rejects a truncated signature", func(t *testing.T) {
		_, err := RecoverPersonal([]byte("msg"), Signature{0x01, 0x02})
		require.Error(t, err)
	})
}

func TestSignatureJSON(t *testing.T) {
	signer, err := NewSigner(testPrivateKeyHex)
	require.NoError(t, err)

	sig, err := signer.SignPersonal([]byte("msg"))
	require.NoError(t, err)

	encoded, err := json.Marshal(sig)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "0x")

	var decoded Signature
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, sig, decoded)
}
