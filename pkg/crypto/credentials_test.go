package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test key generated with: openssl rand -base64 32
const testKey = "dGVzdC1rZXktZm9yLXVuaXQtdGVzdHMtMzItYnl0ZXM=" // "test-key-for-unit-tests-32-bytes"

func TestNewCredentialEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid 32-byte base64 key", key: testKey},
		{name: "empty key", key: "", wantErr: true},
		{name: "passphrase", key: "my-simple-passphrase"},
		{name: "short base64 key", key: base64.StdEncoding.EncodeToString([]byte("sixteen-byte-key"))},
		{name: "long base64 key", key: base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 64)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewCredentialEncryptor(tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidKey)
				assert.Nil(t, enc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestEncryptDecryptValue_RoundTrip(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	for _, plaintext := range []string{"secret", "p@ss w0rd!", strings.Repeat("long", 100), "密码"} {
		encrypted, err := enc.EncryptValue(plaintext)
		require.NoError(t, err)
		assert.True(t, IsEncrypted(encrypted))
		assert.NotContains(t, encrypted, plaintext)

		decrypted, err := enc.DecryptValue(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptValue_NonDeterministic(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	a, err := enc.EncryptValue("same")
	require.NoError(t, err)
	b, err := enc.EncryptValue("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "nonce must differ between encryptions")
}

func TestEncryptValue_Empty(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	out, err := enc.EncryptValue("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecryptValue_PlaintextPassthrough(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)

	out, err := enc.DecryptValue("plain-password")
	require.NoError(t, err)
	assert.Equal(t, "plain-password", out)
}

func TestDecryptValue_Failures(t *testing.T) {
	enc, err := NewCredentialEncryptor(testKey)
	require.NoError(t, err)
	other, err := NewCredentialEncryptor("another-key")
	require.NoError(t, err)

	encrypted, err := other.EncryptValue("secret")
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{name: "wrong key", value: encrypted},
		{name: "invalid base64", value: EncryptedPrefix + "not-base64!!"},
		{name: "too short", value: EncryptedPrefix + base64.StdEncoding.EncodeToString([]byte("short"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.DecryptValue(tt.value)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}
}
