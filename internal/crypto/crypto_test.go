package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken()
	require.NoError(t, err)
	second, err := GenerateSecureToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	// 32 random bytes, base64 URL-encoded
	assert.Len(t, first, 44)
}

func TestHashAndVerifyAdminToken(t *testing.T) {
	hash, err := HashAdminToken("super-secret")
	require.NoError(t, err)

	assert.True(t, VerifyAdminToken(hash, "super-secret"))
	assert.False(t, VerifyAdminToken(hash, "wrong"))
	assert.False(t, VerifyAdminToken([]byte("not a hash"), "super-secret"))
}

func TestSignAndValidateData(t *testing.T) {
	key := []byte("signing-key")
	signature := SignData("payload", key)

	assert.True(t, ValidateSignedData("payload", signature, key))
	assert.False(t, ValidateSignedData("tampered", signature, key))
	assert.False(t, ValidateSignedData("payload", signature, []byte("other-key")))
	assert.False(t, ValidateSignedData("payload", "not base64 !!!", key))
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("signing-key"), time.Hour)

	type claims struct {
		Token string `json:"token"`
	}

	token, err := signer.Sign(claims{Token: "admin-1"})
	require.NoError(t, err)

	var decoded claims
	require.NoError(t, signer.Verify(token, &decoded))
	assert.Equal(t, "admin-1", decoded.Token)
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner([]byte("signing-key"), time.Hour)

	token, err := signer.Sign(map[string]string{"token": "admin-1"})
	require.NoError(t, err)

	var decoded map[string]string
	assert.Error(t, signer.Verify(token+"x", &decoded))
	assert.Error(t, signer.Verify("garbage", &decoded))

	other := NewTokenSigner([]byte("other-key"), time.Hour)
	assert.Error(t, other.Verify(token, &decoded))
}

func TestTokenSignerExpiry(t *testing.T) {
	signer := NewTokenSigner([]byte("signing-key"), -time.Minute)

	token, err := signer.Sign(map[string]string{"token": "admin-1"})
	require.NoError(t, err)

	var decoded map[string]string
	err = signer.Verify(token, &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenSignerNoExpiry(t *testing.T) {
	signer := NewTokenSigner([]byte("signing-key"), 0)

	token, err := signer.Sign(map[string]string{"token": "admin-1"})
	require.NoError(t, err)

	var decoded map[string]string
	assert.NoError(t, signer.Verify(token, &decoded))
}

func TestEncryptorRoundTrip(t *testing.T) {
	encryptor, err := NewEncryptor([]byte("any passphrase works"))
	require.NoError(t, err)

	ciphertext, err := encryptor.Encrypt("tok-999")
	require.NoError(t, err)
	assert.NotEqual(t, "tok-999", ciphertext)

	plaintext, err := encryptor.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "tok-999", plaintext)
}

func TestEncryptorWrongKey(t *testing.T) {
	first, err := NewEncryptor([]byte("key-one"))
	require.NoError(t, err)
	second, err := NewEncryptor([]byte("key-two"))
	require.NoError(t, err)

	ciphertext, err := first.Encrypt("tok-999")
	require.NoError(t, err)

	_, err = second.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestEncryptorRejectsBadInput(t *testing.T) {
	encryptor, err := NewEncryptor([]byte("key"))
	require.NoError(t, err)

	_, err = encryptor.Decrypt("not base64 !!!")
	assert.Error(t, err)

	_, err = encryptor.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestNewEncryptorRequiresKey(t *testing.T) {
	_, err := NewEncryptor(nil)
	assert.Error(t, err)
}
