package security

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "wrong horse"), ErrPasswordMismatch)

	_, err = h.Hash(strings.Repeat("x", MaxPasswordLen+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	assert.ErrorIs(t, h.Compare("", "correct horse"), ErrPasswordMismatch)
}

func TestAESEncryptorRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := enc.EncryptString("asthma since 2012")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "asthma")

	plain, err := enc.DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "asthma since 2012", plain)

	empty, err := enc.EncryptString("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAESEncryptorRejectsTampering(t *testing.T) {
	enc, err := NewAESEncryptor(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := enc.EncryptString("allergic to penicillin")
	require.NoError(t, err)

	other, err := NewAESEncryptor(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)
	_, err = other.DecryptString(sealed)
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = enc.DecryptString("not base64!")
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestNewAESEncryptorKeySize(t *testing.T) {
	_, err := NewAESEncryptor([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}
