package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionRoundTrip(t *testing.T) {
	enc, err := NewEncryption("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	plaintext := `{"token":"tok-123"}`
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)
	assert.NotContains(t, ciphertext, "tok-123")

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptionKeyLength(t *testing.T) {
	_, err := NewEncryption("too-short")
	assert.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	enc, err := NewEncryption("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	_, err = enc.Decrypt("not-base64!!!")
	assert.Error(t, err)

	_, err = enc.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator()

	uuid := tg.GenerateIntegrationUUID()
	assert.Len(t, uuid, 36)
	assert.NotEqual(t, uuid, tg.GenerateIntegrationUUID())

	secret, err := tg.GenerateWebhookSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	other, err := tg.GenerateWebhookSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestJWTRoundTrip(t *testing.T) {
	jm := NewJWTManager("test-secret")

	token, err := jm.GenerateToken("admin", "superuser", time.Hour)
	require.NoError(t, err)

	claims, err := jm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "superuser", claims.Role)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	jm := NewJWTManager("test-secret")

	_, err := jm.ValidateToken("not-a-token")
	assert.Error(t, err)

	expired, err := jm.GenerateToken("admin", "superuser", -time.Hour)
	require.NoError(t, err)
	_, err = jm.ValidateToken(expired)
	assert.Error(t, err)

	foreign, err := NewJWTManager("other-secret").GenerateToken("admin", "superuser", time.Hour)
	require.NoError(t, err)
	_, err = jm.ValidateToken(foreign)
	assert.Error(t, err)
}

func TestValidateURL(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateURL("https://example.com/hook"))
	assert.True(t, v.ValidateURL("http://localhost:8080/x"))
	assert.False(t, v.ValidateURL("ftp://example.com"))
	assert.False(t, v.ValidateURL("not a url"))
	assert.False(t, v.ValidateURL(""))
}

func TestValidateEventType(t *testing.T) {
	v := NewValidator()

	assert.True(t, v.ValidateEventType("note.uploaded"))
	assert.True(t, v.ValidateEventType("grade.published"))
	assert.True(t, v.ValidateEventType("system_error"))
	assert.True(t, v.ValidateEventType("*"))
	assert.False(t, v.ValidateEventType("Note.Uploaded"))
	assert.False(t, v.ValidateEventType("note..uploaded"))
	assert.False(t, v.ValidateEventType("note uploaded"))
	assert.False(t, v.ValidateEventType(""))
}

func TestSanitizeInput(t *testing.T) {
	v := NewValidator()

	assert.Equal(t, "crm", v.SanitizeInput("  crm  "))
	assert.Equal(t, "crm", v.SanitizeInput("crm\x00"))
	assert.Equal(t, "ab", v.SanitizeInput("a\x1fb"))
}

func TestPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 4, p.TotalPages)
	assert.Equal(t, 10, p.GetOffset())

	clamped := NewPagination(0, 500, 0)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, 100, clamped.Limit)
	assert.Equal(t, 1, clamped.TotalPages)
}
