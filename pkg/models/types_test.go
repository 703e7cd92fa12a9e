package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONValueScan(t *testing.T) {
	original := JSON{"endpoint": "https://example.com", "timeout": float64(10)}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned JSON
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)
}

func TestJSONScanNil(t *testing.T) {
	scanned := JSON{"stale": true}
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	var nilJSON JSON
	value, err := nilJSON.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestJSONScanString(t *testing.T) {
	var scanned JSON
	require.NoError(t, scanned.Scan(`{"method":"PUT"}`))
	assert.Equal(t, "PUT", scanned.GetString("method", "POST"))
}

func TestJSONGetString(t *testing.T) {
	j := JSON{"endpoint": "https://example.com", "empty": "", "number": float64(1)}

	assert.Equal(t, "https://example.com", j.GetString("endpoint", "fallback"))
	assert.Equal(t, "fallback", j.GetString("missing", "fallback"))
	assert.Equal(t, "fallback", j.GetString("empty", "fallback"))
	assert.Equal(t, "fallback", j.GetString("number", "fallback"))
}

func TestJSONGetInt(t *testing.T) {
	j := JSON{"unmarshalled": float64(30), "literal": 15, "text": "x"}

	assert.Equal(t, 30, j.GetInt("unmarshalled", 5))
	assert.Equal(t, 15, j.GetInt("literal", 5))
	assert.Equal(t, 5, j.GetInt("text", 5))
	assert.Equal(t, 5, j.GetInt("missing", 5))
}

func TestJSONGetStringMap(t *testing.T) {
	j := JSON{
		"headers": map[string]interface{}{
			"X-Course-Id": "cs101",
			"count":       float64(2),
		},
	}

	headers := j.GetStringMap("headers")
	assert.Equal(t, map[string]string{"X-Course-Id": "cs101"}, headers)
	assert.Empty(t, j.GetStringMap("missing"))
}

func TestWebhookMatches(t *testing.T) {
	literal := Webhook{EventType: "note.uploaded"}
	assert.True(t, literal.Matches("note.uploaded"))
	assert.False(t, literal.Matches("grade.published"))
	assert.False(t, literal.Matches("*"))

	wildcard := Webhook{EventType: WildcardEvent}
	assert.True(t, wildcard.Matches("note.uploaded"))
	assert.True(t, wildcard.Matches("grade.published"))
}

func TestIsValidType(t *testing.T) {
	for _, valid := range []IntegrationType{TypeAPI, TypeWebhook, TypeDatabase, TypeFile} {
		assert.True(t, IsValidType(valid), string(valid))
	}
	assert.False(t, IsValidType("ftp"))
}

func TestIsValidAuthType(t *testing.T) {
	for _, valid := range []AuthType{AuthNone, AuthAPIKey, AuthBearer, AuthBasic, AuthOAuth} {
		assert.True(t, IsValidAuthType(valid), string(valid))
	}
	assert.False(t, IsValidAuthType("kerberos"))
}
