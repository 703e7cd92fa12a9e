package authscheme

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		authType models.AuthType
		cfg      models.JSON
		want     Scheme
		wantErr  bool
	}{
		{"none", models.AuthNone, nil, None{}, false},
		{"empty type defaults to none", "", nil, None{}, false},
		{"api key", models.AuthAPIKey, models.JSON{"key": "k1"}, APIKey{Header: "X-API-Key", Key: "k1"}, false},
		{"api key custom header", models.AuthAPIKey, models.JSON{"key": "k1", "header": "X-Custom"}, APIKey{Header: "X-Custom", Key: "k1"}, false},
		{"api key missing key", models.AuthAPIKey, models.JSON{}, nil, true},
		{"bearer", models.AuthBearer, models.JSON{"token": "tok"}, Bearer{Token: "tok"}, false},
		{"bearer missing token", models.AuthBearer, nil, nil, true},
		{"basic", models.AuthBasic, models.JSON{"username": "u", "password": "p"}, Basic{Username: "u", Password: "p"}, false},
		{"basic missing password", models.AuthBasic, models.JSON{"username": "u"}, nil, true},
		{"oauth", models.AuthOAuth, models.JSON{"access_token": "at"}, OAuth{AccessToken: "at"}, false},
		{"oauth missing token", models.AuthOAuth, models.JSON{}, nil, true},
		{"unknown type", "kerberos", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.authType, tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	newReq := func() *http.Request {
		req, _ := http.NewRequest(http.MethodPost, "http://example.com", nil)
		return req
	}

	t.Run("none leaves request untouched", func(t *testing.T) {
		req := newReq()
		None{}.Apply(req)
		assert.Empty(t, req.Header)
	})

	t.Run("api key sets header", func(t *testing.T) {
		req := newReq()
		APIKey{Header: "X-API-Key", Key: "k1"}.Apply(req)
		assert.Equal(t, "k1", req.Header.Get("X-API-Key"))
	})

	t.Run("bearer sets authorization", func(t *testing.T) {
		req := newReq()
		Bearer{Token: "tok"}.Apply(req)
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	})

	t.Run("basic sets credentials", func(t *testing.T) {
		req := newReq()
		Basic{Username: "u", Password: "p"}.Apply(req)
		user, pass, ok := req.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "u", user)
		assert.Equal(t, "p", pass)
	})

	t.Run("oauth sets bearer token", func(t *testing.T) {
		req := newReq()
		OAuth{AccessToken: "at"}.Apply(req)
		assert.Equal(t, "Bearer at", req.Header.Get("Authorization"))
	})
}
