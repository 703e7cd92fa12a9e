// Package authscheme maps an integration's auth type and auth-config document
// onto the headers or transport options of an outbound request. The scheme set
// is closed; raw config maps never reach request-building code.
package authscheme

import (
	"fmt"
	"net/http"

	"github.com/CourseFlow-Devs/IntegraGate/pkg/models"
)

// Scheme applies one authentication variant to an outbound request.
type Scheme interface {
	Name() models.AuthType
	Apply(req *http.Request)
}

// None leaves the request untouched.
type None struct{}

func (None) Name() models.AuthType { return models.AuthNone }

func (None) Apply(req *http.Request) {}

// APIKey sets a configurable header to the key value.
type APIKey struct {
	Header string
	Key    string
}

func (APIKey) Name() models.AuthType { return models.AuthAPIKey }

func (a APIKey) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Key)
}

// Bearer sets the Authorization header with a static token.
type Bearer struct {
	Token string
}

func (Bearer) Name() models.AuthType { return models.AuthBearer }

func (b Bearer) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.Token)
}

// Basic sets transport-level basic auth credentials.
type Basic struct {
	Username string
	Password string
}

func (Basic) Name() models.AuthType { return models.AuthBasic }

func (b Basic) Apply(req *http.Request) {
	req.SetBasicAuth(b.Username, b.Password)
}

// OAuth substitutes a static access token. Token refresh is not handled at
// this layer; an expired token surfaces as a transport error.
type OAuth struct {
	AccessToken string
}

func (OAuth) Name() models.AuthType { return models.AuthOAuth }

func (o OAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+o.AccessToken)
}

// Parse narrows an auth-config document into its scheme variant. The config
// shape is validated here, immediately after deserialization, so every
// downstream consumer works with typed values.
func Parse(authType models.AuthType, cfg models.JSON) (Scheme, error) {
	switch authType {
	case models.AuthNone, "":
		return None{}, nil

	case models.AuthAPIKey:
		key := cfg.GetString("key", "")
		if key == "" {
			return nil, fmt.Errorf("api_key auth requires a key field")
		}
		return APIKey{
			Header: cfg.GetString("header", "X-API-Key"),
			Key:    key,
		}, nil

	case models.AuthBearer:
		token := cfg.GetString("token", "")
		if token == "" {
			return nil, fmt.Errorf("bearer auth requires a token field")
		}
		return Bearer{Token: token}, nil

	case models.AuthBasic:
		username := cfg.GetString("username", "")
		password := cfg.GetString("password", "")
		if username == "" || password == "" {
			return nil, fmt.Errorf("basic auth requires username and password fields")
		}
		return Basic{Username: username, Password: password}, nil

	case models.AuthOAuth:
		token := cfg.GetString("access_token", "")
		if token == "" {
			return nil, fmt.Errorf("oauth auth requires an access_token field")
		}
		return OAuth{AccessToken: token}, nil

	default:
		return nil, fmt.Errorf("unknown auth type: %s", authType)
	}
}
