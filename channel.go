package membership

import (
	"strings"
)

const (
	// TokenCookieName is the cookie carrying the token
	TokenCookieName = "token"
	// TokenQueryParam is the primary query parameter carrying the token
	TokenQueryParam = "token"
	// LegacyTokenQueryParam is the secondary query parameter
	LegacyTokenQueryParam = "jwtToken"
	// HeaderAuthorization is the header carrying a bearer token
	HeaderAuthorization = "Authorization"

	bearerPrefix = "bearer "
)

// TokenChannel reads a candidate token from one request location
type TokenChannel struct {
	Name    string
	Extract func(c RequestCarrier) string
}

// TokenChannels lists the carriers in the order they are consulted
var TokenChannels = []TokenChannel{
	{
		Name: "cookie:" + TokenCookieName,
		Extract: func(c RequestCarrier) string {
			return c.Cookies(TokenCookieName)
		},
	},
	{
		Name: "query:" + TokenQueryParam,
		Extract: func(c RequestCarrier) string {
			return c.Query(TokenQueryParam)
		},
	},
	{
		Name: "query:" + LegacyTokenQueryParam,
		Extract: func(c RequestCarrier) string {
			return c.Query(LegacyTokenQueryParam)
		},
	},
	{
		Name: "header:" + HeaderAuthorization,
		Extract: func(c RequestCarrier) string {
			return stripBearer(c.Header(HeaderAuthorization))
		},
	},
}

// ExtractToken returns the first structurally valid token found in
// the request, together with the name of the channel it came from.
func ExtractToken(c RequestCarrier) (token string, channel string, ok bool) {
	if c == nil {
		return "", "", false
	}

	for _, ch := range TokenChannels {
		candidate := strings.TrimSpace(ch.Extract(c))
		if IsStructuredToken(candidate) {
			return candidate, ch.Name, true
		}
	}

	return "", "", false
}

func stripBearer(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(value[len(bearerPrefix):])
	}
	return value
}

type ipCarrier interface {
	IP() string
}

// OriginAddress returns the client address for audit and login
// bookkeeping. X-Forwarded-For and X-Real-IP are only read when
// trustProxyHeaders is set, otherwise the carrier peer address is used.
func OriginAddress(c RequestCarrier, trustProxyHeaders bool) string {
	if c == nil {
		return ""
	}

	if trustProxyHeaders {
		if fwd := c.Header("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}

		if real := strings.TrimSpace(c.Header("X-Real-IP")); real != "" {
			return real
		}
	}

	if ipc, ok := c.(ipCarrier); ok {
		return ipc.IP()
	}

	return ""
}
