package auth

import (
	"encoding/base64"
	"strings"

	"github.com/getmockd/specimport/pkg/canonical"
)

// Header spellings removed when a competing credential is set. Matching is
// exact, so other casings survive.
var (
	authorizationHeaders = []string{"Authorization", "authorization"}
	apiKeyHeaders        = []string{"X-API-Key", "x-api-key"}
	tokenHeaders         = []string{"X-API-Key", "x-api-key", "X-Auth-Token", "x-auth-token"}
)

// Apply returns a copy of req with cfg's credentials written into its
// headers. req is never modified. A nil cfg behaves like None.
func Apply(req canonical.Request, cfg Config) canonical.Request {
	out := req
	out.Headers = req.Headers.Clone()

	switch c := Normalize(cfg).(type) {
	case APIKey:
		out.Headers.Del(authorizationHeaders...)
		out.Headers.Set(c.Key, c.Value)
	case Bearer:
		out.Headers.Del(tokenHeaders...)
		out.Headers.Set("Authorization", "Bearer "+c.Token)
	case Basic:
		out.Headers.Del(tokenHeaders...)
		creds := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
		out.Headers.Set("Authorization", "Basic "+creds)
	case Custom:
		if strings.EqualFold(c.Header, "authorization") {
			out.Headers.Del(apiKeyHeaders...)
		}
		out.Headers.Set(c.Header, c.Value)
	}
	return out
}
