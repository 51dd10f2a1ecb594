package build

import (
	"maps"
	"strings"
)

// Build argument names carrying the proxy settings. The lowercase spelling
// matches the ARG declarations in the tracker Dockerfile.
const (
	argHTTPProxy  = "http_proxy"
	argHTTPSProxy = "https_proxy"
	argNoProxy    = "no_proxy"
)

// Proxy settings for the build.
//
// The zero value forwards empty strings, matching an environment where none
// of the proxy variables are set.
type Proxy struct {
	HTTP    string // Value of http_proxy.
	HTTPS   string // Value of https_proxy.
	NoProxy string // Value of no_proxy.
}

// Returns the proxy settings as build arguments.
//
// All three arguments are always present. Values are forwarded verbatim.
func (p Proxy) args() map[string]string {
	return map[string]string{
		argHTTPProxy:  p.HTTP,
		argHTTPSProxy: p.HTTPS,
		argNoProxy:    p.NoProxy,
	}
}

// Resolves the build arguments for a request.
//
// Extra arguments are applied first and the proxy arguments last, so an
// extra argument cannot shadow a proxy value. Every value gets its own
// pointer, as required by the engine API where a nil value means "take it
// from the daemon's environment".
func buildArgs(extra map[string]string, proxy Proxy) map[string]*string {
	merged := make(map[string]string, len(extra)+3)
	maps.Copy(merged, extra)
	maps.Copy(merged, proxy.args())

	args := make(map[string]*string, len(merged))
	for k, v := range merged {
		args[k] = &v
	}
	return args
}

// Parses "KEY=VALUE" entries into a map.
//
// Entries without "=" map the key to the empty string. Later entries
// override earlier ones.
func ParseArgs(entries []string) map[string]string {
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		k, v, _ := strings.Cut(entry, "=")
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
