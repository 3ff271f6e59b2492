package services

import (
	"net/url"
	"strings"
)

var (
	errorParams  = []string{"error", "error_description", "error_code"}
	markerParams = []string{"access_token", "code", "state"}
)

// urlParams merges the query and the fragment of raw; providers use both.
func urlParams(raw string) url.Values {
	out := url.Values{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	u, err := url.Parse(raw)
	if err != nil {
		return out
	}
	for k, v := range u.Query() {
		out[k] = append(out[k], v...)
	}
	if frag, err := url.ParseQuery(strings.TrimPrefix(u.Fragment, "/")); err == nil {
		for k, v := range frag {
			out[k] = append(out[k], v...)
		}
	}
	return out
}

func hasAny(raw string, keys []string) bool {
	params := urlParams(raw)
	for _, k := range keys {
		if params.Get(k) != "" {
			return true
		}
	}
	return false
}

// hasErrorIndicator reports an OAuth provider error in the URL.
func hasErrorIndicator(raw string) bool {
	return hasAny(raw, errorParams)
}

// hasOAuthMarkers reports an OAuth redirect that may still be exchanging
// its code for a session.
func hasOAuthMarkers(raw string) bool {
	return hasAny(raw, markerParams)
}
