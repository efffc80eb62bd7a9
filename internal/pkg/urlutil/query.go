package urlutil

import (
	"net/url"
	"strings"
)

// HasQueryParam reports whether the query string of rawURL carries key.
// rawURL may be a bare path such as "/rest/v1.0/projects?company_id=1".
func HasQueryParam(rawURL, key string) bool {
	idx := strings.Index(rawURL, "?")
	if idx == -1 {
		return false
	}
	query := rawURL[idx+1:]
	if frag := strings.Index(query, "#"); frag != -1 {
		query = query[:frag]
	}
	// ParseQuery keeps the well-formed pairs even when it reports an error
	values, _ := url.ParseQuery(query)
	return values.Has(key)
}

// AppendQueryParam appends key=value to rawURL, using "?" when there is no
// query string yet and "&" otherwise. The value is query-escaped.
func AppendQueryParam(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
		if strings.HasSuffix(rawURL, "?") || strings.HasSuffix(rawURL, "&") {
			sep = ""
		}
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

// PathSegment escapes s for use as a single path segment
func PathSegment(s string) string {
	return url.PathEscape(s)
}
