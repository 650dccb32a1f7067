package request

import (
	"fmt"
	"net/url"
	"strings"
)

// parseQuery rebuilds a query string handed over from the UI bridge. Values
// of "null"/"undefined" are bridge artifacts and dropped; a "!" prefix
// marks a value that is already escaped.
func parseQuery(query string) string {
	if len(query) == 0 {
		return ""
	}
	queryString := make([]string, 0)
	for _, element := range strings.Split(query, "&") {
		parts := strings.SplitN(element, "=", 2)
		if len(parts) != 2 {
			continue
		}
		value := parts[1]
		if strings.EqualFold(value, "null") || strings.EqualFold(value, "undefined") {
			continue
		}
		if !strings.HasPrefix(value, "!") {
			value = url.QueryEscape(value)
		} else {
			value = strings.TrimPrefix(value, "!")
		}
		queryString = append(queryString, fmt.Sprintf("%s=%s", parts[0], value))
	}
	return strings.Join(queryString, "&")
}
