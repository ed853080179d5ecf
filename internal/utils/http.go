package utils

import (
	"net/url"
	"strings"
)

// ResolveMediaURL resolves a creative file reference against the media base
// URL. Absolute references and an empty base are returned unchanged.
func ResolveMediaURL(baseURL, fileURL string) string {
	if baseURL == "" || fileURL == "" {
		return fileURL
	}
	ref, err := url.Parse(fileURL)
	if err != nil || ref.IsAbs() {
		return fileURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return fileURL
	}
	return base.ResolveReference(&url.URL{Path: strings.TrimPrefix(ref.Path, "/"), RawQuery: ref.RawQuery}).String()
}
