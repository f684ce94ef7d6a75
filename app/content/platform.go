package content

import "strings"

// Platform identifies the kind of source a URL points at. Stored as plain
// strings in the database, so values must stay stable.
type Platform string

const (
	PlatformVideo        Platform = "video"
	PlatformMicroblog    Platform = "microblog"
	PlatformProfessional Platform = "professional"
	PlatformThread       Platform = "thread"
	PlatformGenericWeb   Platform = "generic-web"
)

type platformMarker struct {
	substring string
	platform  Platform
}

// Ordered list, first match wins.
var platformMarkers = []platformMarker{
	{"youtube.com", PlatformVideo},
	{"youtu.be", PlatformVideo},
	{"twitter.com", PlatformMicroblog},
	{"x.com", PlatformMicroblog},
	{"linkedin.com", PlatformProfessional},
	{"threads.net", PlatformThread},
}

// ClassifyPlatform maps a URL to a platform kind by case-insensitive
// substring matching. Unmatched URLs (and empty ones) fall back to
// generic-web, so the function is total.
func ClassifyPlatform(url string) Platform {
	if url == "" {
		return PlatformGenericWeb
	}

	lowered := strings.ToLower(url)
	for _, marker := range platformMarkers {
		if strings.Contains(lowered, marker.substring) {
			return marker.platform
		}
	}

	return PlatformGenericWeb
}
