package scrape

import (
	"context"

	"github.com/joonpark/curate-press/app/content"
)

// Result is a fetched rich body: the structured text blob plus the post's
// author when the platform exposes one.
type Result struct {
	Content string
	Author  string
}

// Scraper fetches the full body (and comment thread, where available) for
// a single post URL.
type Scraper interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Set dispatches to the right scraper for a classified platform. The
// platform set is closed, with the website scraper as explicit fallback.
type Set struct {
	scrapers map[content.Platform]Scraper
	fallback Scraper
}

func NewSet(actorClient *ActorClient, website *WebsiteScraper) *Set {
	return &Set{
		scrapers: map[content.Platform]Scraper{
			content.PlatformVideo:        NewPostScraper(actorClient, actorVideo),
			content.PlatformMicroblog:    NewPostScraper(actorClient, actorMicroblog),
			content.PlatformProfessional: NewPostScraper(actorClient, actorProfessional),
			content.PlatformThread:       NewPostScraper(actorClient, actorThread),
			content.PlatformGenericWeb:   website,
		},
		fallback: website,
	}
}

// ForPlatform returns the scraper handling the given platform.
func (s *Set) ForPlatform(platform content.Platform) Scraper {
	if scraper, ok := s.scrapers[platform]; ok {
		return scraper
	}
	return s.fallback
}
