package scrape

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joonpark/curate-press/app/content"
)

// postItem is the normalized dataset shape our scraping actors emit: one
// root post and its flattened comment tree.
type postItem struct {
	RootPost postBody      `json:"root_post"`
	Comments []commentItem `json:"comments"`
}

type postBody struct {
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	User      user   `json:"user"`
	LikeCount int    `json:"like_count"`
}

type commentItem struct {
	Comment postBody   `json:"comment"`
	Replies []postBody `json:"replies"`
}

type user struct {
	Username string `json:"username"`
}

// PostScraper fetches a single post page through a hosted actor and
// assembles the structured text blob.
type PostScraper struct {
	client  *ActorClient
	actorID string
}

func NewPostScraper(client *ActorClient, actorID string) *PostScraper {
	return &PostScraper{client: client, actorID: actorID}
}

func (s *PostScraper) Fetch(ctx context.Context, url string) (*Result, error) {
	items, err := s.client.RunSync(ctx, s.actorID, map[string]any{"urls": []string{url}})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("actor returned no items for %s", url)
	}

	var item postItem
	if err := json.Unmarshal(items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to decode post item: %w", err)
	}

	doc := buildDocument(item)
	return &Result{
		Content: doc.String(),
		Author:  item.RootPost.User.Username,
	}, nil
}

// buildDocument turns an actor item into the structured document. Top-level
// replies written by the post's own author form the continuation chain;
// everyone else's become the comment thread. The same-author heuristic is
// inherited from the upstream actors and applied as-is.
func buildDocument(item postItem) *content.Document {
	author := item.RootPost.User.Username

	doc := &content.Document{
		MainBody:     textOf(item.RootPost),
		HasStructure: true,
	}

	for _, ci := range item.Comments {
		if author != "" && ci.Comment.User.Username == author {
			doc.Continuations = append(doc.Continuations, textOf(ci.Comment))
			// A continuation's own replies may carry the next chain link.
			for _, reply := range ci.Replies {
				if reply.User.Username == author {
					doc.Continuations = append(doc.Continuations, textOf(reply))
				}
			}
			continue
		}

		doc.Comments = append(doc.Comments, commentLine(ci.Comment))
		for _, reply := range ci.Replies {
			if reply.User.Username == author {
				continue
			}
			line := commentLine(reply)
			line.IsReply = true
			doc.Comments = append(doc.Comments, line)
		}
	}

	return doc
}

func commentLine(body postBody) content.CommentLine {
	username := body.User.Username
	if username == "" {
		username = "anonymous"
	}
	return content.CommentLine{
		Text: fmt.Sprintf("@%s (%d): %s", username, body.LikeCount, textOf(body)),
	}
}

func textOf(body postBody) string {
	if body.Text != "" {
		return body.Text
	}
	return body.Caption
}
