package scrape

import (
	"strings"
	"testing"

	"github.com/joonpark/curate-press/app/content"
)

func TestBuildDocumentContinuationChain(t *testing.T) {
	item := postItem{
		RootPost: postBody{Text: "Main post.", User: user{Username: "writer"}},
		Comments: []commentItem{
			{
				Comment: postBody{Text: "Part two.", User: user{Username: "writer"}},
				Replies: []postBody{
					{Text: "Part three.", User: user{Username: "writer"}},
				},
			},
			{
				Comment: postBody{Text: "nice thread", User: user{Username: "fan"}, LikeCount: 3},
				Replies: []postBody{
					{Text: "agreed", User: user{Username: "other"}, LikeCount: 1},
				},
			},
		},
	}

	doc := buildDocument(item)

	if doc.MainBody != "Main post." {
		t.Errorf("Unexpected main body: %q", doc.MainBody)
	}
	if len(doc.Continuations) != 2 {
		t.Fatalf("Expected 2 continuations, got %d", len(doc.Continuations))
	}
	if doc.Continuations[1] != "Part three." {
		t.Errorf("Expected chained reply as continuation, got %q", doc.Continuations[1])
	}

	if len(doc.Comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(doc.Comments))
	}
	if doc.Comments[0].Text != "@fan (3): nice thread" || doc.Comments[0].IsReply {
		t.Errorf("Unexpected first comment: %+v", doc.Comments[0])
	}
	if !doc.Comments[1].IsReply {
		t.Error("Expected nested reply to be flagged")
	}
}

func TestBuildDocumentRoundTripsThroughParser(t *testing.T) {
	item := postItem{
		RootPost: postBody{Text: "Body.", User: user{Username: "writer"}},
		Comments: []commentItem{
			{Comment: postBody{Text: "follow-up", User: user{Username: "writer"}}},
			{Comment: postBody{Text: "comment", User: user{Username: "reader"}, LikeCount: 5}},
		},
	}

	serialized := buildDocument(item).String()
	parsed := content.ParseDocument(serialized)

	if !parsed.HasStructure {
		t.Fatal("Expected serialized document to parse as structured")
	}
	if len(parsed.Continuations) != 1 || parsed.Continuations[0] != "follow-up" {
		t.Errorf("Continuations lost in round trip: %+v", parsed.Continuations)
	}
	if len(parsed.Comments) != 1 || !strings.Contains(parsed.Comments[0].Text, "@reader") {
		t.Errorf("Comments lost in round trip: %+v", parsed.Comments)
	}
}

func TestBuildDocumentAnonymousCommenter(t *testing.T) {
	item := postItem{
		RootPost: postBody{Text: "Body.", User: user{Username: "writer"}},
		Comments: []commentItem{
			{Comment: postBody{Text: "drive-by"}},
		},
	}

	doc := buildDocument(item)

	if len(doc.Comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(doc.Comments))
	}
	if !strings.HasPrefix(doc.Comments[0].Text, "@anonymous") {
		t.Errorf("Expected anonymous placeholder, got %q", doc.Comments[0].Text)
	}
}
