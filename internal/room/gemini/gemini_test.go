package gemini

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestTextJoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"objects":`}, {Text: `[]}`}}},
		}},
	}
	if got := Text(resp); got != `{"objects":[]}` {
		t.Fatalf("Text = %q", got)
	}
	if Text(nil) != "" || Text(&genai.GenerateContentResponse{}) != "" {
		t.Fatalf("empty response should give empty text")
	}
}

func TestImagePicksFirstInlineData(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}},
			}},
		}},
	}
	data, mime, ok := Image(resp)
	if !ok || mime != "image/png" || len(data) != 4 {
		t.Fatalf("Image = %v %q %v", data, mime, ok)
	}
	if _, _, ok := Image(&genai.GenerateContentResponse{}); ok {
		t.Fatalf("expected no image")
	}
}

func TestUserContentOrder(t *testing.T) {
	contents := UserContent([]byte{1, 2}, "image/jpeg", "describe")
	if len(contents) != 1 || len(contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents %+v", contents)
	}
	if contents[0].Parts[0].InlineData == nil || contents[0].Parts[1].Text != "describe" {
		t.Fatalf("image must precede prompt")
	}
	if got := UserContent(nil, "", "only text"); len(got[0].Parts) != 1 {
		t.Fatalf("text-only content should have one part")
	}
}

func TestNewModelsRequiresKey(t *testing.T) {
	if _, err := NewModels(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
}
