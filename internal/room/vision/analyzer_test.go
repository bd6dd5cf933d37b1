package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"room-studio/internal/common/apperr"

	"google.golang.org/genai"
)

const roomJSON = `{
  "objects": [{"name": "bed", "x": 0.2, "y": 0.5, "width": 0.4, "height": 0.3}],
  "style": "modern",
  "colorPalette": ["#112233", "#445566", "#778899", "#AABBCC", "#DDEEFF"]
}`

func TestParseLayoutStripsFences(t *testing.T) {
	doc, err := ParseLayout("```json\n" + roomJSON + "\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Objects) != 1 || doc.Objects[0].Name != "bed" || doc.Style != "modern" {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if doc.Objects[0].X.Value != 0.2 || !doc.Objects[0].Height.Set {
		t.Fatalf("geometry lost: %+v", doc.Objects[0])
	}
}

func TestParseLayoutSubkinds(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		subkind string
	}{
		{"prose", "Sorry, I cannot see a room here.", apperr.SubkindNotJSON},
		{"empty", "   ", apperr.SubkindNotJSON},
		{"truncated", `{"objects": [`, apperr.SubkindNotJSON},
		{"wrong shape", `{"objects": "bed", "style": "modern"}`, apperr.SubkindSchema},
		{"array", `[{"name": "bed"}]`, apperr.SubkindSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout(tt.raw)
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindAnalysis {
				t.Fatalf("expected ANALYSIS error, got %v", err)
			}
			if e.Subkind != tt.subkind {
				t.Fatalf("subkind = %q, want %q", e.Subkind, tt.subkind)
			}
			if e.Raw != tt.raw {
				t.Fatalf("raw text not preserved: %q", e.Raw)
			}
		})
	}
}

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGeminiAnalyze(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: roomJSON}}}}},
	}}
	a := NewGemini(gen, "")

	res, err := a.Analyze(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Raw != roomJSON || res.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected result %+v", res)
	}
	if gen.config == nil || gen.config.ResponseMIMEType != "application/json" {
		t.Fatalf("json response type not requested")
	}
	parts := gen.contents[0].Parts
	if parts[0].InlineData == nil || parts[0].InlineData.MIMEType != "image/jpeg" {
		t.Fatalf("image part missing")
	}
	if !strings.Contains(parts[1].Text, "colorPalette") {
		t.Fatalf("prompt does not describe the schema")
	}
}

func TestGeminiAnalyzeError(t *testing.T) {
	boom := errors.New("quota exceeded")
	a := NewGemini(&fakeGenerator{err: boom}, "custom")
	if _, err := a.Analyze(context.Background(), nil, ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.json")
	if err := os.WriteFile(path, []byte(roomJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewFixtureFromFile(path)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	res, err := f.Analyze(context.Background(), nil, "")
	if err != nil || res.Raw != roomJSON {
		t.Fatalf("analyze = %+v, %v", res, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Analyze(ctx, nil, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
