package render

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"room-studio/internal/room/models"

	"google.golang.org/genai"
)

func sampleRequest() Request {
	return Request{
		Layout: models.LayoutDocument{
			Objects: []models.LayoutObject{
				{Name: "bed_frame", X: models.Some(0.1), Y: models.Some(0.2), Width: models.Some(0.4), Height: models.Some(0.3)},
				{Name: "lamp", X: models.Some(0.7)},
			},
			Style:        models.StyleCozy,
			ColorPalette: []string{"#F5F5F0", "#8B5A2B", "#C19A6B", "#556B2F", "#2F4F4F"},
		},
		RoomType: "bedroom",
	}
}

func TestPrompt(t *testing.T) {
	req := sampleRequest()
	p := Prompt(req)
	for _, want := range []string{"bedroom", "cozy", "bed_frame at x=0.10, y=0.20, size 0.40 x 0.30", "lamp (position up to you)", "#8B5A2B"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}

	req.Style = "industrial"
	req.BaseImage = []byte{1}
	p = Prompt(req)
	if !strings.Contains(p, "Redesign the bedroom in this photo in a industrial style") {
		t.Fatalf("style override ignored:\n%s", p)
	}
}

func TestSketchPNG(t *testing.T) {
	img, err := NewSketch(FormatPNG).Render(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Fatalf("mime = %q", img.MIMEType)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 1024 || b.Dy() != 768 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestSketchSVG(t *testing.T) {
	img, err := NewSketch(FormatSVG).Render(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	svg := string(img.Data)
	if !strings.Contains(svg, `<rect id="bed_frame" x="102.4" y="153.6"`) {
		t.Fatalf("bed rect missing:\n%s", svg)
	}
	if strings.Contains(svg, `id="lamp"`) {
		t.Fatalf("object without geometry must be skipped")
	}
	if !strings.Contains(svg, "Bed Frame") {
		t.Fatalf("label missing")
	}
}

func TestSketchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSketch(FormatPNG).Render(ctx, sampleRequest()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRemoteRender(t *testing.T) {
	var gotLayout models.LayoutDocument
	var gotStyle, gotRoom string
	var gotImage []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.Unmarshal([]byte(r.FormValue("layout")), &gotLayout)
		gotStyle, gotRoom = r.FormValue("style"), r.FormValue("roomType")
		if f, _, err := r.FormFile("image"); err == nil {
			gotImage, _ = io.ReadAll(f)
			f.Close()
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	}))
	defer srv.Close()

	req := sampleRequest()
	req.BaseImage = []byte("jpeg-bytes")
	req.BaseMIMEType = "image/jpeg"

	img, err := NewRemote(srv.URL, srv.Client()).Render(context.Background(), req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if img.MIMEType != "image/jpeg" || len(img.Data) != 3 {
		t.Fatalf("unexpected image %+v", img)
	}
	if len(gotLayout.Objects) != 2 || gotStyle != "cozy" || gotRoom != "bedroom" {
		t.Fatalf("service got layout=%+v style=%q room=%q", gotLayout, gotStyle, gotRoom)
	}
	if string(gotImage) != "jpeg-bytes" {
		t.Fatalf("base image not forwarded: %q", gotImage)
	}
}

func TestRemoteRenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewRemote(srv.URL, nil).Render(context.Background(), sampleRequest())
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := NewRemote("", nil).Render(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

type fakeGenerator struct {
	resp *genai.GenerateContentResponse
	err  error
	got  []*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.got = contents
	return f.resp, f.err
}

func TestGeminiRender(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: []byte("png"), MIMEType: "image/png"}},
		}}}},
	}}
	req := sampleRequest()
	req.BaseImage, req.BaseMIMEType = []byte("src"), "image/jpeg"

	img, err := NewGemini(gen, "").Render(context.Background(), req)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(img.Data) != "png" || img.MIMEType != "image/png" {
		t.Fatalf("unexpected image %+v", img)
	}
	if len(gen.got[0].Parts) != 2 {
		t.Fatalf("base image not sent")
	}
}

func TestGeminiRenderNoImage(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "I can't draw that"}}}}},
	}}
	if _, err := NewGemini(gen, "").Render(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected error when no image returned")
	}
}
