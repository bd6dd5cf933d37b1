package render

import (
	"context"
	"fmt"

	"room-studio/internal/room/gemini"
)

// ============================================================
// Gemini Renderer
// ============================================================

type Gemini struct {
	models gemini.Generator
	model  string
}

func NewGemini(gen gemini.Generator, model string) *Gemini {
	if model == "" {
		model = gemini.DefaultImageModel
	}
	return &Gemini{models: gen, model: model}
}

// Render отправляет фото и текстовое описание раскладки. Ответ без картинки -
// ошибка: пустой результат не считается успехом.
func (g *Gemini) Render(ctx context.Context, req Request) (Image, error) {
	resp, err := g.models.GenerateContent(ctx, g.model,
		gemini.UserContent(req.BaseImage, req.BaseMIMEType, Prompt(req)), nil)
	if err != nil {
		return Image{}, fmt.Errorf("gemini generate: %w", err)
	}
	data, mimeType, ok := gemini.Image(resp)
	if !ok {
		return Image{}, fmt.Errorf("gemini returned no image (text: %q)", gemini.Text(resp))
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}
