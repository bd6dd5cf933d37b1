// Package render превращает документ раскладки в изображение.
//
// Реализации:
//   - Gemini: генерация фотореалистичного кадра моделью изображений;
//   - Sketch: локальная схема раскладки в PNG или SVG, без сети;
//   - Remote: внешний сервис рендера по HTTP (multipart).
package render

import (
	"context"
	"fmt"
	"strings"

	"room-studio/internal/room/models"
)

type Request struct {
	Layout       models.LayoutDocument
	BaseImage    []byte // исходное фото, может отсутствовать
	BaseMIMEType string
	RoomType     string // "bedroom", "office", ...
	Style        string // пусто - стиль документа
}

type Image struct {
	Data     []byte
	MIMEType string
}

type Renderer interface {
	Render(ctx context.Context, req Request) (Image, error)
}

// EffectiveStyle возвращает запрошенный стиль или стиль документа.
func (r Request) EffectiveStyle() string {
	if s := strings.TrimSpace(r.Style); s != "" {
		return s
	}
	return string(r.Layout.Style)
}

// ============================================================
// Prompt
// ============================================================

// Prompt описывает целевую раскладку текстом для модели изображений.
func Prompt(req Request) string {
	room := strings.TrimSpace(req.RoomType)
	if room == "" {
		room = "room"
	}

	var b strings.Builder
	if len(req.BaseImage) > 0 {
		fmt.Fprintf(&b, "Redesign the %s in this photo in a %s style. Keep the camera viewpoint and the room geometry.\n", room, req.EffectiveStyle())
	} else {
		fmt.Fprintf(&b, "Render a photorealistic %s in a %s style.\n", room, req.EffectiveStyle())
	}
	b.WriteString("Place the furniture exactly as listed. Coordinates are fractions of the image, origin at the top-left corner:\n")
	for _, o := range req.Layout.Objects {
		x, xok := o.X.Get()
		y, yok := o.Y.Get()
		if !xok || !yok {
			fmt.Fprintf(&b, "- %s (position up to you)\n", o.Name)
			continue
		}
		fmt.Fprintf(&b, "- %s at x=%.2f, y=%.2f", o.Name, x, y)
		if w, ok := o.Width.Get(); ok {
			if h, ok := o.Height.Get(); ok {
				fmt.Fprintf(&b, ", size %.2f x %.2f", w, h)
			}
		}
		b.WriteString("\n")
	}
	if len(req.Layout.ColorPalette) > 0 {
		fmt.Fprintf(&b, "Use this color palette: %s.\n", strings.Join(req.Layout.ColorPalette, ", "))
	}
	b.WriteString("Return only the image.")
	return b.String()
}
