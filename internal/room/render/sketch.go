package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"room-studio/internal/room/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// ============================================================
// Sketch Renderer
// ============================================================

type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// Sketch рисует план раскладки: фон первым цветом палитры, предметы -
// прямоугольниками остальных цветов с подписями.
type Sketch struct {
	Width  int
	Height int
	Format Format
}

func NewSketch(format Format) *Sketch {
	if format == "" {
		format = FormatPNG
	}
	return &Sketch{Width: 1024, Height: 768, Format: format}
}

func (s *Sketch) Render(ctx context.Context, req Request) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	boxes := s.boxes(req.Layout)

	switch s.Format {
	case FormatSVG:
		return Image{Data: []byte(s.renderSVG(req, boxes)), MIMEType: "image/svg+xml"}, nil
	case FormatPNG:
		data, err := s.renderPNG(req, boxes)
		if err != nil {
			return Image{}, err
		}
		return Image{Data: data, MIMEType: "image/png"}, nil
	default:
		return Image{}, fmt.Errorf("unknown sketch format %q", s.Format)
	}
}

type box struct {
	name       string
	x, y, w, h float64
	fill       string
}

// boxes переводит нормированные координаты в пиксели. Предметы без полной
// геометрии пропускаются.
func (s *Sketch) boxes(doc models.LayoutDocument) []box {
	var out []box
	fills := paletteFills(doc.ColorPalette)
	for i, o := range doc.Objects {
		x, ok1 := o.X.Get()
		y, ok2 := o.Y.Get()
		w, ok3 := o.Width.Get()
		h, ok4 := o.Height.Get()
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		out = append(out, box{
			name: o.Name,
			x:    clamp(x, 0, 1) * float64(s.Width),
			y:    clamp(y, 0, 1) * float64(s.Height),
			w:    math.Max(clamp(w, 0, 1)*float64(s.Width), 2),
			h:    math.Max(clamp(h, 0, 1)*float64(s.Height), 2),
			fill: fills[i%len(fills)],
		})
	}
	return out
}

func (s *Sketch) renderSVG(req Request, boxes []box) string {
	bg := background(req.Layout.ColorPalette)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		s.Width, s.Height, s.Width, s.Height))
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf(`  <rect x="0" y="0" width="%d" height="%d" fill="%s" />`, s.Width, s.Height, bg))
	builder.WriteString("\n")

	for _, b := range boxes {
		builder.WriteString(fmt.Sprintf(`  <rect id="%s" x="%s" y="%s" width="%s" height="%s" fill="%s" fill-opacity="0.75" stroke="#000" />`,
			html.EscapeString(b.name), formatFloat(b.x), formatFloat(b.y), formatFloat(b.w), formatFloat(b.h), b.fill))
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf(`  <text x="%s" y="%s" font-family="sans-serif" font-size="14" text-anchor="middle">%s</text>`,
			formatFloat(b.x+b.w/2), formatFloat(b.y+b.h/2), html.EscapeString(label(b.name))))
		builder.WriteString("\n")
	}

	builder.WriteString(fmt.Sprintf(`  <text x="12" y="%d" font-family="sans-serif" font-size="16">%s</text>`,
		s.Height-12, html.EscapeString(caption(req))))
	builder.WriteString("\n")
	builder.WriteString(`</svg>`)
	return builder.String()
}

func (s *Sketch) renderPNG(req Request, boxes []box) ([]byte, error) {
	dc := gg.NewContext(s.Width, s.Height)
	dc.SetHexColor(background(req.Layout.ColorPalette))
	dc.Clear()

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 14}))

	for _, b := range boxes {
		r, g, bl := parseHex(b.fill)
		dc.SetRGBA255(r, g, bl, 190)
		dc.DrawRectangle(b.x, b.y, b.w, b.h)
		dc.Fill()

		dc.SetLineWidth(1.5)
		dc.SetRGB(0, 0, 0)
		dc.DrawRectangle(b.x, b.y, b.w, b.h)
		dc.Stroke()

		dc.DrawStringAnchored(label(b.name), b.x+b.w/2, b.y+b.h/2, 0.5, 0.5)
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawString(caption(req), 12, float64(s.Height-12))

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ============================================================
// Helpers
// ============================================================

func background(palette []string) string {
	if len(palette) > 0 {
		return palette[0]
	}
	return "#FFFFFF"
}

func paletteFills(palette []string) []string {
	if len(palette) > 1 {
		return palette[1:]
	}
	return []string{"#9E9E9E"}
}

func caption(req Request) string {
	room := req.RoomType
	if room == "" {
		room = "room"
	}
	return fmt.Sprintf("%s · %s", room, req.EffectiveStyle())
}

// label делает из bed_frame подпись "Bed Frame".
func label(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

func parseHex(c string) (int, int, int) {
	v, err := strconv.ParseUint(strings.TrimPrefix(c, "#"), 16, 32)
	if err != nil || len(c) != 7 {
		return 158, 158, 158
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
