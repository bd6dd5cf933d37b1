// Package vision получает от модели структурное описание комнаты по фото.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"room-studio/internal/common/apperr"
	"room-studio/internal/room/gemini"
	"room-studio/internal/room/models"

	"google.golang.org/genai"
)

// Result - сырой текст ответа модели. Разбор делает ParseLayout, чтобы
// при ошибке текст оставался доступен для диагностики.
type Result struct {
	Raw   string
	Model string
}

type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (Result, error)
}

// ============================================================
// Gemini Analyzer
// ============================================================

type Gemini struct {
	models gemini.Generator
	model  string
	prompt string
}

func NewGemini(gen gemini.Generator, model string) *Gemini {
	if model == "" {
		model = gemini.DefaultVisionModel
	}
	return &Gemini{models: gen, model: model, prompt: Prompt()}
}

func (g *Gemini) Analyze(ctx context.Context, image []byte, mimeType string) (Result, error) {
	resp, err := g.models.GenerateContent(ctx, g.model,
		gemini.UserContent(image, mimeType, g.prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate: %w", err)
	}
	return Result{Raw: gemini.Text(resp), Model: g.model}, nil
}

// ============================================================
// Fixture Analyzer
// ============================================================

// Fixture отдаёт заранее подготовленный ответ. Используется в локальной
// разработке без ключа API и в тестах.
type Fixture struct {
	Raw string
	Err error
}

// NewFixtureFromFile читает ответ из файла.
func NewFixtureFromFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return &Fixture{Raw: string(data)}, nil
}

func (f *Fixture) Analyze(ctx context.Context, _ []byte, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if f.Err != nil {
		return Result{}, f.Err
	}
	return Result{Raw: f.Raw, Model: "fixture"}, nil
}

// ============================================================
// Parsing
// ============================================================

var fence = regexp.MustCompile("```(?:json)?\\s*")

// StripFences убирает markdown-обёртку ```json ... ```, которую модель
// иногда добавляет вопреки инструкции.
func StripFences(raw string) string {
	return strings.TrimSpace(fence.ReplaceAllString(raw, ""))
}

// ParseLayout разбирает ответ модели в документ. Невалидный JSON и JSON
// неподходящей формы - разные подвиды ANALYSIS; сырой текст прикладывается.
func ParseLayout(raw string) (models.LayoutDocument, error) {
	text := StripFences(raw)
	if text == "" || !json.Valid([]byte(text)) {
		return models.LayoutDocument{}, apperr.New(apperr.KindAnalysis, "model output is not valid JSON").
			WithSubkind(apperr.SubkindNotJSON).WithRaw(raw)
	}

	var doc models.LayoutDocument
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&doc); err != nil {
		return models.LayoutDocument{}, apperr.Wrap(apperr.KindAnalysis, err, "model output does not match the layout schema").
			WithSubkind(apperr.SubkindSchema).WithRaw(raw)
	}
	return doc, nil
}
