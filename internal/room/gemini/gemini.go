// Package gemini - общий слой над google.golang.org/genai для анализа фото и
// генерации изображений.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultVisionModel = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image"
)

// Generator - метод GenerateContent из *genai.Models; подменяется в тестах.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewModels создаёт клиента Gemini API и возвращает его сервис моделей.
func NewModels(ctx context.Context, apiKey string) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return client.Models, nil
}

// UserContent собирает пользовательское сообщение из картинки (если есть) и текста.
func UserContent(image []byte, mimeType, text string) []*genai.Content {
	var parts []*genai.Part
	if len(image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(image, mimeType))
	}
	parts = append(parts, genai.NewPartFromText(text))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// Text склеивает текстовые части первого кандидата.
func Text(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Image возвращает первую inline-картинку из ответа.
func Image(resp *genai.GenerateContentResponse) ([]byte, string, bool) {
	if resp == nil {
		return nil, "", false
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				return p.InlineData.Data, p.InlineData.MIMEType, true
			}
		}
	}
	return nil, "", false
}
