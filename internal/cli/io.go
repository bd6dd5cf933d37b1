package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"room-studio/internal/room/models"
)

func readLayout(path string) (models.LayoutDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.LayoutDocument{}, fmt.Errorf("read layout: %w", err)
	}
	var doc models.LayoutDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.LayoutDocument{}, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return doc, nil
}

// readEdits понимает и {"objects": [...]}, и голый массив правок.
func readEdits(path string) ([]models.ObjectEdit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edits: %w", err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var edits []models.ObjectEdit
		if err := json.Unmarshal(data, &edits); err != nil {
			return nil, fmt.Errorf("parse edits %s: %w", path, err)
		}
		return edits, nil
	}
	var req models.EditRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse edits %s: %w", path, err)
	}
	return req.Objects, nil
}

// writeJSON пишет v с отступами в файл или в w, если путь пуст.
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = w.Write(data)
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// sidecar заменяет расширение path на ext: out.json → out.txt.
func sidecar(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
