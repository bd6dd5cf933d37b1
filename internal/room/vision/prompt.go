package vision

import (
	"strings"

	"room-studio/internal/room/models"
)

// Prompt - инструкция для модели: только JSON нужной формы.
func Prompt() string {
	styles := make([]string, 0, len(models.Styles()))
	for _, s := range models.Styles() {
		styles = append(styles, `"`+string(s)+`"`)
	}

	var b strings.Builder
	b.WriteString("Analyze this room image and describe its layout.\n")
	b.WriteString("Return a JSON object with this structure (no markdown, no backticks, no explanations):\n")
	b.WriteString("{\n")
	b.WriteString(`  "objects": [{"name": "bed", "x": 0.2, "y": 0.5, "width": 0.4, "height": 0.3}],` + "\n")
	b.WriteString(`  "style": ` + strings.Join(styles, " | ") + ",\n")
	b.WriteString(`  "colorPalette": ["#RRGGBB", "#RRGGBB", "#RRGGBB", "#RRGGBB", "#RRGGBB"]` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("Guidelines:\n")
	b.WriteString("- List every visible furniture or decorative item (bed, desk, chair, lamp, rug, curtain, chandelier, ...).\n")
	b.WriteString("- Object names must be unique; add a suffix such as chair_2 for repeated items.\n")
	b.WriteString("- x, y, width and height are floats between 0 and 1 relative to the image.\n")
	b.WriteString("- Choose exactly one style.\n")
	b.WriteString("- Include exactly 5 dominant colors as hex codes.\n")
	b.WriteString("- Only valid JSON.\n")
	return b.String()
}
