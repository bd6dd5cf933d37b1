// Package layout содержит проверку документа раскладки и слияние правок.
package layout

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"room-studio/internal/common/apperr"
	"room-studio/internal/room/models"
)

// ============================================================
// Range policy
// ============================================================

// Policy определяет, что делать с координатами вне [0,1].
type Policy string

const (
	PolicyReject Policy = "reject"
	PolicyClamp  Policy = "clamp"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyClamp:
		return PolicyClamp, nil
	default:
		return "", fmt.Errorf("unknown range policy %q", s)
	}
}

type Options struct {
	Policy Policy
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ============================================================
// Validate
// ============================================================

// Validate проверяет документ и возвращает его копию. При PolicyClamp
// координаты вне диапазона прижимаются к границам, иначе это ошибка.
// Исходный документ не меняется.
func Validate(doc models.LayoutDocument, opts Options) (models.LayoutDocument, error) {
	out := doc.Clone()
	if out.Objects == nil {
		out.Objects = []models.LayoutObject{}
	}

	seen := make(map[string]int, len(out.Objects))
	for i := range out.Objects {
		obj := &out.Objects[i]
		path := fmt.Sprintf("objects[%d]", i)

		if strings.TrimSpace(obj.Name) == "" {
			return models.LayoutDocument{}, invalid(path+".name", "object name is required")
		}
		if j, dup := seen[obj.Name]; dup {
			return models.LayoutDocument{}, invalid(path+".name", "duplicate object name %q (also at objects[%d])", obj.Name, j)
		}
		seen[obj.Name] = i

		fields := []struct {
			name string
			val  *models.Opt[float64]
		}{
			{"x", &obj.X},
			{"y", &obj.Y},
			{"width", &obj.Width},
			{"height", &obj.Height},
		}
		for _, f := range fields {
			if err := checkUnit(f.val, path+"."+f.name, opts.Policy); err != nil {
				return models.LayoutDocument{}, err
			}
		}
	}

	if !out.Style.Valid() {
		return models.LayoutDocument{}, invalid("style", "unknown style %q", out.Style)
	}

	if len(out.ColorPalette) != models.PaletteSize {
		return models.LayoutDocument{}, invalid("colorPalette", "expected %d colors, got %d", models.PaletteSize, len(out.ColorPalette))
	}
	for i, c := range out.ColorPalette {
		if !hexColor.MatchString(c) {
			return models.LayoutDocument{}, invalid(fmt.Sprintf("colorPalette[%d]", i), "%q is not a #RRGGBB color", c)
		}
	}

	return out, nil
}

func checkUnit(v *models.Opt[float64], path string, policy Policy) error {
	val, ok := v.Get()
	if !ok {
		return invalid(path, "value is required")
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return invalid(path, "value must be a finite number")
	}
	if val >= 0 && val <= 1 {
		return nil
	}
	if policy == PolicyClamp {
		*v = models.Some(math.Min(1, math.Max(0, val)))
		return nil
	}
	return invalid(path, "value %g is outside [0,1]", val)
}

func invalid(field, format string, args ...any) error {
	return apperr.New(apperr.KindValidation, format, args...).WithField(field)
}
