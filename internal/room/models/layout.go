package models

// ============================================================
// Style
// ============================================================

type Style string

const (
	StyleModern     Style = "modern"
	StyleCozy       Style = "cozy"
	StyleMinimalist Style = "minimalist"
	StyleGaming     Style = "gaming"
	StyleRustic     Style = "rustic"
	StyleIndustrial Style = "industrial"
	StyleOpen       Style = "open"
)

var knownStyles = []Style{
	StyleModern, StyleCozy, StyleMinimalist, StyleGaming, StyleRustic, StyleIndustrial, StyleOpen,
}

// Styles возвращает список распознаваемых стилей.
func Styles() []Style {
	out := make([]Style, len(knownStyles))
	copy(out, knownStyles)
	return out
}

func (s Style) Valid() bool {
	for _, k := range knownStyles {
		if s == k {
			return true
		}
	}
	return false
}

// PaletteSize - ровно столько цветов должно быть в палитре.
const PaletteSize = 5

// ============================================================
// Layout
// ============================================================

// LayoutObject - предмет мебели. Координаты нормированы на единичный квадрат,
// Name - ключ идентичности между правками.
type LayoutObject struct {
	Name   string       `json:"name"`
	X      Opt[float64] `json:"x,omitzero"`
	Y      Opt[float64] `json:"y,omitzero"`
	Width  Opt[float64] `json:"width,omitzero"`
	Height Opt[float64] `json:"height,omitzero"`
}

type LayoutDocument struct {
	Objects      []LayoutObject `json:"objects"`
	Style        Style          `json:"style"`
	ColorPalette []string       `json:"colorPalette"`
}

// Clone делает глубокую копию документа.
func (d LayoutDocument) Clone() LayoutDocument {
	out := LayoutDocument{Style: d.Style}
	if d.Objects != nil {
		out.Objects = make([]LayoutObject, len(d.Objects))
		copy(out.Objects, d.Objects)
	}
	if d.ColorPalette != nil {
		out.ColorPalette = make([]string, len(d.ColorPalette))
		copy(out.ColorPalette, d.ColorPalette)
	}
	return out
}

// Names возвращает имена объектов в порядке документа.
func (d LayoutDocument) Names() []string {
	names := make([]string, len(d.Objects))
	for i, o := range d.Objects {
		names[i] = o.Name
	}
	return names
}

// Find ищет объект по имени.
func (d LayoutDocument) Find(name string) (LayoutObject, bool) {
	for _, o := range d.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return LayoutObject{}, false
}

// ============================================================
// Edits
// ============================================================

// ObjectEdit - разреженная правка: перезаписываются только заданные поля.
// Name обязателен.
type ObjectEdit struct {
	Name   string       `json:"name"`
	X      Opt[float64] `json:"x,omitzero"`
	Y      Opt[float64] `json:"y,omitzero"`
	Width  Opt[float64] `json:"width,omitzero"`
	Height Opt[float64] `json:"height,omitzero"`
}

type EditRequest struct {
	Objects []ObjectEdit `json:"objects"`
}
