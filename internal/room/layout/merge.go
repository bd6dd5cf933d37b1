package layout

import (
	"fmt"

	"room-studio/internal/common/apperr"
	"room-studio/internal/room/models"
)

// ============================================================
// Merge
// ============================================================

// Merge накладывает разреженные правки на base и возвращает новый документ.
//
// Объекты base остаются на своих местах; у совпавших по имени перезаписываются
// только заданные в правке поля. Правки с новыми именами добавляются в конец
// в порядке их первого появления. При повторе имени в edits побеждает последняя
// запись. Style и ColorPalette переносятся из base без изменений, сам base не
// меняется.
func Merge(base models.LayoutDocument, edits []models.ObjectEdit) (models.LayoutDocument, error) {
	byName := make(map[string]models.ObjectEdit, len(edits))
	order := make([]string, 0, len(edits))
	for i, e := range edits {
		if e.Name == "" {
			return models.LayoutDocument{}, apperr.New(apperr.KindInvalidEdit, "edit entry has no name").
				WithField(fmt.Sprintf("objects[%d].name", i))
		}
		if _, dup := byName[e.Name]; !dup {
			order = append(order, e.Name)
		}
		byName[e.Name] = e
	}

	out := base.Clone()
	existing := make(map[string]struct{}, len(out.Objects))
	for i := range out.Objects {
		obj := &out.Objects[i]
		existing[obj.Name] = struct{}{}
		if e, ok := byName[obj.Name]; ok {
			apply(obj, e)
		}
	}

	for _, name := range order {
		if _, ok := existing[name]; ok {
			continue
		}
		obj := models.LayoutObject{Name: name}
		apply(&obj, byName[name])
		out.Objects = append(out.Objects, obj)
	}

	return out, nil
}

func apply(obj *models.LayoutObject, e models.ObjectEdit) {
	if e.X.Set {
		obj.X = e.X
	}
	if e.Y.Set {
		obj.Y = e.Y
	}
	if e.Width.Set {
		obj.Width = e.Width
	}
	if e.Height.Set {
		obj.Height = e.Height
	}
}
