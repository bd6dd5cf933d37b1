package layout

import (
	"reflect"
	"testing"

	"room-studio/internal/common/apperr"
	"room-studio/internal/room/models"
)

var palette = []string{"#112233", "#445566", "#778899", "#AABBCC", "#DDEEFF"}

func bedRoom() models.LayoutDocument {
	return models.LayoutDocument{
		Objects: []models.LayoutObject{
			{Name: "bed", X: models.Some(0.2), Y: models.Some(0.5), Width: models.Some(1.2), Height: models.Some(2.0)},
		},
		Style:        models.StyleModern,
		ColorPalette: append([]string(nil), palette...),
	}
}

func threeObjects() models.LayoutDocument {
	return models.LayoutDocument{
		Objects: []models.LayoutObject{
			{Name: "bed", X: models.Some(0.1), Y: models.Some(0.1), Width: models.Some(0.3), Height: models.Some(0.4)},
			{Name: "desk", X: models.Some(0.6), Y: models.Some(0.2), Width: models.Some(0.2), Height: models.Some(0.1)},
			{Name: "rug", X: models.Some(0.4), Y: models.Some(0.6), Width: models.Some(0.3), Height: models.Some(0.2)},
		},
		Style:        models.StyleCozy,
		ColorPalette: append([]string(nil), palette...),
	}
}

func TestMergeOverwritesOnlySetFields(t *testing.T) {
	got, err := Merge(bedRoom(), []models.ObjectEdit{{Name: "bed", X: models.Some(0.5)}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := []models.LayoutObject{
		{Name: "bed", X: models.Some(0.5), Y: models.Some(0.5), Width: models.Some(1.2), Height: models.Some(2.0)},
	}
	if !reflect.DeepEqual(got.Objects, want) {
		t.Fatalf("objects = %+v, want %+v", got.Objects, want)
	}
}

func TestMergeAppendsUnknownNames(t *testing.T) {
	lamp := models.ObjectEdit{Name: "lamp", X: models.Some(0.1), Y: models.Some(0.1), Width: models.Some(0.1), Height: models.Some(0.3)}
	got, err := Merge(bedRoom(), []models.ObjectEdit{lamp})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(got.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(got.Objects))
	}
	if got.Objects[0] != bedRoom().Objects[0] {
		t.Fatalf("bed changed: %+v", got.Objects[0])
	}
	wantLamp := models.LayoutObject{Name: "lamp", X: models.Some(0.1), Y: models.Some(0.1), Width: models.Some(0.1), Height: models.Some(0.3)}
	if got.Objects[1] != wantLamp {
		t.Fatalf("lamp = %+v, want %+v", got.Objects[1], wantLamp)
	}
}

func TestMergeMissingNameIsInvalidEdit(t *testing.T) {
	_, err := Merge(bedRoom(), []models.ObjectEdit{{X: models.Some(0.1)}})
	if !apperr.Is(err, apperr.KindInvalidEdit) {
		t.Fatalf("expected INVALID_EDIT, got %v", err)
	}
	e, _ := apperr.As(err)
	if e.Field != "objects[0].name" {
		t.Fatalf("field = %q", e.Field)
	}
}

func TestMergeIdentity(t *testing.T) {
	for _, base := range []models.LayoutDocument{bedRoom(), threeObjects(), {Style: models.StyleOpen, ColorPalette: palette}} {
		got, err := Merge(base, nil)
		if err != nil {
			t.Fatalf("merge: %v", err)
		}
		if !reflect.DeepEqual(got, base) {
			t.Fatalf("merge(B, []) = %+v, want %+v", got, base)
		}
	}
}

func TestMergeDoesNotMutateBase(t *testing.T) {
	base := threeObjects()
	snapshot := base.Clone()
	edits := []models.ObjectEdit{
		{Name: "desk", X: models.Some(0.9), Height: models.Some(0.05)},
		{Name: "chair", X: models.Some(0.3)},
	}
	if _, err := Merge(base, edits); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !reflect.DeepEqual(base, snapshot) {
		t.Fatalf("base mutated: %+v", base)
	}
}

func TestMergeDeterministic(t *testing.T) {
	base := threeObjects()
	edits := []models.ObjectEdit{
		{Name: "rug", Y: models.Some(0.7)},
		{Name: "plant", X: models.Some(0.9), Y: models.Some(0.9)},
		{Name: "bed", Width: models.Some(0.35)},
	}
	first, err := Merge(base, edits)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	second, err := Merge(base, edits)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestMergeCardinality(t *testing.T) {
	base := threeObjects()
	tests := []struct {
		name      string
		edits     []models.ObjectEdit
		wantLen   int
		wantNames []string
	}{
		{
			name:      "existing names only",
			edits:     []models.ObjectEdit{{Name: "rug", X: models.Some(0.0)}, {Name: "bed", Y: models.Some(1.0)}},
			wantLen:   3,
			wantNames: []string{"bed", "desk", "rug"},
		},
		{
			name:      "one unknown",
			edits:     []models.ObjectEdit{{Name: "lamp"}, {Name: "desk", X: models.Some(0.5)}},
			wantLen:   4,
			wantNames: []string{"bed", "desk", "rug", "lamp"},
		},
		{
			name:      "unknowns keep supplied order",
			edits:     []models.ObjectEdit{{Name: "shelf"}, {Name: "lamp"}, {Name: "chair"}},
			wantLen:   6,
			wantNames: []string{"bed", "desk", "rug", "shelf", "lamp", "chair"},
		},
		{
			name:      "repeated unknown counted once",
			edits:     []models.ObjectEdit{{Name: "lamp", X: models.Some(0.1)}, {Name: "lamp", X: models.Some(0.2)}},
			wantLen:   4,
			wantNames: []string{"bed", "desk", "rug", "lamp"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(base, tt.edits)
			if err != nil {
				t.Fatalf("merge: %v", err)
			}
			if len(got.Objects) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got.Objects), tt.wantLen)
			}
			if !reflect.DeepEqual(got.Names(), tt.wantNames) {
				t.Fatalf("names = %v, want %v", got.Names(), tt.wantNames)
			}
		})
	}
}

func TestMergeLastDuplicateWins(t *testing.T) {
	got, err := Merge(threeObjects(), []models.ObjectEdit{
		{Name: "desk", X: models.Some(0.3), Y: models.Some(0.3)},
		{Name: "desk", X: models.Some(0.7)},
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	desk, _ := got.Find("desk")
	if desk.X.Value != 0.7 {
		t.Fatalf("x = %v, want 0.7", desk.X.Value)
	}
	// Y из первой записи не применяется: используется только последняя.
	if desk.Y.Value != 0.2 {
		t.Fatalf("y = %v, want base 0.2", desk.Y.Value)
	}

	lampEdits := []models.ObjectEdit{{Name: "lamp", X: models.Some(0.1)}, {Name: "lamp", Y: models.Some(0.4)}}
	got, err = Merge(threeObjects(), lampEdits)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	lamp, _ := got.Find("lamp")
	if lamp.X.Set || lamp.Y.Value != 0.4 {
		t.Fatalf("lamp = %+v", lamp)
	}
}

func TestMergeKeepsStyleAndPalette(t *testing.T) {
	base := threeObjects()
	got, err := Merge(base, []models.ObjectEdit{{Name: "bed", X: models.Some(0.9)}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got.Style != base.Style || !reflect.DeepEqual(got.ColorPalette, base.ColorPalette) {
		t.Fatalf("style/palette changed: %v %v", got.Style, got.ColorPalette)
	}
	got.ColorPalette[0] = "#000000"
	if base.ColorPalette[0] == "#000000" {
		t.Fatalf("result shares palette with base")
	}
}

func TestMergeNewObjectLeavesGeometryUnset(t *testing.T) {
	got, err := Merge(bedRoom(), []models.ObjectEdit{{Name: "plant", X: models.Some(0.3)}})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	plant, ok := got.Find("plant")
	if !ok {
		t.Fatalf("plant not appended")
	}
	if plant.Y.Set || plant.Width.Set || plant.Height.Set {
		t.Fatalf("unexpected defaults: %+v", plant)
	}
}
