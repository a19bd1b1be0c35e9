package model

import (
	"encoding/json"
	"testing"
)

func TestIsPaletteColor(t *testing.T) {
	for _, c := range Palette {
		if !IsPaletteColor(c) {
			t.Errorf("IsPaletteColor(%q) = false, want true", c)
		}
	}
	for _, c := range []string{"", DefaultTaskColor, "#FECACA", "blue"} {
		if IsPaletteColor(c) {
			t.Errorf("IsPaletteColor(%q) = true, want false", c)
		}
	}
}

func TestTaskColorFor(t *testing.T) {
	if got := TaskColorFor(""); got != DefaultTaskColor {
		t.Errorf("TaskColorFor(\"\") = %q, want %q", got, DefaultTaskColor)
	}
	if got := TaskColorFor("#fef08a"); got != "#fef08a" {
		t.Errorf("TaskColorFor(#fef08a) = %q", got)
	}
}

func TestIdentity_JSON(t *testing.T) {
	withColor, err := json.Marshal(Identity{ID: "u1", Email: "a@example.com", Color: "#fecaca"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(withColor) != `{"id":"u1","email":"a@example.com","color":"#fecaca"}` {
		t.Errorf("got %s", withColor)
	}

	noColor, err := json.Marshal(&Identity{ID: "u2", Email: "b@example.com"})
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if string(noColor) != `{"id":"u2","email":"b@example.com","color":null}` {
		t.Errorf("got %s", noColor)
	}

	var decoded Identity
	if err := json.Unmarshal(noColor, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if decoded.HasColor() {
		t.Errorf("decoded identity should have no color, got %q", decoded.Color)
	}
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	if !(TaskPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	done := true
	if (TaskPatch{Completed: &done}).IsEmpty() {
		t.Error("patch with completed should not be empty")
	}
	text := ""
	if (TaskPatch{Text: &text}).IsEmpty() {
		t.Error("patch with text pointer should not be empty")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewListNotFoundError("l1")
	if err.Error() != "[LIST_NOT_FOUND] 指定されたリストが見つかりません: l1" {
		t.Errorf("Error() = %q", err.Error())
	}
}
