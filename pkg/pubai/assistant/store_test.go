package assistant

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreLoadAbsentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, nil)

	s.View(func(doc *StateDocument) {
		if len(doc.Buyers) != 0 || len(doc.Unlocked) != 0 || len(doc.Usage) != 0 {
			t.Errorf("expected empty document, got %+v", doc)
		}
		if doc.Buyers == nil || doc.Unlocked == nil || doc.Usage == nil {
			t.Error("collections must be initialized, not nil")
		}
	})
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path, nil)
	s.View(func(doc *StateDocument) {
		if len(doc.Buyers) != 0 {
			t.Errorf("corrupt file should reset to empty, got %+v", doc)
		}
	})
}

func TestStoreLoadMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty object", `{}`},
		{"only buyers", `{"buyers":["1"]}`},
		{"only usage", `{"usage":{"1":[100]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}

			s := NewStore(path, nil)
			s.View(func(doc *StateDocument) {
				if doc.Buyers == nil || doc.Unlocked == nil || doc.Usage == nil {
					t.Error("missing top-level keys must default to empty collections")
				}
			})
		})
	}
}

func TestStoreUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, nil)

	s.Update(func(doc *StateDocument) bool {
		doc.Buyers = append(doc.Buyers, "user-1")
		doc.Usage["user-1"] = []int64{123}
		return true
	})

	// Reopen from disk and check the round trip.
	reloaded := NewStore(path, nil)
	reloaded.View(func(doc *StateDocument) {
		if !doc.HasBuyer("user-1") {
			t.Error("buyer not persisted")
		}
		if len(doc.Usage["user-1"]) != 1 || doc.Usage["user-1"][0] != 123 {
			t.Errorf("usage not persisted, got %v", doc.Usage["user-1"])
		}
	})

	// The file on disk must be valid JSON at all times.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
}

func TestStoreUpdateNoChangeNoWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path, nil)

	s.Update(func(doc *StateDocument) bool { return false })

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no-change update must not create the state file")
	}
}
