package catalog

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", c.Len())
	}

	// IDs run 1..N and match the list order.
	for i, s := range c.Stages() {
		if s.ID != i+1 {
			t.Errorf("stages[%d].ID = %d, want %d", i, s.ID, i+1)
		}
	}

	compass, ok := c.ByID(4)
	if !ok {
		t.Fatal("stage 4 missing")
	}
	if compass.Wrap != 360 {
		t.Errorf("compass wrap = %v, want 360", compass.Wrap)
	}

	if _, ok := c.ByID(11); ok {
		t.Error("ByID(11) = ok for a ten-stage catalog")
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		stages []Stage
	}{
		{"empty", nil},
		{"zero id", []Stage{{ID: 0, Title: "bad"}}},
		{"duplicate id", []Stage{{ID: 1, Title: "a"}, {ID: 1, Title: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.stages); err == nil {
				t.Error("New accepted an invalid stage table")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.json")
	data := `[
		{"id": 1, "title": "Warmup", "prompt": "Guess 5", "type": "number", "target": 5},
		{"id": 2, "title": "Heading", "prompt": "Face north", "type": "compass", "target": 0, "wrap": 360}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	heading, ok := c.ByID(2)
	if !ok || heading.Wrap != 360 {
		t.Errorf("stage 2 = %+v, ok=%v", heading, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		value float64
		want  string
	}{
		{"precision with unit", Stage{Unit: "s", Precision: intPtr(2)}, 7.3, "7.30 s"},
		{"integer without precision", Stage{}, 42, "42"},
		{"fraction without precision", Stage{}, 0.374, "0.37"},
		{"degrees", Stage{Unit: "°", Precision: intPtr(1)}, 19.96, "20.0 °"},
		{"nan", Stage{Unit: "s"}, math.NaN(), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.FormatValue(tt.value); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
