// Package catalog holds the immutable stage table the whole quiz runs on.
// Stages are external data: the engine reads them and never mutates them.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
)

// Stage is one round's static definition. Target is the value players try
// to hit; Wrap marks a circular domain of that magnitude (e.g. 360 for a
// compass heading). The remaining fields describe the input gadget and how
// values should be displayed; the server passes them through untouched.
type Stage struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Prompt       string    `json:"prompt"`
	Type         string    `json:"type"`
	Target       float64   `json:"target"`
	Unit         string    `json:"unit,omitempty"`
	Precision    *int      `json:"precision,omitempty"`
	Wrap         float64   `json:"wrap,omitempty"`
	Min          *float64  `json:"min,omitempty"`
	Max          *float64  `json:"max,omitempty"`
	Step         *float64  `json:"step,omitempty"`
	Options      []float64 `json:"options,omitempty"`
	Image        string    `json:"image,omitempty"`
	ExplainImage string    `json:"explainImage,omitempty"`
}

// FormatValue renders a value the way the stage wants it shown: stage
// precision when set, otherwise no decimals for integers and two for the
// rest, with the unit appended.
func (s Stage) FormatValue(value float64) string {
	if math.IsNaN(value) {
		return "-"
	}
	precision := 2
	if s.Precision != nil {
		precision = *s.Precision
	} else if value == math.Trunc(value) {
		precision = 0
	}
	fixed := strconv.FormatFloat(value, 'f', precision, 64)
	if s.Unit != "" {
		return fixed + " " + s.Unit
	}
	return fixed
}

// Catalog is an ordered, id-keyed set of stages.
type Catalog struct {
	stages []Stage
	byID   map[int]Stage
}

func New(stages []Stage) (*Catalog, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("catalog has no stages")
	}
	byID := make(map[int]Stage, len(stages))
	for _, s := range stages {
		if s.ID < 1 {
			return nil, fmt.Errorf("stage %q has invalid id %d", s.Title, s.ID)
		}
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate stage id %d", s.ID)
		}
		byID[s.ID] = s
	}
	return &Catalog{stages: stages, byID: byID}, nil
}

// Load reads a stage table from a JSON file, for running a different quiz
// than the built-in one.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var stages []Stage
	if err := json.Unmarshal(raw, &stages); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return New(stages)
}

// ByID looks a stage up by id.
func (c *Catalog) ByID(id int) (Stage, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// Stages returns the stage list in catalog order.
func (c *Catalog) Stages() []Stage { return c.stages }

// Len is the highest valid stage index, N.
func (c *Catalog) Len() int { return len(c.stages) }

func intPtr(v int) *int         { return &v }
func floatPtr(v float64) *float64 { return &v }

// Default is the shipped ten-stage sensory quiz.
func Default() *Catalog {
	c, err := New([]Stage{
		{
			ID: 1, Title: "Second sense", Prompt: "Stop the stopwatch at exactly 7.30 s",
			Type: "stopwatch", Target: 7.3, Unit: "s", Precision: intPtr(2),
			Image: "images/q01.png", ExplainImage: "images/q01_explain.png",
		},
		{
			ID: 2, Title: "Gut slider", Prompt: "Set the 0–100 slider to 42",
			Type: "slider", Target: 42, Min: floatPtr(0), Max: floatPtr(100), Step: floatPtr(1),
			Image: "images/q02.png", ExplainImage: "images/q02_explain.png",
		},
		{
			ID: 3, Title: "Tilt sense", Prompt: "Tilt your phone to 35°",
			Type: "gyro", Target: 35, Unit: "°", Precision: intPtr(1),
			Image: "images/q03.png", ExplainImage: "images/q03_explain.png",
		},
		{
			ID: 4, Title: "Compass", Prompt: "Turn your phone to a heading of 20°",
			Type: "compass", Target: 20, Unit: "°", Wrap: 360, Precision: intPtr(1),
			Image: "images/q04.png", ExplainImage: "images/q04_explain.png",
		},
		{
			ID: 5, Title: "Circle size", Prompt: "Match the circle diameter to 60 mm",
			Type: "circle", Target: 60, Unit: "mm", Min: floatPtr(10), Max: floatPtr(120), Step: floatPtr(1),
			Image: "images/q05.png", ExplainImage: "images/q05_explain.png",
		},
		{
			ID: 6, Title: "Number hunch", Prompt: "Pick a number from 0–500 closest to 273",
			Type: "number", Target: 273, Min: floatPtr(0), Max: floatPtr(500), Step: floatPtr(1),
			Image: "images/q06.png", ExplainImage: "images/q06_explain.png",
		},
		{
			ID: 7, Title: "Four choices", Prompt: "Trust your gut: 10 / 30 / 60 / 90",
			Type: "choice", Target: 60, Options: []float64{10, 30, 60, 90},
			Image: "images/q07.png", ExplainImage: "images/q07_explain.png",
		},
		{
			ID: 8, Title: "The grid", Prompt: "Hit the center of the 3×3 grid",
			Type: "grid", Target: 5, Unit: "cell",
			Image: "images/q08.png", ExplainImage: "images/q08_explain.png",
		},
		{
			ID: 9, Title: "Decimal slider", Prompt: "Set the 0–1.00 slider to 0.37",
			Type: "slider", Target: 0.37, Min: floatPtr(0), Max: floatPtr(1), Step: floatPtr(0.01),
			Image: "images/q09.png", ExplainImage: "images/q09_explain.png",
		},
		{
			ID: 10, Title: "Millisecond", Prompt: "Stop at 1.23 s",
			Type: "stopwatch", Target: 1.23, Unit: "s", Precision: intPtr(2),
			Image: "images/q10.png", ExplainImage: "images/q10_explain.png",
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
