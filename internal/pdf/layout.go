package pdf

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed layout.toml
var defaultLayout string

// Layout describes the built-in template: static artwork plus the form
// fields the renderer fills.
type Layout struct {
	Page   PageSize      `toml:"page"`
	Boxes  []Box         `toml:"boxes"`
	Rules  []Rule        `toml:"rules"`
	Labels []Label       `toml:"labels"`
	Fields []FieldSpec   `toml:"fields"`
	Lines  LineTableSpec `toml:"lines"`
}

type PageSize struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type Box struct {
	Rect []float64 `toml:"rect"`
	Fill []int     `toml:"fill"`
}

type Rule struct {
	From  []float64 `toml:"from"`
	To    []float64 `toml:"to"`
	Width float64   `toml:"width"`
	Color []int     `toml:"color"`
}

type Label struct {
	Text  string    `toml:"text"`
	At    []float64 `toml:"at"`
	Size  float64   `toml:"size"`
	Bold  bool      `toml:"bold"`
	Color []int     `toml:"color"`
}

// FieldSpec is one AcroForm field. Kind is "text" (default) or "button".
type FieldSpec struct {
	Name      string    `toml:"name"`
	Kind      string    `toml:"kind"`
	Rect      []float64 `toml:"rect"`
	Size      float64   `toml:"size"`
	Align     string    `toml:"align"`
	Multiline bool      `toml:"multiline"`
}

// LineTableSpec generates the per-line fields <prefix>1..<prefix>Rows,
// row n sitting Step points below row n-1.
type LineTableSpec struct {
	Rows    int          `toml:"rows"`
	Top     float64      `toml:"top"`
	Step    float64      `toml:"step"`
	Height  float64      `toml:"height"`
	Columns []ColumnSpec `toml:"columns"`
}

type ColumnSpec struct {
	Prefix string  `toml:"prefix"`
	X      float64 `toml:"x"`
	Width  float64 `toml:"width"`
	Size   float64 `toml:"size"`
	Align  string  `toml:"align"`
}

// DefaultLayout returns the embedded layout.
func DefaultLayout() (*Layout, error) {
	return ParseLayout(defaultLayout)
}

func ParseLayout(data string) (*Layout, error) {
	var l Layout
	if _, err := toml.Decode(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) validate() error {
	if l.Page.Width <= 0 || l.Page.Height <= 0 {
		return fmt.Errorf("layout: page size must be positive")
	}
	for _, f := range l.Fields {
		if len(f.Rect) != 4 {
			return fmt.Errorf("layout: field %q needs rect [x, y, w, h]", f.Name)
		}
		if f.Kind != "" && f.Kind != "text" && f.Kind != "button" {
			return fmt.Errorf("layout: field %q has unknown kind %q", f.Name, f.Kind)
		}
	}
	for _, b := range l.Boxes {
		if len(b.Rect) != 4 {
			return fmt.Errorf("layout: box needs rect [x, y, w, h]")
		}
	}
	for _, r := range l.Rules {
		if len(r.From) != 2 || len(r.To) != 2 {
			return fmt.Errorf("layout: rule needs from/to points")
		}
	}
	for _, lb := range l.Labels {
		if len(lb.At) != 2 {
			return fmt.Errorf("layout: label %q needs at [x, y]", lb.Text)
		}
	}
	if l.Lines.Rows < 0 {
		return fmt.Errorf("layout: negative line rows")
	}
	return nil
}

// AllFields expands the line table into concrete fields and appends them to
// the scalar ones.
func (l *Layout) AllFields() []FieldSpec {
	fields := make([]FieldSpec, 0, len(l.Fields)+l.Lines.Rows*len(l.Lines.Columns))
	fields = append(fields, l.Fields...)
	for n := 1; n <= l.Lines.Rows; n++ {
		y := l.Lines.Top - float64(n-1)*l.Lines.Step
		for _, c := range l.Lines.Columns {
			fields = append(fields, FieldSpec{
				Name:  fmt.Sprintf("%s%d", c.Prefix, n),
				Kind:  "text",
				Rect:  []float64{c.X, y, c.Width, l.Lines.Height},
				Size:  c.Size,
				Align: c.Align,
			})
		}
	}
	return fields
}
