package yd

import "strings"

// FontStyle is the single font style control of the property panel.
// Bold maps onto fontWeight, italic onto fontStyle.
type FontStyle string

const (
	FontNormal FontStyle = "normal"
	FontItalic FontStyle = "italic"
	FontBold   FontStyle = "bold"
)

// ParseFontStyle accepts normal, italic or bold.
func ParseFontStyle(s string) (FontStyle, bool) {
	switch FontStyle(strings.ToLower(s)) {
	case FontNormal:
		return FontNormal, true
	case FontItalic:
		return FontItalic, true
	case FontBold:
		return FontBold, true
	}
	return "", false
}

const (
	Transparent       = "rgba(0, 0, 0, 0)"
	DefaultStroke     = "#000000"
	DefaultFontFamily = "Arial, sans-serif"
	DefaultFontSize   = 24
)

// PropertySet mirrors the editable properties of the selected object.
// Opacity is a percentage.
type PropertySet struct {
	StrokeColor  string
	FillColor    string
	Opacity      float64
	CornerRadius float64
	FontSize     float64
	FontFamily   string
	FontStyle    FontStyle
}

// DefaultProperties is the property panel with nothing selected.
func DefaultProperties() PropertySet {
	return PropertySet{
		StrokeColor:  DefaultStroke,
		FillColor:    Transparent,
		Opacity:      100,
		CornerRadius: 0,
		FontSize:     DefaultFontSize,
		FontFamily:   DefaultFontFamily,
		FontStyle:    FontNormal,
	}
}

// ReadFrom copies obj's properties into p. Missing fill reads as
// transparent, missing stroke as black, missing opacity as 100%.
// Corner radius is read only from rectangles and font properties only
// from text objects; other properties keep their current values.
func (p *PropertySet) ReadFrom(obj Object) {
	p.FillColor = stringProp(obj, "fill", Transparent)
	p.StrokeColor = stringProp(obj, "stroke", DefaultStroke)
	if v, ok := numberProp(obj, "opacity"); ok {
		p.Opacity = v * 100
	} else {
		p.Opacity = 100
	}

	if obj.Type() == TypeRect {
		p.CornerRadius, _ = numberProp(obj, "rx")
	}

	if IsText(obj.Type()) {
		p.FontFamily = stringProp(obj, "fontFamily", DefaultFontFamily)
		if v, ok := numberProp(obj, "fontSize"); ok && v > 0 {
			p.FontSize = v
		} else {
			p.FontSize = DefaultFontSize
		}
		switch {
		case stringProp(obj, "fontStyle", "") == string(FontItalic):
			p.FontStyle = FontItalic
		case stringProp(obj, "fontWeight", "") == string(FontBold):
			p.FontStyle = FontBold
		default:
			p.FontStyle = FontNormal
		}
	}
}

// ApplyTo pushes p onto obj. Fill, stroke and opacity always apply;
// corner radius only to rectangles; fonts only to text objects.
func (p PropertySet) ApplyTo(obj Object) {
	obj.Set(map[string]any{
		"fill":    p.FillColor,
		"stroke":  p.StrokeColor,
		"opacity": p.Opacity / 100,
	})
	if obj.Type() == TypeRect {
		obj.Set(map[string]any{"rx": p.CornerRadius, "ry": p.CornerRadius})
	}
	if IsText(obj.Type()) {
		obj.Set(p.fontProps())
	}
}

func (p PropertySet) fontProps() map[string]any {
	style, weight := "normal", "normal"
	switch p.FontStyle {
	case FontItalic:
		style = "italic"
	case FontBold:
		weight = "bold"
	}
	return map[string]any{
		"fontSize":   p.FontSize,
		"fontFamily": p.FontFamily,
		"fontStyle":  style,
		"fontWeight": weight,
	}
}

func stringProp(obj Object, key, fallback string) string {
	v, ok := obj.Get(key)
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

func numberProp(obj Object, key string) (float64, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
