package yd

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Tool is the active toolbar tool.
type Tool string

const (
	ToolSelect   Tool = "select"
	ToolBrush    Tool = "brush"
	ToolEraser   Tool = "eraser"
	ToolCircle   Tool = "circle"
	ToolSquare   Tool = "square"
	ToolTriangle Tool = "triangle"
	ToolPolygon  Tool = "polygon"
	ToolText     Tool = "text"
	ToolFill     Tool = "fill"
)

// Tools lists every toolbar tool.
var Tools = []Tool{
	ToolSelect, ToolBrush, ToolEraser, ToolCircle, ToolSquare,
	ToolTriangle, ToolPolygon, ToolText, ToolFill,
}

// ParseTool matches s case-insensitively against Tools.
func ParseTool(s string) (Tool, bool) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Tools, t) {
		return t, true
	}
	return "", false
}

const (
	shapeSize        = 100.0
	shapeStrokeWidth = 2.0
	textBoxWidth     = 200.0
	// DefaultBrushSize is the brush width in pixels.
	DefaultBrushSize = 5.0
	// MinPolygonSides is the smallest polygon the polygon tool draws.
	MinPolygonSides = 3
)

// Point is a scene coordinate.
type Point struct {
	X, Y float64
}

// shapeProps builds the properties of a new circle, square or triangle
// centred in a width x height scene.
func shapeProps(tool Tool, p PropertySet, width, height int) (string, map[string]any, error) {
	cx, cy := float64(width)/2, float64(height)/2
	props := map[string]any{
		"left":        cx - shapeSize/2,
		"top":         cy - shapeSize/2,
		"fill":        p.FillColor,
		"stroke":      p.StrokeColor,
		"strokeWidth": shapeStrokeWidth,
		"opacity":     p.Opacity / 100,
	}
	switch tool {
	case ToolCircle:
		props["radius"] = shapeSize / 2
		return TypeCircle, props, nil
	case ToolSquare:
		props["width"] = shapeSize
		props["height"] = shapeSize
		props["rx"] = p.CornerRadius
		props["ry"] = p.CornerRadius
		return TypeRect, props, nil
	case ToolTriangle:
		props["width"] = shapeSize
		props["height"] = shapeSize
		return TypeTriangle, props, nil
	}
	return "", nil, fmt.Errorf("tool %q does not draw a shape", tool)
}

// polygonProps builds a regular polygon with the given number of sides
// inscribed in a circle of radius 50, centred in the scene.
func polygonProps(sides int, p PropertySet, width, height int) (map[string]any, error) {
	if sides < MinPolygonSides {
		return nil, fmt.Errorf("polygon needs at least %d sides, got %d", MinPolygonSides, sides)
	}
	radius := shapeSize / 2
	points := make([]any, 0, sides)
	for i := 0; i < sides; i++ {
		angle := float64(i) * 2 * math.Pi / float64(sides)
		points = append(points, map[string]any{
			"x": radius * math.Cos(angle),
			"y": radius * math.Sin(angle),
		})
	}
	return map[string]any{
		"points":      points,
		"left":        float64(width)/2 - radius,
		"top":         float64(height)/2 - radius,
		"fill":        p.FillColor,
		"stroke":      p.StrokeColor,
		"strokeWidth": shapeStrokeWidth,
		"opacity":     p.Opacity / 100,
	}, nil
}

// textProps builds a centred text object. Text is painted with the
// stroke colour, as the brush colour doubles as the text colour.
func textProps(text string, p PropertySet, width, height int) map[string]any {
	props := p.fontProps()
	props["text"] = text
	props["left"] = float64(width)/2 - textBoxWidth/2
	props["top"] = float64(height)/2 - 20
	props["width"] = textBoxWidth
	props["fill"] = p.StrokeColor
	props["opacity"] = p.Opacity / 100
	props["textAlign"] = "center"
	return props
}

// pathProps turns a freehand point list into path commands, smoothing
// with quadratic segments through the midpoints.
func pathProps(points []Point, brush Brush) (map[string]any, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("a stroke needs at least 2 points, got %d", len(points))
	}

	minX, minY := points[0].X, points[0].Y
	for _, pt := range points[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
	}

	cmds := []any{[]any{"M", points[0].X, points[0].Y}}
	for i := 1; i < len(points)-1; i++ {
		mid := Point{(points[i].X + points[i+1].X) / 2, (points[i].Y + points[i+1].Y) / 2}
		cmds = append(cmds, []any{"Q", points[i].X, points[i].Y, mid.X, mid.Y})
	}
	last := points[len(points)-1]
	cmds = append(cmds, []any{"L", last.X, last.Y})

	props := map[string]any{
		"path":           cmds,
		"left":           minX,
		"top":            minY,
		"fill":           nil,
		"stroke":         brush.Color,
		"strokeWidth":    brush.Width,
		"strokeLineCap":  "round",
		"strokeLineJoin": "round",
	}
	if brush.Eraser {
		props["globalCompositeOperation"] = "destination-out"
	}
	return props, nil
}

// brushFor returns the brush a drawing tool paints with. The eraser is a
// white brush twice as wide.
func brushFor(tool Tool, stroke string, size float64) Brush {
	if tool == ToolEraser {
		return Brush{Color: "#ffffff", Width: size * 2, Eraser: true}
	}
	return Brush{Color: stroke, Width: size}
}
