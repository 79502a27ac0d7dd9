package yd

import (
	"encoding/json"
	"io"
)

// Object types understood by the editor tools. A Scene may hold other
// types; they are carried through serialization untouched.
const (
	TypeCircle   = "circle"
	TypeRect     = "rect"
	TypeTriangle = "triangle"
	TypePolygon  = "polygon"
	TypeIText    = "i-text"
	TypeTextbox  = "textbox"
	TypePath     = "path"
	TypeImage    = "image"
)

// IsText reports whether objects of type t carry font properties.
func IsText(t string) bool {
	return t == TypeIText || t == TypeTextbox
}

// Object is a graphical object owned by a Scene. Properties use the
// scene's native JSON names (fill, stroke, opacity, rx, fontSize, ...).
// Set changes properties without raising a scene event.
type Object interface {
	Type() string
	Get(key string) (any, bool)
	Set(props map[string]any)
}

// EventType is the closed set of scene notifications the editor reacts to.
type EventType int

const (
	EventObjectAdded EventType = iota
	EventObjectModified
	EventObjectRemoved
	EventSelectionChanged
	EventSelectionCleared
)

func (t EventType) String() string {
	switch t {
	case EventObjectAdded:
		return "object-added"
	case EventObjectModified:
		return "object-modified"
	case EventObjectRemoved:
		return "object-removed"
	case EventSelectionChanged:
		return "selection-changed"
	case EventSelectionCleared:
		return "selection-cleared"
	default:
		return "unknown"
	}
}

// Event is emitted by a Scene. Object is the subject of the event and is
// nil for EventSelectionCleared.
type Event struct {
	Type   EventType
	Object Object
}

// Brush configures freehand drawing.
type Brush struct {
	Color  string
	Width  float64
	Eraser bool
}

// RasterOptions control image export.
type RasterOptions struct {
	Format     string  // "png" or "jpeg"
	Scale      float64 // output pixels per scene unit
	Background string  // "transparent" keeps the scene background, "white" paints white first
	Quality    int     // jpeg quality 1-100
}

// Scene is the 2D scene graph the editor drives. Rendering, geometry and
// serialization are its business; the editor only orchestrates.
type Scene interface {
	// NewObject builds a detached object of the given type.
	NewObject(objType string, props map[string]any) (Object, error)

	Add(obj Object)
	// Remove detaches obj, reporting whether it was present.
	Remove(obj Object) bool
	Objects() []Object

	// ActiveObject returns the selected object, or nil.
	ActiveObject() Object
	SetActiveObject(obj Object)
	DiscardActiveObject()

	// MarkModified announces an interactive change to obj (move, resize).
	MarkModified(obj Object)

	BringToFront(obj Object)
	SendToBack(obj Object)

	Background() string
	SetBackground(color string)
	// SetBackgroundImage stretches the image at src (a data URI) behind all objects.
	SetBackgroundImage(src string)

	Size() (width, height int)
	SetDrawingMode(on bool)
	DrawingMode() bool
	SetBrush(b Brush)
	Brush() Brush

	// Serialize dumps the whole scene in its native JSON form.
	Serialize() (json.RawMessage, error)
	// Load replaces the whole scene. On error the scene is unchanged.
	// Load raises no events and clears the selection.
	Load(data json.RawMessage) error

	// Render redraws the scene.
	Render() error
	// Thumbnail renders a low-resolution PNG preview as a data URI.
	Thumbnail(width int) (string, error)
	// Rasterize renders the scene to w as an encoded image.
	Rasterize(w io.Writer, opts RasterOptions) error

	// On registers fn for every scene event.
	On(fn func(Event))
}

// SceneFactory creates an empty scene.
type SceneFactory func() Scene
