package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"slices"

	"github.com/gogpu/gg"

	"yd-go/internal/yd"
)

// DumpVersion is written into every scene dump.
const DumpVersion = "5.3.0"

// Canvas is an in-memory scene graph rendered with gg. It is not safe for
// concurrent use; the editor serialises access.
type Canvas struct {
	width, height int
	fonts         *FontRegistry

	objects         []*Object
	active          *Object
	background      string
	backgroundImage string

	drawingMode bool
	brush       yd.Brush

	listeners []func(yd.Event)
	images    map[string]image.Image
	frame     image.Image
	renders   int
}

var _ yd.Scene = (*Canvas)(nil)

// NewCanvas creates an empty width x height scene. fonts may be nil, in
// which case text is not drawn.
func NewCanvas(width, height int, fonts *FontRegistry) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		fonts:  fonts,
		brush:  yd.Brush{Color: yd.DefaultStroke, Width: yd.DefaultBrushSize},
		images: make(map[string]image.Image),
	}
}

// Factory returns a SceneFactory producing canvases of the given size.
func Factory(width, height int, fonts *FontRegistry) yd.SceneFactory {
	return func() yd.Scene { return NewCanvas(width, height, fonts) }
}

func (c *Canvas) emit(t yd.EventType, obj yd.Object) {
	ev := yd.Event{Type: t, Object: obj}
	for _, fn := range c.listeners {
		fn(ev)
	}
}

func (c *Canvas) On(fn func(yd.Event)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Canvas) NewObject(objType string, props map[string]any) (yd.Object, error) {
	if !toolTypes[objType] {
		return nil, fmt.Errorf("unknown object type %q", objType)
	}
	return newObject(objType, props)
}

// own converts obj back to the concrete type, rejecting foreign objects.
func (c *Canvas) own(obj yd.Object) (*Object, bool) {
	o, ok := obj.(*Object)
	return o, ok && o != nil
}

func (c *Canvas) indexOf(o *Object) int {
	return slices.Index(c.objects, o)
}

func (c *Canvas) Add(obj yd.Object) {
	o, ok := c.own(obj)
	if !ok || c.indexOf(o) >= 0 {
		return
	}
	c.objects = append(c.objects, o)
	c.emit(yd.EventObjectAdded, o)
}

func (c *Canvas) Remove(obj yd.Object) bool {
	o, ok := c.own(obj)
	if !ok {
		return false
	}
	i := c.indexOf(o)
	if i < 0 {
		return false
	}
	c.objects = slices.Delete(c.objects, i, i+1)
	wasActive := c.active == o
	if wasActive {
		c.active = nil
	}
	c.emit(yd.EventObjectRemoved, o)
	if wasActive {
		c.emit(yd.EventSelectionCleared, nil)
	}
	return true
}

func (c *Canvas) Objects() []yd.Object {
	out := make([]yd.Object, len(c.objects))
	for i, o := range c.objects {
		out[i] = o
	}
	return out
}

func (c *Canvas) ActiveObject() yd.Object {
	if c.active == nil {
		return nil
	}
	return c.active
}

// SetActiveObject selects obj. Selecting the current selection again
// raises no event.
func (c *Canvas) SetActiveObject(obj yd.Object) {
	o, ok := c.own(obj)
	if !ok || c.indexOf(o) < 0 || c.active == o {
		return
	}
	c.active = o
	c.emit(yd.EventSelectionChanged, o)
}

func (c *Canvas) DiscardActiveObject() {
	if c.active == nil {
		return
	}
	c.active = nil
	c.emit(yd.EventSelectionCleared, nil)
}

func (c *Canvas) MarkModified(obj yd.Object) {
	if o, ok := c.own(obj); ok && c.indexOf(o) >= 0 {
		c.emit(yd.EventObjectModified, o)
	}
}

func (c *Canvas) BringToFront(obj yd.Object) {
	c.move(obj, func(o *Object) { c.objects = append(c.objects, o) })
}

func (c *Canvas) SendToBack(obj yd.Object) {
	c.move(obj, func(o *Object) { c.objects = slices.Insert(c.objects, 0, o) })
}

func (c *Canvas) move(obj yd.Object, place func(*Object)) {
	o, ok := c.own(obj)
	if !ok {
		return
	}
	i := c.indexOf(o)
	if i < 0 {
		return
	}
	c.objects = slices.Delete(c.objects, i, i+1)
	place(o)
}

// Background changes raise no event.
func (c *Canvas) Background() string { return c.background }

func (c *Canvas) SetBackground(color string) { c.background = color }

func (c *Canvas) SetBackgroundImage(src string) { c.backgroundImage = src }

func (c *Canvas) Size() (int, int) { return c.width, c.height }

func (c *Canvas) SetDrawingMode(on bool) { c.drawingMode = on }

func (c *Canvas) DrawingMode() bool { return c.drawingMode }

func (c *Canvas) SetBrush(b yd.Brush) { c.brush = b }

func (c *Canvas) Brush() yd.Brush { return c.brush }

type dump struct {
	Version         string          `json:"version"`
	Objects         []*Object       `json:"objects"`
	Background      string          `json:"background,omitempty"`
	BackgroundImage *backgroundDump `json:"backgroundImage,omitempty"`
}

type backgroundDump struct {
	Type string `json:"type"`
	Src  string `json:"src"`
}

type loadDump struct {
	Version         string             `json:"version"`
	Objects         *[]json.RawMessage `json:"objects"`
	Background      json.RawMessage    `json:"background"`
	BackgroundImage *backgroundDump    `json:"backgroundImage"`
}

func (c *Canvas) Serialize() (json.RawMessage, error) {
	d := dump{
		Version:    DumpVersion,
		Objects:    c.objects,
		Background: c.background,
	}
	if d.Objects == nil {
		d.Objects = []*Object{}
	}
	if c.backgroundImage != "" {
		d.BackgroundImage = &backgroundDump{Type: yd.TypeImage, Src: c.backgroundImage}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding scene: %w", err)
	}
	return data, nil
}

// Load replaces the scene with a dump. The dump must be a JSON object with
// an "objects" array of known object types. Non-string backgrounds, such
// as gradients, are dropped.
func (c *Canvas) Load(data json.RawMessage) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("scene dump must be a JSON object")
	}
	var d loadDump
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return fmt.Errorf("decoding scene: %w", err)
	}
	if d.Objects == nil {
		return fmt.Errorf("scene dump has no objects array")
	}

	objects := make([]*Object, 0, len(*d.Objects))
	for i, raw := range *d.Objects {
		var o Object
		if err := json.Unmarshal(raw, &o); err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		objects = append(objects, &o)
	}

	var bg string
	if len(d.Background) > 0 {
		_ = json.Unmarshal(d.Background, &bg)
	}

	c.objects = objects
	c.active = nil
	c.background = bg
	c.backgroundImage = ""
	if d.BackgroundImage != nil {
		c.backgroundImage = d.BackgroundImage.Src
	}
	return nil
}

// Render redraws the scene at its natural size. The result is available
// from Frame.
func (c *Canvas) Render() error {
	img, err := c.draw(1, false)
	if err != nil {
		return err
	}
	c.frame = img
	c.renders++
	return nil
}

// Renders counts completed Render calls.
func (c *Canvas) Renders() int { return c.renders }

// Frame returns the last rendered image, or nil before the first Render.
func (c *Canvas) Frame() image.Image { return c.frame }

func (c *Canvas) Thumbnail(width int) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("thumbnail width must be positive, got %d", width)
	}
	full, err := c.draw(1, false)
	if err != nil {
		return "", err
	}
	return pngDataURI(thumbnail(full, width))
}

func (c *Canvas) Rasterize(w io.Writer, opts yd.RasterOptions) error {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	whiteBase := opts.Background == "white"

	switch opts.Format {
	case "", "png":
		return c.encode(scale, whiteBase, func(dc *gg.Context) error { return dc.EncodePNG(w) })
	case "jpeg", "jpg":
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 92
		}
		// JPEG has no alpha, so always start from white.
		return c.encode(scale, true, func(dc *gg.Context) error { return dc.EncodeJPEG(w, quality) })
	}
	return fmt.Errorf("unsupported raster format %q", opts.Format)
}
