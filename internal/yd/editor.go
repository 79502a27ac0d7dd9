package yd

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNoSelection is returned by operations that need a selected object.
var ErrNoSelection = errors.New("no object selected")

// ObjectSummary is one row of the editor's object list.
type ObjectSummary struct {
	Index  int
	Type   string
	Fill   string
	Stroke string
}

// EditorOptions configures an Editor.
type EditorOptions struct {
	// HistoryLimit caps undo entries; zero keeps everything.
	HistoryLimit int
	AutoSave     AutoSaverOptions
	Logger       Logger
}

// Editor orchestrates a Scene: it records undo history, mirrors the
// selection into the property panel and schedules autosaves. All scene
// events funnel through a single dispatcher.
type Editor struct {
	mu sync.Mutex

	scene     Scene
	history   *History
	props     PropertySet
	tool      Tool
	brushSize float64
	autosave  *AutoSaver
	objects   []ObjectSummary
	loading   bool
	logger    Logger
}

// NewEditor attaches an editor to scene. Call Load and then Ready before
// user edits to arm autosave.
func NewEditor(scene Scene, opts EditorOptions) *Editor {
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	e := &Editor{
		scene:     scene,
		history:   NewHistory(opts.HistoryLimit),
		props:     DefaultProperties(),
		tool:      ToolSelect,
		brushSize: DefaultBrushSize,
		logger:    opts.Logger,
	}
	as := opts.AutoSave
	as.Guard = &e.mu
	if as.Logger == nil {
		as.Logger = opts.Logger
	}
	e.autosave = NewAutoSaver(as)
	scene.On(e.dispatch)
	return e
}

// dispatch runs with e.mu held: scene events only arise from editor calls.
func (e *Editor) dispatch(ev Event) {
	if e.loading {
		return
	}
	switch ev.Type {
	case EventObjectAdded, EventObjectModified, EventObjectRemoved:
		e.commit()
	case EventSelectionChanged:
		if ev.Object != nil {
			e.props.ReadFrom(ev.Object)
		}
	case EventSelectionCleared:
		e.props = DefaultProperties()
	}
}

// commit records the current scene as a history entry, refreshes the
// object list and schedules an autosave.
func (e *Editor) commit() {
	data, err := e.scene.Serialize()
	if err != nil {
		e.logger.Error("snapshot failed", "error", err)
		return
	}
	e.history.Snapshot(string(data))
	e.refreshObjects()
	e.autosave.Schedule(e.scene)
}

func (e *Editor) refreshObjects() {
	objs := e.scene.Objects()
	e.objects = make([]ObjectSummary, 0, len(objs))
	for i, obj := range objs {
		e.objects = append(e.objects, ObjectSummary{
			Index:  i,
			Type:   obj.Type(),
			Fill:   stringProp(obj, "fill", ""),
			Stroke: stringProp(obj, "stroke", ""),
		})
	}
}

// Load replaces the scene with data, either a YRD envelope or a bare
// scene dump, and makes it the sole history entry. Empty data starts a
// blank drawing. Load raises no autosave.
func (e *Editor) Load(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loading = true
	defer func() { e.loading = false }()

	if len(data) > 0 {
		if _, err := Import(e.scene, data); err != nil {
			return err
		}
	}
	state, err := e.scene.Serialize()
	if err != nil {
		return fmt.Errorf("serializing scene: %w", err)
	}
	e.history.Reset(string(state))
	e.props = DefaultProperties()
	e.refreshObjects()
	return e.render()
}

// Ready arms autosave. Edits made before Ready are not persisted.
func (e *Editor) Ready() {
	e.autosave.Ready()
}

// Close cancels any pending autosave.
func (e *Editor) Close() {
	e.autosave.Stop()
}

// Scene returns the underlying scene. Callers must not mutate it directly.
func (e *Editor) Scene() Scene { return e.scene }

// Properties returns the property panel values.
func (e *Editor) Properties() PropertySet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props
}

// SetProperties replaces the panel values without applying them.
func (e *Editor) SetProperties(p PropertySet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props = p
	e.syncBrush()
}

// Objects returns the cached object list.
func (e *Editor) Objects() []ObjectSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ObjectSummary(nil), e.objects...)
}

// CanUndo reports whether Undo would restore anything.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// HistoryLen returns the number of history entries.
func (e *Editor) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Len()
}

// Tool returns the active tool.
func (e *Editor) Tool() Tool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

// SetTool switches tools. Brush and eraser turn on freehand drawing.
func (e *Editor) SetTool(t Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tool = t
	e.scene.SetDrawingMode(t == ToolBrush || t == ToolEraser)
	e.syncBrush()
}

// SetBrushSize changes the freehand width.
func (e *Editor) SetBrushSize(size float64) error {
	if size <= 0 {
		return fmt.Errorf("brush size must be positive, got %v", size)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brushSize = size
	e.syncBrush()
	return nil
}

func (e *Editor) syncBrush() {
	if e.tool == ToolBrush || e.tool == ToolEraser {
		e.scene.SetBrush(brushFor(e.tool, e.props.StrokeColor, e.brushSize))
	}
}

// AddShape adds a circle, square or triangle at the centre and selects it.
func (e *Editor) AddShape(tool Tool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, h := e.scene.Size()
	objType, props, err := shapeProps(tool, e.props, w, h)
	if err != nil {
		return err
	}
	return e.addAndSelect(objType, props)
}

// AddPolygon adds a regular polygon with sides vertices.
func (e *Editor) AddPolygon(sides int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, h := e.scene.Size()
	props, err := polygonProps(sides, e.props, w, h)
	if err != nil {
		return err
	}
	return e.addAndSelect(TypePolygon, props)
}

// AddText adds an editable text object.
func (e *Editor) AddText(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, h := e.scene.Size()
	return e.addAndSelect(TypeIText, textProps(text, e.props, w, h))
}

// EditText replaces the content of the selected text object.
func (e *Editor) EditText(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.ActiveObject()
	if obj == nil {
		return ErrNoSelection
	}
	if !IsText(obj.Type()) {
		return fmt.Errorf("selected %s is not text", obj.Type())
	}
	obj.Set(map[string]any{"text": text})
	e.scene.MarkModified(obj)
	return e.render()
}

// DrawStroke lays down a freehand path with the active brush or eraser.
func (e *Editor) DrawStroke(points []Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.scene.DrawingMode() {
		return fmt.Errorf("tool %q does not draw freehand", e.tool)
	}
	props, err := pathProps(points, e.scene.Brush())
	if err != nil {
		return err
	}
	obj, err := e.scene.NewObject(TypePath, props)
	if err != nil {
		return fmt.Errorf("creating path: %w", err)
	}
	e.scene.Add(obj)
	return e.render()
}

// InsertImage adds an image object from a data URI, scaled to fit within
// half the scene.
func (e *Editor) InsertImage(src string, width, height float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %vx%v", width, height)
	}
	sw, sh := e.scene.Size()
	scale := 1.0
	if maxW := float64(sw) / 2; width > maxW {
		scale = maxW / width
	}
	if maxH := float64(sh) / 2; height*scale > maxH {
		scale = maxH / height
	}
	return e.addAndSelect(TypeImage, map[string]any{
		"src":    src,
		"left":   (float64(sw) - width*scale) / 2,
		"top":    (float64(sh) - height*scale) / 2,
		"width":  width,
		"height": height,
		"scaleX": scale,
		"scaleY": scale,
	})
}

// SetBackgroundImage stretches src behind the drawing.
func (e *Editor) SetBackgroundImage(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scene.SetBackgroundImage(src)
	e.commit()
	return e.render()
}

func (e *Editor) addAndSelect(objType string, props map[string]any) error {
	obj, err := e.scene.NewObject(objType, props)
	if err != nil {
		return fmt.Errorf("creating %s: %w", objType, err)
	}
	e.scene.Add(obj)
	e.scene.SetActiveObject(obj)
	return e.render()
}

// Select makes the object at index the active one.
func (e *Editor) Select(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	objs := e.scene.Objects()
	if index < 0 || index >= len(objs) {
		return fmt.Errorf("no object at index %d", index)
	}
	e.scene.SetActiveObject(objs[index])
	return e.render()
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.DiscardActiveObject()
}

// Move translates the selected object.
func (e *Editor) Move(dx, dy float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.ActiveObject()
	if obj == nil {
		return ErrNoSelection
	}
	left, _ := numberProp(obj, "left")
	top, _ := numberProp(obj, "top")
	obj.Set(map[string]any{"left": left + dx, "top": top + dy})
	e.scene.MarkModified(obj)
	return e.render()
}

// ApplyProperties pushes the panel onto the selection. With nothing
// selected the fill colour becomes the scene background.
func (e *Editor) ApplyProperties() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.ActiveObject()
	if obj == nil {
		e.scene.SetBackground(e.props.FillColor)
		e.commit()
		return e.render()
	}
	e.props.ApplyTo(obj)
	e.scene.MarkModified(obj)
	return e.render()
}

// Fill paints the selected object with the panel fill colour, or the
// background when nothing is selected.
func (e *Editor) Fill() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.ActiveObject()
	if obj == nil {
		e.scene.SetBackground(e.props.FillColor)
		e.commit()
		return e.render()
	}
	obj.Set(map[string]any{"fill": e.props.FillColor})
	e.scene.MarkModified(obj)
	return e.render()
}

// BringToFront raises the selection to the top of the stack.
func (e *Editor) BringToFront() error {
	return e.reorder(e.scene.BringToFront)
}

// SendToBack lowers the selection to the bottom of the stack.
func (e *Editor) SendToBack() error {
	return e.reorder(e.scene.SendToBack)
}

func (e *Editor) reorder(fn func(Object)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.ActiveObject()
	if obj == nil {
		return ErrNoSelection
	}
	fn(obj)
	e.commit()
	return e.render()
}

// Delete removes the selected object.
func (e *Editor) Delete() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.scene.ActiveObject()
	if obj == nil {
		return ErrNoSelection
	}
	e.scene.DiscardActiveObject()
	e.scene.Remove(obj)
	return e.render()
}

// Undo restores the previous history entry. The selection is lost and
// the property panel returns to defaults. The restored state is
// autosaved but not recorded as a new entry.
func (e *Editor) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.history.Previous()
	if !ok {
		return false, nil
	}

	e.loading = true
	err := e.scene.Load(json.RawMessage(state))
	e.loading = false
	if err != nil {
		return false, fmt.Errorf("restoring snapshot: %w", err)
	}
	e.history.Undo()

	e.props = DefaultProperties()
	e.syncBrush()
	e.refreshObjects()
	e.autosave.Schedule(e.scene)
	return true, e.render()
}

// Snapshot returns the serialized scene and a thumbnail of it.
func (e *Editor) Snapshot(thumbWidth int) (json.RawMessage, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	canvas, err := e.scene.Serialize()
	if err != nil {
		return nil, "", fmt.Errorf("serializing scene: %w", err)
	}
	thumb, err := e.scene.Thumbnail(thumbWidth)
	if err != nil {
		return nil, "", fmt.Errorf("rendering thumbnail: %w", err)
	}
	return canvas, thumb, nil
}

func (e *Editor) render() error {
	if err := e.scene.Render(); err != nil {
		return fmt.Errorf("rendering scene: %w", err)
	}
	return nil
}
