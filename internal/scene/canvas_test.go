package scene

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"yd-go/internal/yd"
)

func newTestCanvas(t *testing.T) *Canvas {
	t.Helper()
	return NewCanvas(200, 100, nil)
}

func mustObject(t *testing.T, c *Canvas, objType string, props map[string]any) yd.Object {
	t.Helper()
	obj, err := c.NewObject(objType, props)
	if err != nil {
		t.Fatalf("NewObject(%s) error = %v", objType, err)
	}
	return obj
}

func recordEvents(c *Canvas) *[]yd.EventType {
	var got []yd.EventType
	c.On(func(ev yd.Event) { got = append(got, ev.Type) })
	return &got
}

func TestCanvas_NewObject_UnknownType(t *testing.T) {
	c := newTestCanvas(t)
	if _, err := c.NewObject("hexagon", nil); err == nil {
		t.Fatal("NewObject(hexagon) expected error")
	}
}

func TestCanvas_Events(t *testing.T) {
	c := newTestCanvas(t)
	events := recordEvents(c)

	rect := mustObject(t, c, yd.TypeRect, map[string]any{"width": 10.0, "height": 10.0})
	c.Add(rect)
	c.Add(rect) // already present
	c.SetActiveObject(rect)
	c.SetActiveObject(rect) // already active
	c.MarkModified(rect)
	rect.Set(map[string]any{"fill": "red"})
	c.BringToFront(rect)
	c.SetBackground("blue")
	c.DiscardActiveObject()
	c.DiscardActiveObject() // nothing selected
	if !c.Remove(rect) {
		t.Error("Remove() = false, want true")
	}
	if c.Remove(rect) {
		t.Error("second Remove() = true, want false")
	}

	want := []yd.EventType{
		yd.EventObjectAdded,
		yd.EventSelectionChanged,
		yd.EventObjectModified,
		yd.EventSelectionCleared,
		yd.EventObjectRemoved,
	}
	if len(*events) != len(want) {
		t.Fatalf("events = %v, want %v", *events, want)
	}
	for i := range want {
		if (*events)[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, (*events)[i], want[i])
		}
	}
}

func TestCanvas_RemoveActiveClearsSelection(t *testing.T) {
	c := newTestCanvas(t)
	obj := mustObject(t, c, yd.TypeRect, nil)
	c.Add(obj)
	c.SetActiveObject(obj)
	events := recordEvents(c)

	c.Remove(obj)
	if c.ActiveObject() != nil {
		t.Error("ActiveObject() still set after Remove()")
	}
	want := []yd.EventType{yd.EventObjectRemoved, yd.EventSelectionCleared}
	if len(*events) != 2 || (*events)[0] != want[0] || (*events)[1] != want[1] {
		t.Errorf("events = %v, want %v", *events, want)
	}
}

func TestCanvas_Ordering(t *testing.T) {
	c := newTestCanvas(t)
	a := mustObject(t, c, yd.TypeCircle, map[string]any{"name": "a"})
	b := mustObject(t, c, yd.TypeCircle, map[string]any{"name": "b"})
	d := mustObject(t, c, yd.TypeCircle, map[string]any{"name": "d"})
	c.Add(a)
	c.Add(b)
	c.Add(d)

	names := func() string {
		var s []string
		for _, o := range c.Objects() {
			v, _ := o.Get("name")
			s = append(s, v.(string))
		}
		return strings.Join(s, "")
	}

	c.BringToFront(a)
	if got := names(); got != "bda" {
		t.Errorf("after BringToFront order = %q, want %q", got, "bda")
	}
	c.SendToBack(d)
	if got := names(); got != "dba" {
		t.Errorf("after SendToBack order = %q, want %q", got, "dba")
	}
}

func TestCanvas_SerializeLoad_RoundTrip(t *testing.T) {
	c := newTestCanvas(t)
	c.SetBackground("#ffeecc")
	c.SetBackgroundImage("data:image/png;base64,AAAA")
	c.Add(mustObject(t, c, yd.TypeRect, map[string]any{
		"left": 10.0, "top": 20.0, "width": 30.0, "height": 40.0,
		"fill": "#ff0000", "rx": 5.0, "customProp": "kept",
	}))
	c.Add(mustObject(t, c, yd.TypeIText, map[string]any{"text": "hi", "fontSize": 24.0}))

	data, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("dump is not JSON: %v", err)
	}
	if generic["version"] != DumpVersion {
		t.Errorf("version = %v, want %s", generic["version"], DumpVersion)
	}

	other := newTestCanvas(t)
	events := recordEvents(other)
	if err := other.Load(data); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(*events) != 0 {
		t.Errorf("Load() raised events %v", *events)
	}
	if other.Background() != "#ffeecc" {
		t.Errorf("Background() = %q", other.Background())
	}

	objs := other.Objects()
	if len(objs) != 2 {
		t.Fatalf("len(Objects()) = %d, want 2", len(objs))
	}
	if objs[0].Type() != yd.TypeRect || objs[1].Type() != yd.TypeIText {
		t.Errorf("types = %s, %s", objs[0].Type(), objs[1].Type())
	}
	if v, _ := objs[0].Get("customProp"); v != "kept" {
		t.Errorf("customProp = %v, want kept", v)
	}
	if v, _ := objs[0].Get("rx"); v != 5.0 {
		t.Errorf("rx = %v, want 5", v)
	}

	again, err := other.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("second dump differs:\n%s\n%s", data, again)
	}
}

func TestCanvas_Load_ForeignTypes(t *testing.T) {
	dump := `{"version":"5.3.0","objects":[` +
		`{"type":"rect","width":10,"height":10,"fill":"red"},` +
		`{"type":"ellipse","rx":20,"ry":10,"fill":"blue","left":5},` +
		`{"type":"group","objects":[{"type":"line","x1":0,"y1":0,"x2":5,"y2":5}]}` +
		`],"background":"white"}`

	c := newTestCanvas(t)
	if err := c.Load(json.RawMessage(dump)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	objs := c.Objects()
	if len(objs) != 3 || objs[1].Type() != "ellipse" || objs[2].Type() != "group" {
		t.Fatalf("Objects() = %d, want rect, ellipse, group", len(objs))
	}
	if rx, _ := objs[1].Get("rx"); rx != 20.0 {
		t.Errorf("ellipse rx = %v, want 20", rx)
	}

	if err := c.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	first, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	other := newTestCanvas(t)
	if err := other.Load(first); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	second, _ := other.Serialize()
	if !bytes.Equal(first, second) {
		t.Errorf("dump changed across reload:\n%s\n%s", first, second)
	}

	var decoded struct {
		Objects []map[string]any `json:"objects"`
	}
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Objects[1]["ry"] != 10.0 || decoded.Objects[2]["objects"] == nil {
		t.Errorf("foreign properties lost: %v", decoded.Objects)
	}
}

func TestCanvas_Load_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{nope"},
		{"array", "[]"},
		{"no objects", `{"type":"somethingElse"}`},
		{"empty object type", `{"objects":[{"type":""}]}`},
		{"object without type", `{"objects":[{"left":1}]}`},
		{"null object", `{"objects":[null]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCanvas(t)
			c.Add(mustObject(t, c, yd.TypeCircle, nil))
			c.SetBackground("red")

			if err := c.Load(json.RawMessage(tt.data)); err == nil {
				t.Fatal("Load() expected error")
			}
			if len(c.Objects()) != 1 || c.Background() != "red" {
				t.Error("failed Load() changed the scene")
			}
		})
	}
}

func TestCanvas_Load_ClearsSelection(t *testing.T) {
	c := newTestCanvas(t)
	obj := mustObject(t, c, yd.TypeCircle, nil)
	c.Add(obj)
	c.SetActiveObject(obj)

	if err := c.Load(json.RawMessage(`{"objects":[],"background":{"type":"linear"}}`)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.ActiveObject() != nil {
		t.Error("ActiveObject() not cleared by Load()")
	}
	if c.Background() != "" {
		t.Errorf("Background() = %q, want empty for non-string background", c.Background())
	}
}

func TestCanvas_Thumbnail(t *testing.T) {
	c := newTestCanvas(t)
	c.Add(mustObject(t, c, yd.TypeCircle, map[string]any{"radius": 20.0, "fill": "green"}))

	uri, err := c.Thumbnail(50)
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("Thumbnail() = %.30q, want png data URI", uri)
	}

	img, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("thumbnail size = %dx%d, want 50x25", b.Dx(), b.Dy())
	}

	if _, err := c.Thumbnail(0); err == nil {
		t.Error("Thumbnail(0) expected error")
	}
}

func TestCanvas_Rasterize(t *testing.T) {
	c := newTestCanvas(t)
	c.Add(mustObject(t, c, yd.TypeRect, map[string]any{
		"left": 10.0, "top": 10.0, "width": 50.0, "height": 50.0,
		"fill": "#ff0000", "strokeWidth": 0.0,
	}))

	t.Run("png with scale", func(t *testing.T) {
		var buf bytes.Buffer
		if err := c.Rasterize(&buf, yd.RasterOptions{Format: "png", Scale: 2}); err != nil {
			t.Fatalf("Rasterize() error = %v", err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
			t.Errorf("size = %dx%d, want 400x200", b.Dx(), b.Dy())
		}
		assertRed(t, img, 70, 70)
		if _, _, _, a := img.At(300, 150).RGBA(); a != 0 {
			t.Errorf("empty area alpha = %d, want transparent", a)
		}
	})

	t.Run("png on white", func(t *testing.T) {
		var buf bytes.Buffer
		if err := c.Rasterize(&buf, yd.RasterOptions{Format: "png", Scale: 1, Background: "white"}); err != nil {
			t.Fatalf("Rasterize() error = %v", err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		r, g, b, a := img.At(150, 80).RGBA()
		if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 || a>>8 < 250 {
			t.Errorf("background pixel = %d,%d,%d,%d, want white", r>>8, g>>8, b>>8, a>>8)
		}
	})

	t.Run("jpeg", func(t *testing.T) {
		var buf bytes.Buffer
		if err := c.Rasterize(&buf, yd.RasterOptions{Format: "jpeg", Scale: 1, Quality: 90}); err != nil {
			t.Fatalf("Rasterize() error = %v", err)
		}
		img, err := jpeg.Decode(&buf)
		if err != nil {
			t.Fatalf("jpeg.Decode() error = %v", err)
		}
		if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
			t.Errorf("size = %dx%d, want 200x100", b.Dx(), b.Dy())
		}
		assertRed(t, img, 35, 35)
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := c.Rasterize(&bytes.Buffer{}, yd.RasterOptions{Format: "tiff"}); err == nil {
			t.Error("Rasterize(tiff) expected error")
		}
	})
}

func TestCanvas_RenderAllTypes(t *testing.T) {
	fonts, err := NewFontRegistry()
	if err != nil {
		t.Fatalf("NewFontRegistry() error = %v", err)
	}
	c := NewCanvas(200, 200, fonts)
	c.SetBackground("rgba(0, 0, 0, 0)")

	var pngBuf bytes.Buffer
	png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	src := EncodeDataURI("png", pngBuf.Bytes())
	c.SetBackgroundImage(src)

	for _, o := range []struct {
		typ   string
		props map[string]any
	}{
		{yd.TypeCircle, map[string]any{"radius": 10.0, "stroke": "black"}},
		{yd.TypeRect, map[string]any{"width": 10.0, "height": 10.0, "rx": 3.0, "angle": 45.0}},
		{yd.TypeTriangle, map[string]any{"width": 10.0, "height": 10.0, "fill": "rgb(0, 128, 255)"}},
		{yd.TypePolygon, map[string]any{"points": []any{
			map[string]any{"x": 0.0, "y": 0.0}, map[string]any{"x": 10.0, "y": 0.0}, map[string]any{"x": 5.0, "y": 8.0},
		}}},
		{yd.TypePath, map[string]any{"path": []any{
			[]any{"M", 1.0, 1.0}, []any{"Q", 5.0, 5.0, 9.0, 1.0}, []any{"L", 12.0, 12.0},
		}, "stroke": "#000", "strokeWidth": 3.0, "strokeLineCap": "round"}},
		{yd.TypePath, map[string]any{"path": []any{[]any{"M", 1.0, 1.0}, []any{"L", 12.0, 12.0}},
			"stroke": "#fff", "globalCompositeOperation": "destination-out"}},
		{yd.TypeIText, map[string]any{"text": "Hello\nworld", "fontSize": 16.0, "fill": "#000", "textAlign": "center", "width": 100.0}},
		{yd.TypeTextbox, map[string]any{"text": "box", "fontWeight": "bold"}},
		{yd.TypeImage, map[string]any{"src": src, "width": 4.0, "height": 4.0, "scaleX": 2.0, "scaleY": 2.0}},
		{yd.TypeImage, map[string]any{"src": "not a data uri"}},
	} {
		c.Add(mustObject(t, c, o.typ, o.props))
	}

	if err := c.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if c.Frame() == nil {
		t.Fatal("Frame() = nil after Render()")
	}
	if c.Renders() != 1 {
		t.Errorf("Renders() = %d, want 1", c.Renders())
	}
}

func assertRed(t *testing.T, img image.Image, x, y int) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	if r>>8 < 200 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("pixel (%d,%d) = %d,%d,%d, want red", x, y, r>>8, g>>8, b>>8)
	}
}

func TestCanvas_EraserColor(t *testing.T) {
	tests := []struct {
		background string
		want       string
	}{
		{"#00ff00", "#00ff00"},
		{"", "#ffffff"},
		{"transparent", "#ffffff"},
		{"rgba(0, 0, 0, 0)", "#ffffff"},
	}
	for _, tt := range tests {
		c := newTestCanvas(t)
		c.SetBackground(tt.background)
		if got := c.eraserColor(); got != tt.want {
			t.Errorf("eraserColor() with background %q = %q, want %q", tt.background, got, tt.want)
		}
	}
}
