package scene

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"yd-go/internal/yd"
)

const lineHeight = 1.16

var white = gg.RGBA{R: 1, G: 1, B: 1, A: 1}

// context paints the whole scene into a new gg context at the given scale.
func (c *Canvas) context(scale float64, whiteBase bool) (*gg.Context, error) {
	w := max(1, int(math.Round(float64(c.width)*scale)))
	h := max(1, int(math.Round(float64(c.height)*scale)))

	dc := gg.NewContext(w, h)
	if whiteBase {
		dc.ClearWithColor(white)
	}
	dc.Scale(scale, scale)

	if err := c.paintBackground(dc); err != nil {
		dc.Close()
		return nil, err
	}
	for i, o := range c.objects {
		if err := c.paintObject(dc, o); err != nil {
			dc.Close()
			return nil, fmt.Errorf("painting object %d (%s): %w", i, o.objType, err)
		}
	}
	return dc, nil
}

func (c *Canvas) draw(scale float64, whiteBase bool) (image.Image, error) {
	dc, err := c.context(scale, whiteBase)
	if err != nil {
		return nil, err
	}
	defer dc.Close()

	src := dc.Image()
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst, nil
}

func (c *Canvas) encode(scale float64, whiteBase bool, fn func(dc *gg.Context) error) error {
	dc, err := c.context(scale, whiteBase)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := fn(dc); err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}
	return nil
}

// thumbnail downsamples img to width, keeping the aspect ratio.
func thumbnail(img image.Image, width int) image.Image {
	b := img.Bounds()
	h := max(1, int(math.Round(float64(b.Dy())*float64(width)/float64(b.Dx()))))
	dst := image.NewRGBA(image.Rect(0, 0, width, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func (c *Canvas) paintBackground(dc *gg.Context) error {
	w, h := float64(c.width), float64(c.height)
	if col, ok := parseColor(c.background); ok {
		dc.SetRGBA(col.R, col.G, col.B, col.A)
		dc.DrawRectangle(0, 0, w, h)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("painting background: %w", err)
		}
	}
	if c.backgroundImage != "" {
		if img := c.image(c.backgroundImage); img != nil {
			dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{DstWidth: w, DstHeight: h})
		}
	}
	return nil
}

// image decodes src once and caches it. Undecodable sources paint nothing.
func (c *Canvas) image(src string) image.Image {
	if img, ok := c.images[src]; ok {
		return img
	}
	img, err := DecodeDataURI(src)
	if err != nil {
		img = nil
	}
	c.images[src] = img
	return img
}

func (c *Canvas) paintObject(dc *gg.Context, o *Object) error {
	if v, ok := o.props["visible"].(bool); ok && !v {
		return nil
	}
	opacity := o.number("opacity", 1)
	if opacity <= 0 {
		return nil
	}

	dc.Push()
	defer dc.Pop()
	dc.Translate(o.number("left", 0), o.number("top", 0))
	if angle := o.number("angle", 0); angle != 0 {
		dc.Rotate(angle * math.Pi / 180)
	}
	dc.Scale(o.number("scaleX", 1), o.number("scaleY", 1))

	switch o.objType {
	case yd.TypeRect:
		w, h := o.number("width", 0), o.number("height", 0)
		if rx := o.number("rx", 0); rx > 0 {
			dc.DrawRoundedRectangle(0, 0, w, h, math.Min(rx, math.Min(w, h)/2))
		} else {
			dc.DrawRectangle(0, 0, w, h)
		}
	case yd.TypeCircle:
		r := o.number("radius", 0)
		dc.DrawCircle(r, r, r)
	case yd.TypeTriangle:
		w, h := o.number("width", 0), o.number("height", 0)
		dc.MoveTo(w/2, 0)
		dc.LineTo(w, h)
		dc.LineTo(0, h)
		dc.ClosePath()
	case yd.TypePolygon:
		pts := points(o.props["points"])
		if len(pts) < 2 {
			return nil
		}
		minX, minY := bounds(pts)
		dc.MoveTo(pts[0][0]-minX, pts[0][1]-minY)
		for _, p := range pts[1:] {
			dc.LineTo(p[0]-minX, p[1]-minY)
		}
		dc.ClosePath()
	case yd.TypePath:
		cmds := pathCommands(o.props["path"])
		if len(cmds) == 0 {
			return nil
		}
		tracePath(dc, cmds)
	case yd.TypeIText, yd.TypeTextbox:
		return c.paintText(dc, o, opacity)
	case yd.TypeImage:
		return c.paintImage(dc, o, opacity)
	default:
		// Types without a painter are carried but not drawn.
		return nil
	}

	return c.fillStroke(dc, o, opacity)
}

func (c *Canvas) fillStroke(dc *gg.Context, o *Object, opacity float64) error {
	fill, fillOK := parseColor(o.str("fill"))

	strokeColor := o.str("stroke")
	if o.str("globalCompositeOperation") == "destination-out" {
		strokeColor = c.eraserColor()
	}
	stroke, strokeOK := parseColor(strokeColor)
	width := o.number("strokeWidth", 1)
	strokeOK = strokeOK && width > 0

	if fillOK {
		dc.SetRGBA(fill.R, fill.G, fill.B, fill.A*opacity)
		var err error
		if strokeOK {
			err = dc.FillPreserve()
		} else {
			err = dc.Fill()
		}
		if err != nil {
			return fmt.Errorf("filling: %w", err)
		}
	}

	if !strokeOK {
		dc.ClearPath()
		return nil
	}
	dc.SetRGBA(stroke.R, stroke.G, stroke.B, stroke.A*opacity)
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapButt)
	if o.str("strokeLineCap") == "round" {
		dc.SetLineCap(gg.LineCapRound)
	}
	dc.SetLineJoin(gg.LineJoinMiter)
	if o.str("strokeLineJoin") == "round" {
		dc.SetLineJoin(gg.LineJoinRound)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroking: %w", err)
	}
	return nil
}

// eraserColor paints erased strokes with the background, or white when
// the background is transparent.
// eraserColor is the opaque background colour, or white.
func (c *Canvas) eraserColor() string {
	if col, ok := parseColor(c.background); ok && col.A > 0 {
		return c.background
	}
	return "#ffffff"
}

func (c *Canvas) paintText(dc *gg.Context, o *Object, opacity float64) error {
	if c.fonts == nil {
		return nil
	}
	fillValue, present := o.props["fill"]
	col, ok := parseColor(o.str("fill"))
	if !present || fillValue == nil {
		col, ok = gg.RGBA{A: 1}, true
	}
	if !ok {
		return nil
	}

	// Text is rasterised in device space, so fold the current scale into
	// the font size.
	x0, y0 := dc.TransformPoint(0, 0)
	x1, y1 := dc.TransformPoint(0, 1)
	k := math.Hypot(x1-x0, y1-y0)

	size := o.number("fontSize", yd.DefaultFontSize)
	face := c.fonts.Face(o.str("fontFamily"), o.str("fontStyle"), o.str("fontWeight"), size*k)
	dc.SetFont(face)
	dc.SetRGBA(col.R, col.G, col.B, col.A*opacity)

	width := o.number("width", 0)
	var ax, lx float64
	switch o.str("textAlign") {
	case "center":
		ax, lx = 0.5, width/2
	case "right":
		ax, lx = 1, width
	}
	for i, line := range strings.Split(o.str("text"), "\n") {
		px, py := dc.TransformPoint(lx, float64(i)*size*lineHeight)
		dc.DrawStringAnchored(line, px, py, ax, 1)
	}
	return nil
}

func (c *Canvas) paintImage(dc *gg.Context, o *Object, opacity float64) error {
	img := c.image(o.str("src"))
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:  o.number("width", float64(b.Dx())),
		DstHeight: o.number("height", float64(b.Dy())),
		Opacity:   opacity,
	})
	return nil
}

var pathArity = map[string]int{"M": 2, "L": 2, "Q": 4, "C": 6, "Z": 0}

type pathCmd struct {
	op   string
	args []float64
}

// pathCommands reads [["M",x,y],["Q",cx,cy,x,y],...]. Unknown commands
// and malformed entries are skipped.
func pathCommands(v any) []pathCmd {
	list, _ := v.([]any)
	var cmds []pathCmd
	for _, item := range list {
		parts, _ := item.([]any)
		if len(parts) == 0 {
			continue
		}
		op, _ := parts[0].(string)
		args := make([]float64, 0, len(parts)-1)
		for _, p := range parts[1:] {
			f, ok := toFloat(p)
			if !ok {
				args = nil
				break
			}
			args = append(args, f)
		}
		if n, ok := pathArity[strings.ToUpper(op)]; ok && len(args) == n {
			cmds = append(cmds, pathCmd{op: strings.ToUpper(op), args: args})
		}
	}
	return cmds
}

// tracePath draws cmds so that their bounding box starts at the origin.
func tracePath(dc *gg.Context, cmds []pathCmd) {
	var pts [][2]float64
	for _, cmd := range cmds {
		for i := 0; i+1 < len(cmd.args); i += 2 {
			pts = append(pts, [2]float64{cmd.args[i], cmd.args[i+1]})
		}
	}
	minX, minY := bounds(pts)

	for _, cmd := range cmds {
		a := cmd.args
		switch cmd.op {
		case "M":
			dc.MoveTo(a[0]-minX, a[1]-minY)
		case "L":
			dc.LineTo(a[0]-minX, a[1]-minY)
		case "Q":
			dc.QuadraticTo(a[0]-minX, a[1]-minY, a[2]-minX, a[3]-minY)
		case "C":
			dc.CubicTo(a[0]-minX, a[1]-minY, a[2]-minX, a[3]-minY, a[4]-minX, a[5]-minY)
		case "Z":
			dc.ClosePath()
		}
	}
}

func points(v any) [][2]float64 {
	list, _ := v.([]any)
	pts := make([][2]float64, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		x, okX := toFloat(m["x"])
		y, okY := toFloat(m["y"])
		if okX && okY {
			pts = append(pts, [2]float64{x, y})
		}
	}
	return pts
}

func bounds(pts [][2]float64) (minX, minY float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	minX, minY = pts[0][0], pts[0][1]
	for _, p := range pts[1:] {
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
	}
	return minX, minY
}

func toFloat(v any) (float64, bool) {
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
