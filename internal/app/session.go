package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"yd-go/internal/scene"
	"yd-go/internal/yd"
)

// errQuit ends a session early.
var errQuit = errors.New("quit")

const sessionHelp = `commands:
  add circle|square|triangle     add a shape at the centre
  add polygon N                  add a regular polygon with N sides
  text CONTENT                   add a text object
  edit CONTENT                   replace the text of the selected object
  brush X,Y X,Y ...              draw a freehand stroke
  eraser X,Y X,Y ...             erase along a stroke
  tool NAME                      switch tool
  select N | deselect            change the selection
  move DX DY                     move the selection
  set KEY VALUE                  fill, stroke, opacity, radius, font-size,
                                 font-family, font-style, brush-size
  props                          show the property panel
  apply                          apply the panel to the selection
  fill                           fill the selection, or the background
  front | back                   reorder the selection
  delete                         delete the selection
  undo                           undo the last change
  image PATH                     insert an image
  background-image PATH          stretch an image behind the drawing
  list                           list objects
  save                           save now
  quit                           end the session`

// session interprets editor commands, one per line.
type session struct {
	ed          *yd.Editor
	w           io.Writer
	save        func() error
	interactive bool
}

func newSession(ed *yd.Editor, w io.Writer, save func() error, interactive bool) *session {
	return &session{ed: ed, w: w, save: save, interactive: interactive}
}

// run executes every line of r. Failing commands are reported and the
// session carries on; a non-interactive run then returns an error
// counting the failures.
func (s *session) run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	failed := 0
	for {
		s.prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := s.exec(line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			failed++
			fmt.Fprintf(s.w, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	if failed > 0 && !s.interactive {
		return fmt.Errorf("%d command(s) failed", failed)
	}
	return nil
}

func (s *session) prompt() {
	if s.interactive {
		fmt.Fprint(s.w, "yd> ")
	}
}

func (s *session) exec(line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "add":
		return s.add(rest)
	case "text":
		if rest == "" {
			return fmt.Errorf("usage: text CONTENT")
		}
		return s.ed.AddText(unescape(rest))
	case "edit":
		return s.ed.EditText(unescape(rest))
	case "brush":
		return s.stroke(yd.ToolBrush, rest)
	case "eraser":
		return s.stroke(yd.ToolEraser, rest)
	case "tool":
		tool, ok := yd.ParseTool(rest)
		if !ok {
			return fmt.Errorf("usage: tool %s", toolNames())
		}
		s.ed.SetTool(tool)
		return nil
	case "select":
		i, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("usage: select N")
		}
		return s.ed.Select(i)
	case "deselect":
		s.ed.Deselect()
		return nil
	case "move":
		return s.move(rest)
	case "set":
		return s.set(rest)
	case "props":
		p := s.ed.Properties()
		fmt.Fprintf(s.w, "stroke=%s fill=%s opacity=%g radius=%g font=%g %s %s\n",
			p.StrokeColor, p.FillColor, p.Opacity, p.CornerRadius, p.FontSize, p.FontFamily, p.FontStyle)
		return nil
	case "apply":
		return s.ed.ApplyProperties()
	case "fill":
		return s.ed.Fill()
	case "front":
		return s.ed.BringToFront()
	case "back":
		return s.ed.SendToBack()
	case "delete":
		return s.ed.Delete()
	case "undo":
		ok, err := s.ed.Undo()
		if err == nil && !ok {
			fmt.Fprintln(s.w, "nothing to undo")
		}
		return err
	case "image", "background-image":
		return s.image(cmd == "background-image", rest)
	case "list":
		for _, o := range s.ed.Objects() {
			fmt.Fprintf(s.w, "%d\t%s\tfill=%s\tstroke=%s\n", o.Index, o.Type, o.Fill, o.Stroke)
		}
		return nil
	case "save":
		if err := s.save(); err != nil {
			return err
		}
		fmt.Fprintln(s.w, "saved")
		return nil
	case "help":
		fmt.Fprintln(s.w, sessionHelp)
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

func (s *session) add(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return fmt.Errorf("usage: add circle|square|triangle|polygon N")
	}
	tool := yd.Tool(strings.ToLower(fields[0]))
	if tool != yd.ToolPolygon {
		return s.ed.AddShape(tool)
	}
	sides := 5
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("polygon sides: %w", err)
		}
		sides = n
	}
	return s.ed.AddPolygon(sides)
}

func (s *session) stroke(tool yd.Tool, arg string) error {
	points, err := parsePoints(arg)
	if err != nil {
		return err
	}
	s.ed.SetTool(tool)
	return s.ed.DrawStroke(points)
}

func (s *session) move(arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return fmt.Errorf("usage: move DX DY")
	}
	dx, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("dx: %w", err)
	}
	dy, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("dy: %w", err)
	}
	return s.ed.Move(dx, dy)
}

func (s *session) set(arg string) error {
	key, value, ok := strings.Cut(arg, " ")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return fmt.Errorf("usage: set KEY VALUE")
	}

	if key == "brush-size" {
		size, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("brush-size: %w", err)
		}
		return s.ed.SetBrushSize(size)
	}

	p := s.ed.Properties()
	switch key {
	case "fill":
		p.FillColor = value
	case "stroke":
		p.StrokeColor = value
	case "font-family":
		p.FontFamily = value
	case "font-style":
		style, ok := yd.ParseFontStyle(value)
		if !ok {
			return fmt.Errorf("font-style must be normal, italic or bold")
		}
		p.FontStyle = style
	case "opacity", "radius", "font-size":
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "opacity":
			if n < 0 || n > 100 {
				return fmt.Errorf("opacity must be between 0 and 100")
			}
			p.Opacity = n
		case "radius":
			p.CornerRadius = n
		case "font-size":
			if n <= 0 {
				return fmt.Errorf("font-size must be positive")
			}
			p.FontSize = n
		}
	default:
		return fmt.Errorf("unknown property %q", key)
	}
	s.ed.SetProperties(p)
	return nil
}

func (s *session) image(background bool, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	uri, width, height, err := scene.ImageFileDataURI(raw)
	if err != nil {
		return err
	}
	if background {
		return s.ed.SetBackgroundImage(uri)
	}
	return s.ed.InsertImage(uri, float64(width), float64(height))
}

func toolNames() string {
	names := make([]string, len(yd.Tools))
	for i, t := range yd.Tools {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}

// parsePoints reads "x,y x,y ...".
func parsePoints(arg string) ([]yd.Point, error) {
	var points []yd.Point
	for _, field := range strings.Fields(arg) {
		xs, ys, ok := strings.Cut(field, ",")
		if !ok {
			return nil, fmt.Errorf("point %q is not X,Y", field)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", field, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", field, err)
		}
		points = append(points, yd.Point{X: x, Y: y})
	}
	return points, nil
}

// unescape turns a literal \n into a line break.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
