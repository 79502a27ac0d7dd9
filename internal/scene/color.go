package scene

import (
	"strconv"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

// parseColor reads a CSS colour: #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb(), rgba() or an SVG colour name. ok is false for empty,
// transparent and unparseable values, meaning "paint nothing".
func parseColor(s string) (gg.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "", s == "transparent", s == "none":
		return gg.RGBA{}, false
	case strings.HasPrefix(s, "#"):
		switch len(s) - 1 {
		case 3, 4, 6, 8:
			if _, err := strconv.ParseUint(s[1:], 16, 64); err != nil {
				return gg.RGBA{}, false
			}
			c := gg.Hex(s)
			return c, c.A > 0
		}
		return gg.RGBA{}, false
	case strings.HasPrefix(s, "rgb"):
		return parseRGBFunc(s)
	}

	named, ok := colornames.Map[s]
	if !ok {
		return gg.RGBA{}, false
	}
	return gg.FromColor(named), true
}

func parseRGBFunc(s string) (gg.RGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return gg.RGBA{}, false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return gg.RGBA{}, false
	}

	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		p = strings.TrimSpace(p)
		pct := strings.HasSuffix(p, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return gg.RGBA{}, false
		}
		switch {
		case pct:
			v /= 100
		case i < 3:
			v /= 255
		}
		ch[i] = min(max(v, 0), 1)
	}
	c := gg.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}
	return c, c.A > 0
}
