package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
)

func TestWritePNG_RejectsNonPNG(t *testing.T) {
	if err := WritePNG([]byte("not a png")); err == nil {
		t.Error("WritePNG() expected error for non-png data")
	}
}

func TestWrite_NoDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	if err := WritePNG(buf.Bytes()); !errors.Is(err, ErrNoDisplay) {
		t.Errorf("WritePNG() error = %v, want ErrNoDisplay", err)
	}
	if err := WriteText("x"); !errors.Is(err, ErrNoDisplay) {
		t.Errorf("WriteText() error = %v, want ErrNoDisplay", err)
	}
}
