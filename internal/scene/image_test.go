package scene

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestDataURI(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}

	uri, w, h, err := ImageFileDataURI(buf.Bytes())
	if err != nil {
		t.Fatalf("ImageFileDataURI() error = %v", err)
	}
	if w != 3 || h != 2 {
		t.Errorf("size = %dx%d, want 3x2", w, h)
	}

	img, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if img.Bounds().Dx() != 3 {
		t.Errorf("decoded width = %d, want 3", img.Bounds().Dx())
	}

	for _, bad := range []string{"", "data:text/plain;base64,aGk=", "data:image/png;base64,!!!", "data:image/png;base64,aGk="} {
		if _, err := DecodeDataURI(bad); err == nil {
			t.Errorf("DecodeDataURI(%q) expected error", bad)
		}
	}

	if _, _, _, err := ImageFileDataURI([]byte("not an image")); err == nil {
		t.Error("ImageFileDataURI(garbage) expected error")
	}
}
