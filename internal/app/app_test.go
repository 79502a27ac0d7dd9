package app

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/gomono"

	"yd-go/internal/config"
	"yd-go/internal/yd"
)

func newTestApp(t *testing.T) *YDApp {
	t.Helper()
	cfg := config.NewConfig("tester", t.TempDir())
	cfg.Storage.Type = "memory"
	cfg.Encryption.Type = "test"
	cfg.Editor.Width, cfg.Editor.Height = 200, 100

	a, err := NewYDApp(cfg, "test", false)
	if err != nil {
		t.Fatalf("NewYDApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewYDApp_InvalidConfig(t *testing.T) {
	cfg := config.NewConfig("tester", t.TempDir())
	cfg.Storage.Type = "floppy"
	if _, err := NewYDApp(cfg, "test", false); err == nil {
		t.Error("NewYDApp() with unknown storage expected error")
	}

	cfg.Storage.Type = "memory"
	cfg.Encryption.Type = "rot13"
	if _, err := NewYDApp(cfg, "test", false); err == nil {
		t.Error("NewYDApp() with unknown encryption expected error")
	}
}

func TestYDApp_Gallery(t *testing.T) {
	a := newTestApp(t)

	d, err := a.NewDrawing("first")
	if err != nil {
		t.Fatalf("NewDrawing() error = %v", err)
	}
	if d.Thumbnail == "" || d.Data == "" {
		t.Errorf("NewDrawing() stored an incomplete record: %+v", d)
	}

	if _, err := a.Rename(d.ID, "renamed"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	shown, err := a.Show(d.ID)
	if err != nil || shown.Name != "renamed" {
		t.Fatalf("Show() = %+v, %v", shown, err)
	}

	all, err := a.List()
	if err != nil || len(all) != 1 {
		t.Fatalf("List() = %v, %v", all, err)
	}

	if err := a.Delete(d.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := a.Show(d.ID); !errors.Is(err, yd.ErrNotFound) {
		t.Errorf("Show(deleted) error = %v", err)
	}
}

func TestYDApp_Edit(t *testing.T) {
	a := newTestApp(t)
	script := strings.Join([]string{
		"# a small drawing",
		"add circle",
		"set fill #ff0000",
		"apply",
		"text hello",
		"brush 10,10 20,20 30,10",
		"list",
		"undo",
		"save",
	}, "\n")

	var out bytes.Buffer
	d, err := a.Edit("new", strings.NewReader(script), &out, false)
	if err != nil {
		t.Fatalf("Edit() error = %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "saved") {
		t.Errorf("output = %q, want save confirmation", out.String())
	}
	if !strings.Contains(out.String(), "1\ti-text") {
		t.Errorf("list output = %q", out.String())
	}

	stored, err := a.Show(d.ID)
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	sc, err := a.service.LoadScene(stored)
	if err != nil {
		t.Fatalf("LoadScene() error = %v", err)
	}
	objs := sc.Objects()
	if len(objs) != 2 || objs[0].Type() != yd.TypeCircle || objs[1].Type() != yd.TypeIText {
		t.Fatalf("stored objects = %d", len(objs))
	}
	if fill, _ := objs[0].Get("fill"); fill != "#ff0000" {
		t.Errorf("circle fill = %v, want #ff0000", fill)
	}

	// Reopen and keep editing the stored drawing.
	if _, err := a.Edit(d.ID, strings.NewReader("select 0\ndelete\n"), &out, false); err != nil {
		t.Fatalf("second Edit() error = %v", err)
	}
	stored, _ = a.Show(d.ID)
	sc, _ = a.service.LoadScene(stored)
	if len(sc.Objects()) != 1 {
		t.Errorf("objects after delete = %d, want 1", len(sc.Objects()))
	}
}

func TestYDApp_EditReportsFailures(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	d, err := a.Edit("new", strings.NewReader("add hexagon\nadd square\nquit\nadd circle\n"), &out, false)
	if err == nil || !strings.Contains(err.Error(), "1 command(s) failed") {
		t.Fatalf("Edit() error = %v, want one failure", err)
	}

	stored, err := a.Show(d.ID)
	if err != nil {
		t.Fatalf("drawing was not saved: %v", err)
	}
	sc, _ := a.service.LoadScene(stored)
	if len(sc.Objects()) != 1 {
		t.Errorf("objects = %d, want 1 (commands after quit ignored)", len(sc.Objects()))
	}
}

func TestYDApp_EditMissing(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.Edit("nope", strings.NewReader(""), &bytes.Buffer{}, false); !errors.Is(err, yd.ErrNotFound) {
		t.Errorf("Edit(missing) error = %v", err)
	}
}

func TestYDApp_ExportImport(t *testing.T) {
	a := newTestApp(t)
	d, err := a.Edit("new", strings.NewReader("add square\n"), &bytes.Buffer{}, false)
	if err != nil {
		t.Fatal(err)
	}

	img, name, err := a.Export(d.ID, ExportRequest{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("file name = %q, want .png", name)
	}
	decoded, err := png.Decode(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("export size = %dx%d, want 400x200 at the default scale", b.Dx(), b.Dy())
	}

	yrd, name, err := a.Export(d.ID, ExportRequest{Format: "yrd"})
	if err != nil {
		t.Fatalf("Export(yrd) error = %v", err)
	}
	if !strings.HasSuffix(name, yd.FileExtension) {
		t.Errorf("file name = %q", name)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, yrd, 0644); err != nil {
		t.Fatal(err)
	}

	imported, err := a.ImportFile(path, nil)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if imported.ID == d.ID || !strings.HasPrefix(imported.Name, "Imported drawing") {
		t.Errorf("imported = %+v", imported)
	}
}

func TestYDApp_EncryptedExport(t *testing.T) {
	a := newTestApp(t)
	if err := a.InitKeys("pw"); err != nil {
		t.Fatalf("InitKeys() error = %v", err)
	}
	d, err := a.NewDrawing("sealed")
	if err != nil {
		t.Fatal(err)
	}

	sealed, _, err := a.Export(d.ID, ExportRequest{Format: "yrd", Encrypt: true})
	if err != nil {
		t.Fatalf("Export(encrypted) error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "sealed.yrd")
	if err := os.WriteFile(path, sealed, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.ImportFile(path, nil); err == nil {
		t.Error("ImportFile() of a sealed file without passphrase expected error")
	}
	if _, err := a.ImportFile(path, func() (string, error) { return "wrong", nil }); err == nil {
		t.Error("ImportFile() with wrong passphrase expected error")
	}
	if _, err := a.ImportFile(path, func() (string, error) { return "pw", nil }); err != nil {
		t.Errorf("ImportFile() error = %v", err)
	}

	if err := a.CopyToClipboard(sealed, yd.FormatYRD); err == nil {
		t.Error("CopyToClipboard() of binary data expected error")
	}
	if err := a.CopyToClipboard(sealed, yd.FormatJPEG); err == nil {
		t.Error("CopyToClipboard(jpeg) expected error")
	}
}

func TestYDApp_ExportOptions(t *testing.T) {
	a := newTestApp(t)
	got := a.exportOptions(ExportRequest{Format: "JPG", Quality: 50})
	want := yd.ExportOptions{
		Format: yd.FormatJPEG,
		Raster: yd.RasterOptions{Scale: config.DefaultExportScale, Background: "transparent", Quality: 50},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("exportOptions() = %+v, want %+v", got, want)
	}
}

func TestYDApp_AddFont(t *testing.T) {
	a := newTestApp(t)
	src := filepath.Join(t.TempDir(), "Mono.TTF")
	if err := os.WriteFile(src, gomono.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	if err := a.AddFont("mono", src); err != nil {
		t.Fatalf("AddFont() error = %v", err)
	}
	if got := a.Fonts(); !reflect.DeepEqual(got, []string{"mono"}) {
		t.Errorf("Fonts() = %v", got)
	}
	if _, err := os.Stat(filepath.Join(a.cfg.Fonts.Dir, "mono.ttf")); err != nil {
		t.Errorf("font not copied: %v", err)
	}

	if err := a.AddFont("broken", filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Error("AddFont() with missing file expected error")
	}
}
