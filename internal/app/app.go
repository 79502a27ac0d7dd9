package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"yd-go/internal/clipboard"
	"yd-go/internal/config"
	"yd-go/internal/encryption"
	"yd-go/internal/scene"
	"yd-go/internal/storage"
	"yd-go/internal/yd"
)

// YDApp is the application layer between the CLI and YDService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings and paths, and releases resources on Close.
type YDApp struct {
	cfg       *config.Config
	storage   yd.Storage
	encryptor yd.Encryptor
	fonts     *scene.FontRegistry
	service   *yd.YDService
	clock     yd.Clock
	op        *Operation
	logger    yd.Logger
	logFile   *os.File
}

// NewYDApp creates a fully wired YDApp from the given config.
// command identifies the CLI command being run (e.g. "list", "export").
// The caller must call Close when done.
func NewYDApp(cfg *config.Config, command string, verbose bool) (*YDApp, error) {
	clock := yd.RealClock{}
	op := NewOperation(command, "", clock)

	l, logFile, err := newLogger(cfg.LogDir, op.ID, verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	store, err := storage.NewStorageFromConfig(context.Background(), cfg.Storage)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		closeStorage(store)
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	fonts, err := scene.NewFontRegistry()
	if err != nil {
		closeStorage(store)
		logFile.Close()
		return nil, fmt.Errorf("loading fonts: %w", err)
	}
	if cfg.Fonts.Dir != "" {
		n, err := fonts.LoadDir(cfg.Fonts.Dir)
		if err != nil {
			logger.Warn("loading font directory failed", "dir", cfg.Fonts.Dir, "error", err)
		} else {
			logger.Debug("fonts loaded", "dir", cfg.Fonts.Dir, "count", n)
		}
	}

	width, height := cfg.Editor.Width, cfg.Editor.Height
	if width <= 0 || height <= 0 {
		width, height = config.DefaultWidth, config.DefaultHeight
	}

	svc := yd.NewYDService(store, scene.Factory(width, height, fonts), enc, logger, clock, yd.UUIDGenerator{}, cfg.Author)
	svc.SetThumbnailWidth(cfg.Editor.ThumbnailWidth)

	logger.Info("session started", "command", command, "storage", cfg.Storage.Type)

	return &YDApp{
		cfg:       cfg,
		storage:   store,
		encryptor: enc,
		fonts:     fonts,
		service:   svc,
		clock:     clock,
		op:        op,
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// Fail marks the session as failed in the log.
func (a *YDApp) Fail(err error) {
	a.op.Fail()
	a.logger.Error("command failed", "command", a.op.Command, "error", err)
}

// List returns every drawing, most recently updated first.
func (a *YDApp) List() ([]yd.Drawing, error) {
	return a.service.List()
}

// NewDrawing creates and stores an empty drawing.
func (a *YDApp) NewDrawing(name string) (yd.Drawing, error) {
	d := a.service.New(name)
	sc, err := a.service.LoadScene(&d)
	if err != nil {
		return d, err
	}
	return a.service.Save(d, sc)
}

// Show returns the drawing with id.
func (a *YDApp) Show(id string) (*yd.Drawing, error) {
	return a.service.Open(id)
}

// Rename changes the name of a drawing.
func (a *YDApp) Rename(id, name string) (yd.Drawing, error) {
	return a.service.Rename(id, name)
}

// Delete removes a drawing.
func (a *YDApp) Delete(id string) error {
	return a.service.Delete(id)
}

// ImportFile reads a YRD file into the library. Sealed files are opened
// with the passphrase returned by passphrase.
func (a *YDApp) ImportFile(path string, passphrase func() (string, error)) (yd.Drawing, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return yd.Drawing{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if a.service.IsEncrypted(raw) {
		if passphrase == nil {
			return yd.Drawing{}, fmt.Errorf("%s is encrypted", path)
		}
		pass, err := passphrase()
		if err != nil {
			return yd.Drawing{}, err
		}
		if raw, err = a.service.Decrypt(raw, pass); err != nil {
			return yd.Drawing{}, err
		}
	}
	return a.service.ImportFile(raw)
}

// ExportRequest overrides the [export] config for one export. Zero values
// take the configured defaults.
type ExportRequest struct {
	Format     string
	Background string
	Scale      float64
	Quality    int
	Encrypt    bool
}

// Export renders drawing id and suggests a file name for the result.
func (a *YDApp) Export(id string, req ExportRequest) ([]byte, string, error) {
	opts := a.exportOptions(req)
	d, err := a.service.Open(id)
	if err != nil {
		return nil, "", err
	}
	data, err := a.service.ExportFile(id, opts)
	if err != nil {
		return nil, "", err
	}
	return data, yd.ExportFileName(*d, opts.Format), nil
}

func (a *YDApp) exportOptions(req ExportRequest) yd.ExportOptions {
	def := a.cfg.Export
	format := strings.ToLower(firstNonEmpty(req.Format, def.Format, yd.FormatPNG))
	if format == "jpg" {
		format = yd.FormatJPEG
	}
	scale := req.Scale
	if scale <= 0 {
		scale = def.Scale
	}
	if scale <= 0 {
		scale = config.DefaultExportScale
	}
	quality := req.Quality
	if quality <= 0 {
		quality = def.Quality
	}
	return yd.ExportOptions{
		Format:  format,
		Encrypt: req.Encrypt,
		Raster: yd.RasterOptions{
			Scale:      scale,
			Background: firstNonEmpty(req.Background, def.Background, "transparent"),
			Quality:    quality,
		},
	}
}

// CopyToClipboard publishes an export: PNG as an image, YRD as text.
func (a *YDApp) CopyToClipboard(data []byte, format string) error {
	switch format {
	case yd.FormatPNG:
		return clipboard.WritePNG(data)
	case yd.FormatYRD:
		if !isText(data) {
			return fmt.Errorf("export is binary, write it to a file instead")
		}
		return clipboard.WriteText(string(data))
	}
	return fmt.Errorf("cannot copy %s to the clipboard", format)
}

// Edit opens drawing id ("new" for a fresh one) and runs editor commands
// from r, writing feedback to w. Autosave runs during the session; the
// drawing is saved once more when the commands end.
func (a *YDApp) Edit(id string, r io.Reader, w io.Writer, interactive bool) (yd.Drawing, error) {
	var d yd.Drawing
	if id == "new" {
		d = a.service.New("")
	} else {
		stored, err := a.service.Open(id)
		if err != nil {
			return yd.Drawing{}, err
		}
		d = *stored
	}

	delay, err := a.cfg.Editor.Delay()
	if err != nil {
		return d, err
	}
	ed, err := a.service.OpenEditor(d, yd.EditorOptions{
		HistoryLimit: a.cfg.Editor.HistoryLimit,
		AutoSave:     yd.AutoSaverOptions{Delay: delay},
		Logger:       a.logger,
	})
	if err != nil {
		return d, err
	}

	save := func() error {
		canvas, thumb, err := ed.Snapshot(a.thumbnailWidth())
		if err != nil {
			return err
		}
		saved, err := a.service.SaveCanvas(d, canvas, thumb)
		d = saved
		return err
	}

	runErr := newSession(ed, w, save, interactive).run(r)
	ed.Close()
	if err := save(); err != nil {
		return d, err
	}
	return d, runErr
}

// AddFont registers a font file under name and copies it into the fonts
// directory so later sessions load it too.
func (a *YDApp) AddFont(name, path string) error {
	if err := a.fonts.RegisterFile(name, path); err != nil {
		return err
	}
	if a.cfg.Fonts.Dir == "" {
		return fmt.Errorf("fonts dir is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading font file: %w", err)
	}
	if err := os.MkdirAll(a.cfg.Fonts.Dir, 0755); err != nil {
		return fmt.Errorf("creating fonts directory: %w", err)
	}
	dest := filepath.Join(a.cfg.Fonts.Dir, name+strings.ToLower(filepath.Ext(path)))
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("writing font file: %w", err)
	}
	a.logger.Info("font added", "name", name, "path", dest)
	return nil
}

// Fonts lists the registered font families.
func (a *YDApp) Fonts() []string {
	return a.fonts.Families()
}

// InitKeys generates the key pair used for encrypted exports.
func (a *YDApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// Close logs the end of the session and releases storage and the log file.
func (a *YDApp) Close() error {
	a.logger.Info("session finished", "command", a.op.Command, "status", a.op.Status,
		"elapsed", a.op.Elapsed(a.clock).String())

	firstErr := closeStorage(a.storage)
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}

func (a *YDApp) thumbnailWidth() int {
	if w := a.cfg.Editor.ThumbnailWidth; w > 0 {
		return w
	}
	return yd.DefaultThumbnailWidth
}

func closeStorage(s yd.Storage) error {
	c, ok := s.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// isText reports whether data can travel as clipboard text. Armored age
// output can; the binary test encryption header cannot.
func isText(data []byte) bool {
	return utf8.Valid(data) && bytes.IndexByte(data, 0) < 0
}
