package yd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout formats the date in default drawing names.
	DateLayout = "2006-01-02"

	FormatYRD  = "yrd"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ExportOptions selects the output of ExportFile.
type ExportOptions struct {
	// Format is yrd, png or jpeg.
	Format string
	// Encrypt seals YRD output with the configured key pair.
	Encrypt bool
	Raster  RasterOptions
}

// YDService is the orchestration layer the CLI talks to. It owns the
// gallery of drawings and moves drawings between storage, scenes and files.
type YDService struct {
	library   *Library
	newScene  SceneFactory
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	author    string
	thumbW    int
}

// NewYDService creates a YDService. encryptor may be nil when encrypted
// export is not configured.
func NewYDService(storage Storage, newScene SceneFactory, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator, author string) *YDService {
	return &YDService{
		library:   NewLibrary(storage, clock, logger),
		newScene:  newScene,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		author:    author,
		thumbW:    DefaultThumbnailWidth,
	}
}

// SetThumbnailWidth changes the width of generated previews.
func (s *YDService) SetThumbnailWidth(w int) {
	if w > 0 {
		s.thumbW = w
	}
}

// New allocates a record for a fresh drawing. Nothing is written until
// the first save.
func (s *YDService) New(name string) Drawing {
	now := s.clock.Now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultName(now)
	}
	return Drawing{
		ID:        s.idgen.New(),
		Name:      name,
		CreatedAt: Millis(now),
		UpdatedAt: Millis(now),
	}
}

// Open returns the record with id.
func (s *YDService) Open(id string) (*Drawing, error) {
	return s.library.Get(id)
}

// LoadScene builds a scene holding d's content. Records without data
// load as an empty scene.
func (s *YDService) LoadScene(d *Drawing) (Scene, error) {
	scene := s.newScene()
	if d.Data == "" {
		return scene, nil
	}
	if _, err := Import(scene, []byte(d.Data)); err != nil {
		return nil, fmt.Errorf("loading drawing %s: %w", d.ID, err)
	}
	return scene, nil
}

// OpenEditor loads d into a new editor whose autosave writes back to d.
// The editor is ready for edits on return.
func (s *YDService) OpenEditor(d Drawing, opts EditorOptions) (*Editor, error) {
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	if opts.AutoSave.ThumbnailWidth <= 0 {
		opts.AutoSave.ThumbnailWidth = s.thumbW
	}
	opts.AutoSave.Persist = func(canvas json.RawMessage, thumb string) {
		if _, err := s.SaveCanvas(d, canvas, thumb); err != nil {
			s.logger.Error("autosave failed", "id", d.ID, "error", err)
		}
	}

	ed := NewEditor(s.newScene(), opts)
	if err := ed.Load([]byte(d.Data)); err != nil {
		return nil, err
	}
	ed.Ready()
	return ed, nil
}

// Save writes the scene under d's id, preserving the name and creation
// time of an existing record.
func (s *YDService) Save(d Drawing, scene Scene) (Drawing, error) {
	canvas, err := scene.Serialize()
	if err != nil {
		return d, fmt.Errorf("serializing scene: %w", err)
	}
	thumb, err := scene.Thumbnail(s.thumbW)
	if err != nil {
		return d, fmt.Errorf("rendering thumbnail: %w", err)
	}
	return s.SaveCanvas(d, canvas, thumb)
}

// SaveCanvas wraps canvas into an envelope and stores it. The record
// name falls back to the stored name, then to a dated default.
func (s *YDService) SaveCanvas(d Drawing, canvas json.RawMessage, thumbnail string) (Drawing, error) {
	existing, err := s.library.Get(d.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return d, err
	}

	now := s.clock.Now()
	if existing != nil {
		if d.Name == "" {
			d.Name = existing.Name
		}
		d.CreatedAt = existing.CreatedAt
	}
	if d.Name == "" {
		d.Name = s.defaultName(now)
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = Millis(now)
	}

	env := &Envelope{
		Version:    EnvelopeVersion,
		Type:       EnvelopeType,
		CanvasJSON: canvas,
		Metadata: Metadata{
			CreatedAt: d.CreatedAt,
			DrawingID: d.ID,
			Author:    s.author,
		},
	}
	data, err := env.Marshal()
	if err != nil {
		return d, err
	}
	d.Data = string(data)
	d.Thumbnail = thumbnail

	return s.library.Save(d)
}

// Rename changes the name of a stored drawing.
func (s *YDService) Rename(id, name string) (Drawing, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Drawing{}, fmt.Errorf("drawing name cannot be empty")
	}
	d, err := s.library.Get(id)
	if err != nil {
		return Drawing{}, err
	}
	d.Name = name
	return s.library.Save(*d)
}

// Delete removes a stored drawing.
func (s *YDService) Delete(id string) error {
	deleted, err := s.library.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns every stored drawing, most recently updated first.
func (s *YDService) List() ([]Drawing, error) {
	return s.library.ListRecent()
}

// ImportFile stores the content of a YRD file as a new drawing. Only
// envelopes are accepted here. The creation time is taken from the
// envelope metadata when present.
func (s *YDService) ImportFile(raw []byte) (Drawing, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return Drawing{}, err
	}

	scene := s.newScene()
	if err := scene.Load(unquote(env.CanvasJSON)); err != nil {
		return Drawing{}, &ImportError{Reason: "envelope payload rejected by scene", Err: err}
	}
	thumb, err := scene.Thumbnail(s.thumbW)
	if err != nil {
		s.logger.Warn("import thumbnail failed", "error", err)
		thumb = ""
	}

	now := s.clock.Now()
	d := Drawing{
		ID:        s.idgen.New(),
		Name:      "Imported drawing " + now.Format(DateLayout),
		Thumbnail: thumb,
		Data:      string(raw),
		CreatedAt: env.Metadata.CreatedAt,
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = Millis(now)
	}

	s.logger.Info("importing drawing", "id", d.ID, "source_id", env.Metadata.DrawingID)
	return s.library.Save(d)
}

// IsEncrypted reports whether raw is a sealed YRD file.
func (s *YDService) IsEncrypted(raw []byte) bool {
	return s.encryptor != nil && s.encryptor.IsEncrypted(raw)
}

// Decrypt opens a sealed YRD file with the passphrase of the private key.
func (s *YDService) Decrypt(raw []byte, passphrase string) ([]byte, error) {
	if s.encryptor == nil || !s.encryptor.IsConfigured() {
		return nil, fmt.Errorf("encryption is not configured")
	}
	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking key: %w", err)
	}
	var out bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader(raw), &out); err != nil {
		return nil, fmt.Errorf("decrypting file: %w", err)
	}
	return out.Bytes(), nil
}

// ExportFile renders the drawing with id as a YRD file or a raster image.
func (s *YDService) ExportFile(id string, opts ExportOptions) ([]byte, error) {
	d, err := s.library.Get(id)
	if err != nil {
		return nil, err
	}
	scene, err := s.LoadScene(d)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	switch opts.Format {
	case "", FormatYRD:
		env, err := Export(scene, Metadata{
			CreatedAt: d.CreatedAt,
			DrawingID: d.ID,
			Author:    s.author,
		})
		if err != nil {
			return nil, err
		}
		data, err := env.Marshal()
		if err != nil {
			return nil, err
		}
		if !opts.Encrypt {
			return data, nil
		}
		if s.encryptor == nil || !s.encryptor.IsConfigured() {
			return nil, fmt.Errorf("encryption is not configured")
		}
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &out); err != nil {
			return nil, fmt.Errorf("encrypting export: %w", err)
		}
	case FormatPNG, FormatJPEG:
		ro := opts.Raster
		ro.Format = opts.Format
		if err := scene.Rasterize(&out, ro); err != nil {
			return nil, fmt.Errorf("rasterizing drawing %s: %w", id, err)
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", opts.Format)
	}

	s.logger.Info("exported drawing", "id", id, "format", opts.Format, "bytes", out.Len())
	return out.Bytes(), nil
}

// ExportFileName suggests a file name for d in format.
func ExportFileName(d Drawing, format string) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(d.Name))
	if base == "" {
		base = d.ID
	}
	switch format {
	case FormatPNG:
		return base + ".png"
	case FormatJPEG:
		return base + ".jpg"
	}
	return base + FileExtension
}

func (s *YDService) defaultName(now time.Time) string {
	return "Drawing " + now.Format(DateLayout)
}
