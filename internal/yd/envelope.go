package yd

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// EnvelopeType marks a YRD file.
	EnvelopeType = "yourDrawing"
	// EnvelopeVersion is written into every exported envelope.
	EnvelopeVersion = "1.0"
	// FileExtension is the extension of exported YRD files.
	FileExtension = ".yrd"
)

// Envelope wraps the scene's native dump with identity and provenance.
type Envelope struct {
	Version    string          `json:"version"`
	Type       string          `json:"type"`
	CanvasJSON json.RawMessage `json:"canvasJSON"`
	Metadata   Metadata        `json:"metadata"`
}

// Metadata describes where an envelope came from. CreatedAt is in
// Unix milliseconds.
type Metadata struct {
	CreatedAt int64  `json:"createdAt"`
	DrawingID string `json:"drawingId"`
	Author    string `json:"author"`
}

// Export wraps the current scene into an envelope.
func Export(scene Scene, meta Metadata) (*Envelope, error) {
	canvas, err := scene.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serializing scene: %w", err)
	}
	return &Envelope{
		Version:    EnvelopeVersion,
		Type:       EnvelopeType,
		CanvasJSON: canvas,
		Metadata:   meta,
	}, nil
}

// Marshal encodes e as the bytes of a YRD file.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// ParseEnvelope decodes raw strictly as a YRD envelope. Anything without
// type "yourDrawing" and a canvasJSON payload is an ImportError.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ImportError{Reason: "not valid JSON", Err: err}
	}
	if env.Type != EnvelopeType {
		return nil, &ImportError{Reason: fmt.Sprintf("unexpected type %q", env.Type)}
	}
	if !hasPayload(env.CanvasJSON) {
		return nil, &ImportError{Reason: "missing canvasJSON"}
	}
	return &env, nil
}

// Import loads raw into scene. raw may be a YRD envelope or, for records
// saved before envelopes existed, a bare scene dump. The returned metadata
// is nil for bare dumps. On failure scene is left untouched.
func Import(scene Scene, raw []byte) (*Metadata, error) {
	if !json.Valid(raw) {
		return nil, &ImportError{Reason: "not valid JSON"}
	}

	env, envErr := ParseEnvelope(raw)
	if envErr == nil {
		if err := scene.Load(unquote(env.CanvasJSON)); err != nil {
			return nil, &ImportError{Reason: "envelope payload rejected by scene", Err: err}
		}
		meta := env.Metadata
		return &meta, nil
	}

	if err := scene.Load(json.RawMessage(raw)); err != nil {
		return nil, &ImportError{Reason: "neither a YRD envelope nor a scene dump", Err: err}
	}
	return nil, nil
}

// hasPayload rejects absent, null and empty canvasJSON values.
func hasPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// unquote undoes double encoding: some writers store canvasJSON as a JSON
// string holding the dump instead of the dump itself.
func unquote(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return raw
	}
	return json.RawMessage(s)
}
