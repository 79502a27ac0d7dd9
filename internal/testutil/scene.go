package testutil

import (
	"testing"

	"yd-go/internal/scene"
	"yd-go/internal/yd"
)

// Scene dimensions used by NewTestScene.
const (
	SceneWidth  = 400
	SceneHeight = 300
)

// NewTestSceneFactory returns a factory for small canvases with the
// built-in fonts.
func NewTestSceneFactory(t *testing.T) yd.SceneFactory {
	t.Helper()
	fonts, err := scene.NewFontRegistry()
	if err != nil {
		t.Fatalf("failed to load fonts: %v", err)
	}
	return scene.Factory(SceneWidth, SceneHeight, fonts)
}

// NewTestScene creates an empty canvas.
func NewTestScene(t *testing.T) yd.Scene {
	t.Helper()
	return NewTestSceneFactory(t)()
}
