package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 8)})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadFramesSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "002.png"))
	writePNG(t, filepath.Join(dir, "001.PNG"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	frames, err := loadFrames(dir)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "001.PNG", filepath.Base(frames[0].path))
	assert.Equal(t, "002.png", filepath.Base(frames[1].path))
	assert.Equal(t, "png", frames[0].format)
}

func TestLoadFramesEmptyDir(t *testing.T) {
	_, err := loadFrames(t.TempDir())
	assert.Error(t, err)
}

func TestRunLocalReportsEveryFrame(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(dir, name))
	}
	frames, err := loadFrames(dir)
	require.NoError(t, err)

	var out bytes.Buffer
	opts := runOptions{template: "center", fps: 30}
	require.NoError(t, runLocal(context.Background(), &out, frames, opts))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "a.png"))
	assert.Contains(t, lines[0], "symmetry")
}

func TestTemplatesCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"templates"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "rule_of_thirds")
}
