package notify

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/paintassemble/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func recorder(out *[]sent) SendFunc {
	return func(title, body string, opts platform.Options) error {
		*out = append(*out, sent{title, body, opts})
		return nil
	}
}

func TestDisabledEventsAreSilent(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), WithSender(recorder(&got)))
	n.Copy("")
	n.Error(errors.New("boom"))
	n.Export("x.png")
	assert.Empty(t, got)
}

func TestEnabledEventsFormatted(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), WithSender(recorder(&got)))
	for _, e := range Events() {
		n.Enable(e, true)
	}

	n.Copy("")
	n.Error(errors.New("decode failed"))
	n.Import("photo.png", nil)

	require.Len(t, got, 3)
	assert.Equal(t, "Copied image to clipboard", got[0].body)
	assert.Equal(t, "decode failed", got[1].body)
	assert.Equal(t, "Imported photo.png", got[2].body)
	assert.Equal(t, "Paint Assemble", got[0].opts.AppName)
}

func TestExportUsesFileAsIcon(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), WithSender(recorder(&got)))
	n.Enable(EventExport, true)

	path := filepath.Join(t.TempDir(), "paint-assemble.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))
	n.Export(path)

	require.Len(t, got, 1)
	assert.Equal(t, path, got[0].opts.IconPath)
	assert.Contains(t, got[0].body, "paint-assemble.png")
}

func TestImportPreviewRemoved(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), WithSender(recorder(&got)))
	n.Enable(EventImport, true)
	n.Import("clip", image.NewRGBA(image.Rect(0, 0, 2, 2)))

	require.Len(t, got, 1)
	require.NotEmpty(t, got[0].opts.IconPath)
	_, err := os.Stat(got[0].opts.IconPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadPreferencesFromEnv(t *testing.T) {
	t.Setenv("PAINTASSEMBLE_NOTIFY_TITLE", "Sketch")
	t.Setenv("PAINTASSEMBLE_NOTIFY_COPY_TEXT", "%s copied")

	p, err := LoadPreferences()
	require.NoError(t, err)
	assert.Equal(t, "Sketch", p.Title)
	assert.Equal(t, "%s copied", p.Copy)
	assert.Equal(t, DefaultPreferences().Export, p.Export)
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Enabled(EventCopy))
	n.Enable(EventCopy, true)
}
