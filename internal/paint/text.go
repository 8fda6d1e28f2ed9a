package paint

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontSize is the pixel size of text typed with the text tool.
const DefaultFontSize = 48

var printable = regexp.MustCompile(`^[a-zA-Z0-9 ]$`)

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
)

func loadFace(size float64) (text.Face, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewFontSource(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("load font: %w", fontErr)
	}
	return fontSource.Face(size), nil
}

type textState struct {
	caret   point
	placed  bool
	content []rune
}

// Key edits the pending text. Single letters, digits and spaces are
// appended, Backspace removes the last character and Enter draws the text
// onto the base layer at the caret. Other keys are ignored.
func (c *Canvas) Key(key string) {
	if c.mode != modeText || !c.text.placed {
		return
	}
	switch {
	case key == "Enter":
		if len(c.text.content) > 0 {
			c.base.DrawString(string(c.text.content), c.text.caret.x, c.text.caret.y)
			c.log.Debug("text committed", "text", string(c.text.content))
		}
		c.text.content = nil
	case key == "Backspace":
		if n := len(c.text.content); n > 0 {
			c.text.content = c.text.content[:n-1]
		}
	case printable.MatchString(key):
		c.text.content = append(c.text.content, []rune(key)...)
	default:
		return
	}
	c.previewText()
}

func (c *Canvas) previewText() {
	c.clearPreview()
	if len(c.text.content) > 0 {
		c.top.DrawString(string(c.text.content), c.text.caret.x, c.text.caret.y)
	}
}
