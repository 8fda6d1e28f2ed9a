package session

import (
	"fmt"
	"strings"
)

// Tool identifies the active drawing operation. Exactly one is active.
type Tool int

const (
	ToolPen Tool = iota
	ToolStraightLine
	ToolCircle
	ToolFill
	ToolCrop
	ToolText
)

var toolNames = []string{"pen", "line", "circle", "fill", "crop", "text"}

// toolAliases maps alternative control values onto tools.
var toolAliases = map[string]Tool{
	"default":       ToolPen,
	"stroke":        ToolPen,
	"freehand":      ToolPen,
	"straight":      ToolStraightLine,
	"straight-line": ToolStraightLine,
	"straightline":  ToolStraightLine,
}

// Tools returns every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolPen, ToolStraightLine, ToolCircle, ToolFill, ToolCrop, ToolText}
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolNames[t]
}

// Valid reports whether t is one of the defined tools.
func (t Tool) Valid() bool { return t >= ToolPen && t <= ToolText }

// ParseTool resolves a control value such as "circle" or "straight-line".
func ParseTool(s string) (Tool, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	if t, ok := toolAliases[name]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: unknown tool %q", ErrInvalidInput, s)
}

// activate issues the engine command that arms t.
func (t Tool) activate(e Engine) error {
	switch t {
	case ToolPen:
		return e.ActivatePen()
	case ToolStraightLine:
		return e.ActivateStraightLine()
	case ToolCircle:
		return e.ActivateCircle()
	case ToolFill:
		return e.ActivateFill()
	case ToolCrop:
		return e.ActivateCrop()
	case ToolText:
		return e.ActivateText()
	}
	return fmt.Errorf("%w: unknown tool %d", ErrInvalidInput, int(t))
}
