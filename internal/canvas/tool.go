package canvas

import (
	"fmt"
	"strings"
)

// Tool is the active drawing tool.
type Tool string

const (
	ToolNone      Tool = "none"
	ToolFreehand  Tool = "freehand"
	ToolText      Tool = "text"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolEraser    Tool = "eraser"
)

// Icon identifies the glyph a client draws for a tool.
type Icon string

const (
	IconHand   Icon = "hand"
	IconPencil Icon = "pencil"
	IconType   Icon = "type"
	IconSquare Icon = "square"
	IconCircle Icon = "circle"
	IconEraser Icon = "eraser"
)

// ToolInfo describes one toolbar entry.
type ToolInfo struct {
	Tool      Tool     `json:"tool"`
	Label     string   `json:"label"`
	Icon      Icon     `json:"icon"`
	Shortcuts []string `json:"shortcuts"`
}

var palette = []ToolInfo{
	{Tool: ToolNone, Label: "Pan", Icon: IconHand, Shortcuts: []string{"Space", "Escape"}},
	{Tool: ToolFreehand, Label: "Draw", Icon: IconPencil, Shortcuts: []string{"P"}},
	{Tool: ToolText, Label: "Text", Icon: IconType, Shortcuts: []string{"T"}},
	{Tool: ToolRectangle, Label: "Rectangle", Icon: IconSquare, Shortcuts: []string{"R"}},
	{Tool: ToolCircle, Label: "Circle", Icon: IconCircle, Shortcuts: []string{"C", "O"}},
	{Tool: ToolEraser, Label: "Eraser", Icon: IconEraser, Shortcuts: []string{"E"}},
}

// Palette lists every tool in toolbar order.
func Palette() []ToolInfo {
	out := make([]ToolInfo, len(palette))
	copy(out, palette)
	return out
}

// Icon returns the tool's glyph.
func (t Tool) Icon() Icon {
	for _, info := range palette {
		if info.Tool == t {
			return info.Icon
		}
	}
	return IconHand
}

// ParseTool validates a tool name. The empty string means none.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ToolNone, nil
	}
	for _, info := range palette {
		if string(info.Tool) == s {
			return info.Tool, nil
		}
	}
	return ToolNone, fmt.Errorf("unknown tool %q", s)
}

// KeyAction is whether a key went down or up.
type KeyAction string

const (
	KeyDown KeyAction = "down"
	KeyUp   KeyAction = "up"
)

// KeyEvent is a global keyboard event. InputFocused is set while a text
// field has focus, in which case shortcuts are ignored.
type KeyEvent struct {
	Key          string    `json:"key"`
	Action       KeyAction `json:"action"`
	InputFocused bool      `json:"input_focused"`
}

// shortcutTool maps a letter key to its tool.
func shortcutTool(key string) (Tool, bool) {
	switch strings.ToUpper(key) {
	case "P":
		return ToolFreehand, true
	case "T":
		return ToolText, true
	case "R":
		return ToolRectangle, true
	case "C", "O":
		return ToolCircle, true
	case "E":
		return ToolEraser, true
	case "ESCAPE":
		return ToolNone, true
	}
	return "", false
}

func isSpace(key string) bool {
	return key == " " || strings.EqualFold(key, "space")
}
