package ui

import (
	"unicode"

	tea "charm.land/bubbletea/v2"
)

// Key labels for named keys. Printable characters are their own label,
// control keys are "C-x" and alt or escape-prefixed keys carry an "M-" prefix.
const (
	KeyRet       = "RET"
	KeyTab       = "TAB"
	KeyEsc       = "ESC"
	KeyUp        = "<up>"
	KeyDown      = "<down>"
	KeyLeft      = "<left>"
	KeyRight     = "<right>"
	KeyHome      = "<home>"
	KeyEnd       = "<end>"
	KeyPgUp      = "<pgup>"
	KeyPgDown    = "<pgdown>"
	KeyDelete    = "<delete>"
	KeyBackspace = "<backspace>"
)

var namedKeys = map[rune]string{
	tea.KeyEnter:     KeyRet,
	tea.KeyKpEnter:   KeyRet,
	tea.KeyTab:       KeyTab,
	tea.KeyEscape:    KeyEsc,
	tea.KeyUp:        KeyUp,
	tea.KeyDown:      KeyDown,
	tea.KeyLeft:      KeyLeft,
	tea.KeyRight:     KeyRight,
	tea.KeyHome:      KeyHome,
	tea.KeyEnd:       KeyEnd,
	tea.KeyPgUp:      KeyPgUp,
	tea.KeyPgDown:    KeyPgDown,
	tea.KeyDelete:    KeyDelete,
	tea.KeyBackspace: KeyBackspace,
	tea.KeySpace:     "SPC",
}

// usShifted maps unshifted punctuation and digits to their shifted
// counterparts on a US PC-101 layout.
var usShifted = map[rune]rune{
	'`': '~', '1': '!', '2': '@', '3': '#', '4': '$', '5': '%',
	'6': '^', '7': '&', '8': '*', '9': '(', '0': ')', '-': '_',
	'=': '+', '[': '{', ']': '}', '\\': '|', ';': ':', '\'': '"',
	',': '<', '.': '>', '/': '?',
}

// shifted returns the character a shifted key press produces. Terminals using
// the kitty keyboard protocol report the base key plus ModShift and, when
// asked to, the shifted key as well.
func shifted(k tea.Key) rune {
	if k.ShiftedCode != 0 {
		return k.ShiftedCode
	}
	if r, ok := usShifted[k.Code]; ok {
		return r
	}
	return unicode.ToUpper(k.Code)
}

// KeyLabel converts a key press into the label used by key bindings.
func KeyLabel(k tea.Key) string {
	ctrl := k.Mod.Contains(tea.ModCtrl)
	alt := k.Mod.Contains(tea.ModAlt)

	if k.Text != "" && !ctrl && !alt {
		return k.Text
	}

	var label string
	switch name, ok := namedKeys[k.Code]; {
	case ok && k.Code == tea.KeySpace && !ctrl:
		label = " "
	case ok && ctrl:
		label = "C-" + name
	case ok:
		label = name
	case unicode.IsPrint(k.Code):
		r := k.Code
		if k.Mod.Contains(tea.ModShift) {
			r = shifted(k)
		}
		label = string(r)
		if ctrl {
			label = "C-" + label
		}
	default:
		label = "<" + tea.Key{Code: k.Code}.String() + ">"
		if ctrl {
			label = "C-" + label
		}
	}
	if alt {
		label = "M-" + label
	}
	return label
}
