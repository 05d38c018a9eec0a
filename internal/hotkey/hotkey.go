// Package hotkey parses hotkey expressions like "Control + Shift + C" and
// captures the matching OS-global key events.
package hotkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// None is the literal that disables a binding in configuration.
const None = "None"

// Modifiers is a bitmask of modifier keys.
type Modifiers uint8

const (
	ModAlt Modifiers = 1 << iota
	ModControl
	ModShift
	ModSuper
)

// Has reports whether every modifier in mod is set.
func (m Modifiers) Has(mod Modifiers) bool { return m&mod == mod }

func (m Modifiers) String() string {
	var parts []string
	if m.Has(ModControl) {
		parts = append(parts, "Control")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModSuper) {
		parts = append(parts, "Super")
	}
	return strings.Join(parts, " + ")
}

// Key is a canonical key name: a single printable character ("c", "7", ","),
// an "f" key ("f5"), or a named key ("space", "pageup").
type Key string

// Binding is one parsed hotkey: a modifier set plus a key.
type Binding struct {
	Mods Modifiers
	Key  Key
}

// String renders the binding in the canonical configuration form, e.g.
// "Control + Shift + C".
func (b Binding) String() string {
	mods := b.Mods.String()
	if mods == "" {
		return displayKey(b.Key)
	}
	return mods + " + " + displayKey(b.Key)
}

// ErrEmpty reports an empty hotkey expression.
var ErrEmpty = errors.New("empty hotkey expression")

// ErrNoneModifiers reports modifiers attached to the None literal.
var ErrNoneModifiers = errors.New("the None literal takes no modifiers")

// UnknownModifierError reports an unrecognized modifier token.
type UnknownModifierError struct {
	Token string
}

func (e *UnknownModifierError) Error() string {
	return fmt.Sprintf("unknown modifier %q", e.Token)
}

// UnknownKeyError reports an unrecognized key token, or a modifier name
// used where the key belongs.
type UnknownKeyError struct {
	Token      string
	IsModifier bool
}

func (e *UnknownKeyError) Error() string {
	if e.IsModifier {
		return fmt.Sprintf("modifier %q cannot be used as the key", e.Token)
	}
	return fmt.Sprintf("unknown key %q", e.Token)
}

// modTokens maps accepted modifier spellings to their bit.
var modTokens = map[string]Modifiers{
	"alt":     ModAlt,
	"control": ModControl,
	"ctrl":    ModControl,
	"cntrl":   ModControl,
	"shift":   ModShift,
	"win":     ModSuper,
	"windows": ModSuper,
	"super":   ModSuper,
	"cmd":     ModSuper,
}

// keyTokens maps word-form key spellings to their canonical Key. Single
// letters, digits, punctuation characters, and f1–f24 are recognized
// without an entry.
var keyTokens = map[string]Key{
	"space":       "space",
	"tab":         "tab",
	"enter":       "enter",
	"return":      "enter",
	"escape":      "escape",
	"esc":         "escape",
	"backspace":   "backspace",
	"delete":      "delete",
	"del":         "delete",
	"insert":      "insert",
	"home":        "home",
	"end":         "end",
	"pageup":      "pageup",
	"pgup":        "pageup",
	"pagedown":    "pagedown",
	"pgdn":        "pagedown",
	"up":          "up",
	"down":        "down",
	"left":        "left",
	"right":       "right",
	"capslock":    "capslock",
	"numlock":     "numlock",
	"scrolllock":  "scrolllock",
	"printscreen": "printscreen",
	"pause":       "pause",
	"comma":       ",",
	"period":      ".",
	"slash":       "/",
	"backslash":   "\\",
	"semicolon":   ";",
	"quote":       "'",
	"backquote":   "`",
	"grave":       "`",
	"minus":       "-",
	"equals":      "=",
	"equal":       "=",
}

// displayNames overrides the rendering of named keys whose canonical form
// does not read well capitalized as one word.
var displayNames = map[Key]string{
	"pageup":      "PageUp",
	"pagedown":    "PageDown",
	"capslock":    "CapsLock",
	"numlock":     "NumLock",
	"scrolllock":  "ScrollLock",
	"printscreen": "PrintScreen",
}

// Parse converts a hotkey expression to a Binding: zero or more modifier
// names joined by "+", then a key name. The None literal yields a nil
// Binding with no error, meaning the hotkey is disabled.
func Parse(expr string) (*Binding, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmpty
	}
	if strings.EqualFold(expr, None) {
		return nil, nil
	}

	tokens := strings.Split(expr, "+")
	for i, t := range tokens {
		tokens[i] = strings.TrimSpace(t)
	}

	var mods Modifiers
	for _, t := range tokens[:len(tokens)-1] {
		mod, ok := modTokens[strings.ToLower(t)]
		if !ok {
			return nil, &UnknownModifierError{Token: t}
		}
		mods |= mod
	}

	keyTok := tokens[len(tokens)-1]
	if strings.EqualFold(keyTok, None) {
		return nil, ErrNoneModifiers
	}
	key, err := parseKey(keyTok)
	if err != nil {
		return nil, err
	}
	return &Binding{Mods: mods, Key: key}, nil
}

func parseKey(tok string) (Key, error) {
	norm := strings.ReplaceAll(strings.ToLower(tok), " ", "")
	if norm == "" {
		return "", &UnknownKeyError{Token: tok}
	}
	if len(norm) == 1 {
		c := norm[0]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || strings.ContainsRune(",./;'`-=[]\\", rune(c)) {
			return Key(norm), nil
		}
		return "", &UnknownKeyError{Token: tok}
	}
	if rest, ok := strings.CutPrefix(norm, "f"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 24 {
			return Key(norm), nil
		}
	}
	if key, ok := keyTokens[norm]; ok {
		return key, nil
	}
	if _, ok := modTokens[norm]; ok {
		return "", &UnknownKeyError{Token: tok, IsModifier: true}
	}
	return "", &UnknownKeyError{Token: tok}
}

func displayKey(k Key) string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	s := string(k)
	if len(s) == 1 {
		return strings.ToUpper(s)
	}
	if rest, ok := strings.CutPrefix(s, "f"); ok {
		if _, err := strconv.Atoi(rest); err == nil {
			return "F" + rest
		}
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
