package rfb

import "unicode/utf8"

// KeysymKind discriminates the tagged Keysym variants of spec.md §3.
type KeysymKind int

const (
	KeysymUnknown KeysymKind = iota
	KeysymUtf32
	KeysymBackspace
	KeysymTab
	KeysymReturnOrEnter
	KeysymEscape
	KeysymInsert
	KeysymDelete
	KeysymHome
	KeysymEnd
	KeysymPageUp
	KeysymPageDown
	KeysymLeft
	KeysymUp
	KeysymRight
	KeysymDown
	KeysymFunctionKey
	KeysymShiftLeft
	KeysymShiftRight
	KeysymControlLeft
	KeysymControlRight
	KeysymMetaLeft
	KeysymMetaRight
	KeysymAltLeft
	KeysymAltRight
)

// Keysym is the decoded form of an X11-style keysym (§3/§4.A). Exactly
// one of Rune, Value, or FunctionKeyN is meaningful, depending on Kind:
// KeysymUtf32 uses Rune, KeysymUnknown uses Value, KeysymFunctionKey uses
// FunctionKeyN (1..=12). All other kinds carry no payload.
type Keysym struct {
	Kind         KeysymKind
	Rune         rune
	Value        uint32
	FunctionKeyN uint8
}

const (
	xkF1  = 0xffbe
	xkF12 = 0xffc9
)

var namedKeysyms = map[uint32]KeysymKind{
	0xff08: KeysymBackspace,
	0xff09: KeysymTab,
	0xff0d: KeysymReturnOrEnter,
	0xff1b: KeysymEscape,
	0xff63: KeysymInsert,
	0xffff: KeysymDelete,
	0xff50: KeysymHome,
	0xff57: KeysymEnd,
	0xff55: KeysymPageUp,
	0xff56: KeysymPageDown,
	0xff51: KeysymLeft,
	0xff52: KeysymUp,
	0xff53: KeysymRight,
	0xff54: KeysymDown,
	0xffe1: KeysymShiftLeft,
	0xffe2: KeysymShiftRight,
	0xffe3: KeysymControlLeft,
	0xffe4: KeysymControlRight,
	0xffe7: KeysymMetaLeft,
	0xffe8: KeysymMetaRight,
	0xffe9: KeysymAltLeft,
	0xffea: KeysymAltRight,
}

// DecodeKeysym is total over u32: every value decodes to some Keysym,
// never an error. Named keys map to their dedicated variant, 0xffbe
// through 0xffc9 map to FunctionKey(1..12), any other value that forms a
// valid rune becomes KeysymUtf32, and everything else becomes
// KeysymUnknown so it round-trips as the original u32.
func DecodeKeysym(v uint32) Keysym {
	if kind, ok := namedKeysyms[v]; ok {
		return Keysym{Kind: kind}
	}
	if v >= xkF1 && v <= xkF12 {
		return Keysym{Kind: KeysymFunctionKey, FunctionKeyN: uint8(v-xkF1) + 1}
	}
	if v <= utf8.MaxRune && utf8.ValidRune(rune(v)) {
		return Keysym{Kind: KeysymUtf32, Rune: rune(v)}
	}
	return Keysym{Kind: KeysymUnknown, Value: v}
}
