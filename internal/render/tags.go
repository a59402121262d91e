package render

import "strings"

// tagTable is the process-wide, immutable-after-init capture->compact-tag
// mapping (§3 "Tag mapping table"). Lookup is longest-dotted-prefix:
// "keyword.control.import" falls back through "keyword.control" to
// "keyword" before giving up.
var tagTable = map[string]string{
	"keyword":             "k",
	"keyword.control":     "k",
	"keyword.operator":    "k",
	"function":            "f",
	"function.method":     "f",
	"function.macro":      "f",
	"function.builtin":    "f",
	"string":              "s",
	"string.special":      "s",
	"string.escape":       "se",
	"comment":             "c",
	"constant":            "n",
	"constant.builtin":    "n",
	"number":              "n",
	"type":                "t",
	"type.builtin":        "t",
	"variable":            "v",
	"variable.parameter":  "v",
	"variable.builtin":    "v",
	"property":            "pr",
	"operator":            "o",
	"punctuation":         "p",
	"punctuation.bracket":  "p",
	"punctuation.delimiter": "p",
	"tag":                 "tg",
	"tag.error":           "tg",
	"attribute":           "at",
	"namespace":           "ns",
}

// CompactTag returns the short tag for capture using longest-dotted-prefix
// matching, and reports whether any mapping (exact or ancestor) matched.
// An unmapped capture renders as plain, unwrapped text (§4.4).
func CompactTag(capture string) (string, bool) {
	key := capture
	for {
		if tag, ok := tagTable[key]; ok {
			return tag, true
		}
		idx := strings.LastIndexByte(key, '.')
		if idx < 0 {
			return "", false
		}
		key = key[:idx]
	}
}
