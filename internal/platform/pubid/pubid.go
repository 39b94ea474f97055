// Package pubid generates the opaque public identifiers exposed through the API.
// An identifier is a type prefix, a dash and 12 characters of [0-9a-z].
package pubid

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 12
)

const (
	User    = "USR"
	Space   = "SPA"
	Project = "PROJ"
	Status  = "ST"
	Task    = "TASK"
	Note    = "NOTE"
	Scratch = "SCR"
	Capture = "CAP"
	Item    = "ITEM"
)

// New returns prefix + "-" + 12 random characters.
func New(prefix string) string {
	return prefix + "-" + gonanoid.MustGenerate(alphabet, size)
}

// ForItemKind maps an item kind to its id prefix.
func ForItemKind(kind string) string {
	switch kind {
	case "task":
		return Task
	case "note":
		return Note
	case "scratch":
		return Scratch
	case "capture":
		return Capture
	default:
		return Item
	}
}

// Valid reports whether id looks like an identifier with the given prefix.
func Valid(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	if !ok || len(rest) != size {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if strings.IndexByte(alphabet, rest[i]) < 0 {
			return false
		}
	}
	return true
}
