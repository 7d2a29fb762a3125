package config

import "strings"

// Tree is a Simple store where a non-empty, "/"-prefixed section name
// denotes a path: a Get that misses in the named section keeps
// stripping the last "/"-separated component and retrying, finally
// falling back to the root ("") section. This lets deeper paths
// transparently inherit parameters from their ancestors.
//
// The root/global space is denoted by "" (not "/"): a literal "/"
// section is never searched.
type Tree struct {
	*Simple
}

// NewTree builds an empty, memory-only hierarchical store.
func NewTree(flags Flag) *Tree {
	return &Tree{Simple: New(flags | FlagTildeExpand)}
}

// OpenTree parses the named file as a Tree.
func OpenTree(filename string, flags Flag) *Tree {
	return &Tree{Simple: Open(filename, flags|FlagTildeExpand)}
}

// NewTreeFromString parses data in memory as a Tree.
func NewTreeFromString(data string, flags Flag) *Tree {
	return &Tree{Simple: NewFromString(data, flags|FlagTildeExpand)}
}

func (t *Tree) Get(name, sk string) (string, bool) {
	if sk == "" || !strings.HasPrefix(sk, "/") {
		return t.Simple.Get(name, sk)
	}
	msk := sk
	if !strings.HasSuffix(msk, "/") {
		// no-op: path_catslash only appends when the config's own file
		// path needs it; our keys are already slash-terminated paths
		// or not, and looking up as-is then truncating matches intent.
	}
	for {
		if v, ok := t.Simple.Get(name, msk); ok {
			return v, true
		}
		idx := strings.LastIndex(msk, "/")
		if idx < 0 {
			break
		}
		msk = msk[:idx]
	}
	return "", false
}

func (t *Tree) GetInt(name string, dflt int64, sk string) int64 {
	if v, ok := t.Get(name, sk); ok {
		return parseIntOrDflt(v, dflt)
	}
	return dflt
}

func (t *Tree) GetFloat(name string, dflt float64, sk string) float64 {
	if v, ok := t.Get(name, sk); ok {
		return parseFloatOrDflt(v, dflt)
	}
	return dflt
}

func (t *Tree) GetBool(name string, dflt bool, sk string) bool {
	if v, ok := t.Get(name, sk); ok {
		return stringToBool(v)
	}
	return dflt
}
