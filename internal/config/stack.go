package config

import "sort"

// Stack is a read-through fallback sequence of configuration layers:
// reads try each layer top to bottom and return the first hit; writes
// always go to the top layer. Before writing, Set consults the layers
// below — if the new value already equals what a lower layer would
// return, the key is erased (not written) from the top layer instead,
// avoiding a redundant override. This is the mechanism that lets a
// user-level config file only record the settings that actually
// differ from the system default.
type Stack struct {
	layers []*Tree
	ok     bool
}

// NewStack opens each filename in order (first has priority on read).
// All but the first are opened read-only; all but the last may be
// missing. Only the first file is ever written to.
func NewStack(flags Flag, filenames []string) *Stack {
	st := &Stack{ok: true}
	roFlags := flags | FlagReadOnly
	for i, fn := range filenames {
		f := flags
		if i > 0 {
			f = roFlags
		}
		t := OpenTree(fn, f)
		if t.OK() {
			st.layers = append(st.layers, t)
			continue
		}
		// A missing file is tolerated everywhere except the bottom of
		// the stack, where it indicates a hard misconfiguration.
		if i == len(filenames)-1 {
			st.ok = false
			return st
		}
	}
	return st
}

func (st *Stack) OK() bool { return st.ok }

func (st *Stack) Get(name, sk string) (string, bool) {
	for _, l := range st.layers {
		if v, ok := l.Get(name, sk); ok {
			return v, true
		}
	}
	return "", false
}

func (st *Stack) GetInt(name string, dflt int64, sk string) int64 {
	if v, ok := st.Get(name, sk); ok {
		return parseIntOrDflt(v, dflt)
	}
	return dflt
}

func (st *Stack) GetFloat(name string, dflt float64, sk string) float64 {
	if v, ok := st.Get(name, sk); ok {
		return parseFloatOrDflt(v, dflt)
	}
	return dflt
}

func (st *Stack) GetBool(name string, dflt bool, sk string) bool {
	if v, ok := st.Get(name, sk); ok {
		return stringToBool(v)
	}
	return dflt
}

func (st *Stack) HasNameAnywhere(name string) bool {
	for _, l := range st.layers {
		if l.HasNameAnywhere(name) {
			return true
		}
	}
	return false
}

// Set writes to the top layer, unless a lower layer already returns
// the same value for (name, sk), in which case the key is removed from
// the top layer so the inherited value takes over.
func (st *Stack) Set(name, value, sk string) bool {
	if !st.ok || len(st.layers) == 0 {
		return false
	}
	for _, l := range st.layers[1:] {
		if v, ok := l.Get(name, sk); ok {
			if v == value {
				st.layers[0].Erase(name, sk)
				return true
			}
			break
		}
	}
	return st.layers[0].Set(name, value, sk)
}

func (st *Stack) Erase(name, sk string) bool {
	if len(st.layers) == 0 {
		return false
	}
	return st.layers[0].Erase(name, sk)
}

func (st *Stack) EraseKey(sk string) bool {
	if len(st.layers) == 0 {
		return false
	}
	return st.layers[0].EraseKey(sk)
}

func (st *Stack) HoldWrites(on bool) bool {
	if len(st.layers) == 0 {
		return false
	}
	return st.layers[0].HoldWrites(on)
}

func (st *Stack) SourceChanged() bool {
	for _, l := range st.layers {
		if l.SourceChanged() {
			return true
		}
	}
	return false
}

func (st *Stack) GetNames(sk, glob string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range st.layers {
		if !l.HasSubKey(sk) {
			continue
		}
		for _, nm := range l.GetNames(sk, glob) {
			if _, dup := seen[nm]; dup {
				continue
			}
			seen[nm] = struct{}{}
			out = append(out, nm)
		}
	}
	sort.Strings(out)
	return out
}

func (st *Stack) GetSubKeys() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range st.layers {
		for _, sk := range l.GetSubKeys() {
			if _, dup := seen[sk]; dup {
				continue
			}
			seen[sk] = struct{}{}
			out = append(out, sk)
		}
	}
	sort.Strings(out)
	return out
}

func (st *Stack) HasSubKey(sk string) bool {
	for _, l := range st.layers {
		if l.HasSubKey(sk) {
			return true
		}
	}
	return false
}
