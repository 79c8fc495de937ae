package reconcile

import "strings"

// Rename maps a torrent-internal path to a local path, both relative to the
// save path and '/' separated. A From ending in '/' is a folder boundary.
type Rename struct {
	From string
	To   string
}

func (r Rename) IsFolder() bool {
	return strings.HasSuffix(r.From, "/")
}

// Apply rewrites p if it falls under this rename.
func (r Rename) Apply(p string) (string, bool) {
	if r.IsFolder() {
		if strings.HasPrefix(p, r.From) {
			return r.To + p[len(r.From):], true
		}
		return p, false
	}
	if p == r.From {
		return r.To, true
	}
	return p, false
}

// RenameMap keeps renames in the order they were inferred. Later entries are
// expressed in terms of paths already rewritten by earlier ones, which is also
// the order a client sees them in when they are issued one after another.
type RenameMap []Rename

func (m RenameMap) Has(from string) bool {
	for _, r := range m {
		if r.From == from {
			return true
		}
	}
	return false
}

// Add records a rename unless one with the same From already exists.
func (m *RenameMap) Add(from, to string) bool {
	if from == to || m.Has(from) {
		return false
	}
	*m = append(*m, Rename{From: from, To: to})
	return true
}

// Apply runs p through every rename in order.
func (m RenameMap) Apply(p string) string {
	for _, r := range m {
		p, _ = r.Apply(p)
	}
	return p
}
