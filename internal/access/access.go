// Package access decides who may use the administrative surface.
package access

import "strings"

// Allowlist is a case-insensitive set of telegram handles.
type Allowlist struct {
	handles map[string]bool
}

func NewAllowlist(handles []string) Allowlist {
	m := map[string]bool{}
	for _, h := range handles {
		h = normalize(h)
		if h == "" {
			continue
		}
		m[h] = true
	}
	return Allowlist{handles: m}
}

// IsPrivileged reports whether username is on the list. Users without a
// username are never privileged.
func (a Allowlist) IsPrivileged(username string) bool {
	u := normalize(username)
	if u == "" {
		return false
	}
	return a.handles[u]
}

func (a Allowlist) Len() int { return len(a.handles) }

func normalize(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
