// Package banlist loads and watches a Vanilla-format banned-ips.json
// file, reloading it whenever its mtime changes (spec §3/§4.2). It is an
// auxiliary filesystem collaborator, not part of the core proxy fabric.
package banlist

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"
)

// Entry is one ban record.
type Entry struct {
	Reason    string
	ExpiresAt time.Time // zero value means never expires
}

// rawEntry is the shape banned-ips.json actually uses.
type rawEntry struct {
	IP      string `json:"ip"`
	Reason  string `json:"reason"`
	Expires string `json:"expires"` // "forever" or RFC3339-ish timestamp
}

// List is a reloadable, lookup-by-IP ban list. Lookups are O(log n) via
// a sorted slice with binary search, matching spec §3's complexity note.
type List struct {
	mu      sync.RWMutex
	ips     []string // sorted
	entries map[string]Entry
	path    string
	modTime time.Time
}

// New returns an empty, unloaded ban list for path. Call Reload (or
// Watch) to populate it.
func New(path string) *List {
	return &List{path: path, entries: make(map[string]Entry)}
}

// Lookup returns the ban entry for ip, if any.
func (l *List) Lookup(ip string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := sort.SearchStrings(l.ips, ip)
	if i < len(l.ips) && l.ips[i] == ip {
		e := l.entries[ip]
		if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
			return Entry{}, false
		}
		return e, true
	}
	return Entry{}, false
}

// Reload re-reads the ban file if its mtime changed since the last
// load, returning whether a reload actually happened. Filesystem errors
// are non-fatal per spec §7's Filesystem error kind: the list keeps
// serving its last known good state.
func (l *List) Reload() (reloaded bool, err error) {
	if l.path == "" {
		return false, nil
	}
	info, statErr := os.Stat(l.path)
	if statErr != nil {
		return false, statErr
	}
	l.mu.RLock()
	same := info.ModTime().Equal(l.modTime)
	l.mu.RUnlock()
	if same {
		return false, nil
	}

	data, readErr := os.ReadFile(l.path)
	if readErr != nil {
		return false, readErr
	}
	var raw []rawEntry
	if jsonErr := json.Unmarshal(data, &raw); jsonErr != nil {
		return false, jsonErr
	}

	entries := make(map[string]Entry, len(raw))
	ips := make([]string, 0, len(raw))
	for _, r := range raw {
		var expires time.Time
		if r.Expires != "" && r.Expires != "forever" {
			if t, parseErr := time.Parse(time.RFC3339, r.Expires); parseErr == nil {
				expires = t
			}
		}
		entries[r.IP] = Entry{Reason: r.Reason, ExpiresAt: expires}
		ips = append(ips, r.IP)
	}
	sort.Strings(ips)

	l.mu.Lock()
	l.entries = entries
	l.ips = ips
	l.modTime = info.ModTime()
	l.mu.Unlock()
	return true, nil
}

// Watch polls the ban file's mtime every interval until ctx-like done
// is closed, reloading on change. Errors are swallowed (logged by the
// caller via onError) since filesystem failures here are non-fatal.
func (l *List) Watch(done <-chan struct{}, interval time.Duration, onReload func(), onError func(error)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			reloaded, err := l.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if reloaded && onReload != nil {
				onReload()
			}
		}
	}
}
