// internal/domain/identity/directory.go
package identity

import (
	"sort"
	"strings"
)

// Person is a directory member: the short code used in the sheet and the
// chat identifier messages are delivered to.
type Person struct {
	Initials    string
	RecipientID string
}

// Resolution is the outcome of looking a sheet code up in the directory.
type Resolution int

const (
	Known Resolution = iota
	Empty
	Ignored
	Unknown
)

// Directory maps identity codes to recipients. It is built once at startup
// and only read afterwards.
type Directory struct {
	members       map[string]string
	broadcastOnly map[string]string
	ignored       map[string]struct{}
}

// NewDirectory builds a directory. Codes are matched case-insensitively.
// broadcastOnly members receive broadcast reminders but are never addressed
// by sheet rules.
func NewDirectory(members, broadcastOnly map[string]string, ignored []string) *Directory {
	d := &Directory{
		members:       normalise(members),
		broadcastOnly: normalise(broadcastOnly),
		ignored:       make(map[string]struct{}, len(ignored)),
	}
	for _, code := range ignored {
		code = normaliseCode(code)
		if code != "" {
			d.ignored[code] = struct{}{}
		}
	}
	return d
}

func normaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalise(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for code, id := range in {
		code, id = normaliseCode(code), strings.TrimSpace(id)
		if code == "" || id == "" {
			continue
		}
		out[code] = id
	}
	return out
}

// Resolve looks a code up. Ignored codes report Ignored even when they are
// also members.
func (d *Directory) Resolve(code string) (Person, Resolution) {
	code = normaliseCode(code)
	if code == "" {
		return Person{}, Empty
	}
	if _, ok := d.ignored[code]; ok {
		return Person{}, Ignored
	}
	id, ok := d.members[code]
	if !ok {
		return Person{}, Unknown
	}
	return Person{Initials: code, RecipientID: id}, Known
}

// Lookup returns the member for code when it is known and not ignored.
func (d *Directory) Lookup(code string) (Person, bool) {
	p, res := d.Resolve(code)
	return p, res == Known
}

func (d *Directory) IsIgnored(code string) bool {
	_, ok := d.ignored[normaliseCode(code)]
	return ok
}

func (d *Directory) Len() int { return len(d.members) }

// BroadcastRecipients lists every non-ignored member plus the broadcast-only
// members, ordered by initials.
func (d *Directory) BroadcastRecipients() []Person {
	seen := make(map[string]struct{})
	var out []Person
	add := func(src map[string]string) {
		for code, id := range src {
			if _, skip := d.ignored[code]; skip {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, Person{Initials: code, RecipientID: id})
		}
	}
	add(d.members)
	add(d.broadcastOnly)
	sort.Slice(out, func(i, j int) bool { return out[i].Initials < out[j].Initials })
	return out
}
