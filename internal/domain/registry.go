package domain

import (
	"fmt"
	"strings"
)

// Registry is the immutable, ordered list of monitored targets.
type Registry struct {
	targets []Target
	index   map[TargetID]int
}

// NewRegistry validates ids and keeps the given order. Targets without an id
// get a derived, URL-path-safe slug such as "url-example-com".
func NewRegistry(targets []Target) (*Registry, error) {
	r := &Registry{
		targets: make([]Target, 0, len(targets)),
		index:   make(map[TargetID]int, len(targets)),
	}
	for _, t := range targets {
		if strings.TrimSpace(t.Address) == "" {
			return nil, fmt.Errorf("target %q: empty address", t.Name)
		}
		switch t.Kind {
		case KindHTTP, KindTCP, KindICMP:
		default:
			return nil, fmt.Errorf("target %q: unsupported kind %q", t.Name, t.Kind)
		}
		if t.ID == "" {
			t.ID = DeriveID(t.Kind, t.Address)
		}
		if strings.ContainsAny(string(t.ID), "/?# \t") {
			return nil, fmt.Errorf("target %q: id %q must not contain '/', '?', '#' or spaces", t.Name, t.ID)
		}
		if t.Name == "" {
			t.Name = t.Address
		}
		if _, dup := r.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, t.ID)
		}
		r.index[t.ID] = len(r.targets)
		r.targets = append(r.targets, t)
	}
	return r, nil
}

// DeriveID builds "<prefix>-<address slug>": the scheme is dropped and every
// run of characters outside [a-z0-9] becomes a single dash.
func DeriveID(k Kind, address string) TargetID {
	prefix := string(k)
	if k == KindHTTP {
		prefix = "url"
	}
	addr := strings.ToLower(strings.TrimSpace(address))
	if _, rest, ok := strings.Cut(addr, "://"); ok {
		addr = rest
	}
	var b strings.Builder
	b.WriteString(prefix)
	dash := true
	for _, c := range addr {
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			if dash {
				b.WriteByte('-')
				dash = false
			}
			b.WriteRune(c)
			continue
		}
		dash = true
	}
	return TargetID(b.String())
}

// Targets returns a copy in registry order.
func (r *Registry) Targets() []Target {
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

func (r *Registry) Get(id TargetID) (Target, bool) {
	i, ok := r.index[id]
	if !ok {
		return Target{}, false
	}
	return r.targets[i], true
}

// ByAddress finds the first target with the given address.
func (r *Registry) ByAddress(address string) (Target, bool) {
	for _, t := range r.targets {
		if t.Address == address {
			return t, true
		}
	}
	return Target{}, false
}

func (r *Registry) Len() int { return len(r.targets) }
