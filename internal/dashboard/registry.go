package dashboard

import (
	"sync"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/facility"
	"github.com/Sternrassler/onepa-availability/pkg/onepa"
)

// Registry holds one Checker per facility so each outlet directory is
// resolved at most once until the next Reset.
type Registry struct {
	client *client.Client

	mu       sync.Mutex
	checkers map[facility.Facility]*onepa.Checker
}

// NewRegistry creates an empty registry backed by c.
func NewRegistry(c *client.Client) *Registry {
	return &Registry{
		client:   c,
		checkers: make(map[facility.Facility]*onepa.Checker),
	}
}

// Checker returns the Checker for f, creating it on first use.
func (r *Registry) Checker(f facility.Facility) (*onepa.Checker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.checkers[f]; ok {
		return c, nil
	}
	c, err := onepa.New(r.client, f)
	if err != nil {
		return nil, err
	}
	r.checkers[f] = c
	return c, nil
}

// Reset drops every Checker and returns how many were held. Fetches already
// running on a dropped Checker finish normally.
func (r *Registry) Reset() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.checkers)
	r.checkers = make(map[facility.Facility]*onepa.Checker)
	return n
}

// Len returns the number of Checkers held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.checkers)
}
