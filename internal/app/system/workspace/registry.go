// internal/app/system/workspace/registry.go
package workspace

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type key struct {
	user  primitive.ObjectID
	scope Scope
}

// Registry owns one Workspace per (user, scope).
type Registry struct {
	deps Deps
	now  func() time.Time

	mu    sync.Mutex
	items map[key]*Workspace
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, now: time.Now, items: map[key]*Workspace{}}
}

// Get returns the user's workspace for scope, creating it on first use.
func (r *Registry) Get(userID primitive.ObjectID, scope Scope) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID, scope}
	w, ok := r.items[k]
	if !ok {
		w = New(scope, userID, r.deps)
		r.items[k] = w
	}
	w.touch(r.now())
	return w
}

// Drop discards one workspace, e.g. when the user navigates away.
func (r *Registry) Drop(userID primitive.ObjectID, scope Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key{userID, scope})
}

// DropUser clears the user on each of their workspaces and forgets them.
// Called on sign-out so a held reference can no longer save.
func (r *Registry) DropUser(userID primitive.ObjectID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, w := range r.items {
		if k.user == userID {
			w.ClearUser()
			delete(r.items, k)
			n++
		}
	}
	return n
}

// ForgetProgram clears programID from the user's workspaces where it is
// active. Other users' workspaces are left alone.
func (r *Registry) ForgetProgram(userID, programID primitive.ObjectID) {
	r.mu.Lock()
	var mine []*Workspace
	for k, w := range r.items {
		if k.user == userID {
			mine = append(mine, w)
		}
	}
	r.mu.Unlock()

	for _, w := range mine {
		w.forgetProgram(programID)
	}
}

// Evict removes workspaces unused for longer than idle. Running workspaces
// are kept. Returns the number removed.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, w := range r.items {
		last, running := w.idleSince()
		if !running && last.Before(cutoff) {
			delete(r.items, k)
			n++
		}
	}
	return n
}

// Len reports how many workspaces are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
