// Package memory is an in-process remote file space. It is used by tests and
// by the "memory" remote provider for local experiments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/remote"
)

type file struct {
	remote.File
	content []byte
	trashed bool
}

// Remote holds files shared by every credential it accepts.
type Remote struct {
	mu       sync.Mutex
	files    []*file
	accepted map[core.Credential]bool
	revoked  map[core.Credential]bool
	err      error
	seq      int
	now      func() time.Time
	writes   int
}

var _ remote.Connector = (*Remote)(nil)

// New returns a remote that accepts the given credentials. With no
// credentials every non-empty credential is accepted.
func New(accepted ...core.Credential) *Remote {
	r := &Remote{
		accepted: make(map[core.Credential]bool),
		revoked:  make(map[core.Credential]bool),
		now:      time.Now,
	}
	for _, c := range accepted {
		r.accepted[c] = true
	}
	return r
}

func (r *Remote) Connect(ctx context.Context, cred core.Credential) (remote.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNetwork, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if cred == "" || r.revoked[cred] || (len(r.accepted) > 0 && !r.accepted[cred]) {
		return nil, fmt.Errorf("%w: credential rejected", core.ErrAuth)
	}
	return &session{r: r}, nil
}

// Fail makes every subsequent call return err until Fail(nil).
func (r *Remote) Fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Revoke stops accepting cred.
func (r *Remote) Revoke(cred core.Credential) {
	r.mu.Lock()
	r.revoked[cred] = true
	r.mu.Unlock()
}

// Trash marks a file deleted so Find no longer sees it.
func (r *Remote) Trash(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ID == id {
			f.trashed = true
		}
	}
}

// Put creates a file directly, bypassing authorization.
func (r *Remote) Put(name string, content []byte) remote.File {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(name, content)
}

// Content returns the current bytes of the first live file named name.
func (r *Remote) Content(name string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f := r.find(name); f != nil {
		return append([]byte(nil), f.content...), true
	}
	return nil, false
}

// Writes counts successful Create and Update calls.
func (r *Remote) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *Remote) create(name string, content []byte) remote.File {
	r.seq++
	f := &file{
		File:    remote.File{ID: fmt.Sprintf("mem-%d", r.seq), Name: name, Modified: r.now()},
		content: append([]byte(nil), content...),
	}
	r.files = append(r.files, f)
	return f.File
}

func (r *Remote) find(name string) *file {
	for _, f := range r.files {
		if !f.trashed && f.Name == name {
			return f
		}
	}
	return nil
}

func (r *Remote) byID(id string) *file {
	for _, f := range r.files {
		if f.ID == id && !f.trashed {
			return f
		}
	}
	return nil
}

// session is a Store bound to an accepted credential.
type session struct {
	r *Remote
}

func (s *session) Find(ctx context.Context, name string) (remote.File, bool, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.err != nil {
		return remote.File{}, false, s.r.err
	}
	if f := s.r.find(name); f != nil {
		return f.File, true, nil
	}
	return remote.File{}, false, nil
}

func (s *session) Create(ctx context.Context, name string, content []byte) (remote.File, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.err != nil {
		return remote.File{}, s.r.err
	}
	s.r.writes++
	return s.r.create(name, content), nil
}

func (s *session) Update(ctx context.Context, id string, content []byte) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.err != nil {
		return s.r.err
	}
	f := s.r.byID(id)
	if f == nil {
		return fmt.Errorf("%w: file %s", core.ErrNotFound, id)
	}
	f.content = append([]byte(nil), content...)
	f.Modified = s.r.now()
	s.r.writes++
	return nil
}

func (s *session) Read(ctx context.Context, id string) ([]byte, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.err != nil {
		return nil, s.r.err
	}
	f := s.r.byID(id)
	if f == nil {
		return nil, fmt.Errorf("%w: file %s", core.ErrNotFound, id)
	}
	return append([]byte(nil), f.content...), nil
}
