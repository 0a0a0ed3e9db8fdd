package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle of one preview instance. Transitions are
// init -> ready -> closed; a closed instance is never reused.
type State string

const (
	StateInit   State = "init"
	StateReady  State = "ready"
	StateClosed State = "closed"
)

var (
	ErrClosed     = errors.New("sandbox: instance is closed")
	ErrNoSession  = errors.New("sandbox: session id is required")
	ErrBootFailed = errors.New("sandbox: boot failed")
	ErrNotReady   = errors.New("sandbox: instance is not ready")
)

// Instance is one live preview container bound to a session. At most
// one instance exists per session; the registry enforces that.
type Instance struct {
	SessionID string
	CreatedAt time.Time

	mu    sync.Mutex
	state State
	url   string

	bootOnce sync.Once
	bootErr  error
}

func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// URL returns the preview endpoint once the instance is ready.
func (i *Instance) URL() (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch i.state {
	case StateReady:
		return i.url, nil
	case StateClosed:
		return "", ErrClosed
	default:
		return "", ErrNotReady
	}
}

func (i *Instance) markReady(url string) {
	i.mu.Lock()
	if i.state == StateInit {
		i.state = StateReady
		i.url = url
	}
	i.mu.Unlock()
}

func (i *Instance) close() {
	i.mu.Lock()
	i.state = StateClosed
	i.url = ""
	i.mu.Unlock()
}

// Booter provisions the underlying container. The real implementation
// lives client side; the gateway only tracks lifecycle and hands out
// preview URLs.
type Booter interface {
	Boot(sessionID string) (url string, err error)
}

// BooterFunc adapts a function to the Booter interface.
type BooterFunc func(sessionID string) (string, error)

func (f BooterFunc) Boot(sessionID string) (string, error) { return f(sessionID) }

// Registry hands out at most one instance per session, created on
// first need and reused until the session ends.
type Registry struct {
	booter Booter

	mu        sync.Mutex
	instances map[string]*Instance
}

func NewRegistry(booter Booter) *Registry {
	return &Registry{
		booter:    booter,
		instances: make(map[string]*Instance),
	}
}

// Acquire returns the session's instance, booting one on first call.
// Concurrent first calls observe a single boot; later calls reuse the
// ready instance.
func (r *Registry) Acquire(sessionID string) (*Instance, error) {
	if r == nil {
		return nil, fmt.Errorf("sandbox: registry is nil")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNoSession
	}

	r.mu.Lock()
	inst, ok := r.instances[sessionID]
	if !ok || inst.State() == StateClosed {
		inst = &Instance{
			SessionID: sessionID,
			CreatedAt: time.Now().UTC(),
			state:     StateInit,
		}
		r.instances[sessionID] = inst
	}
	r.mu.Unlock()

	inst.bootOnce.Do(func() {
		url := ""
		if r.booter != nil {
			url, inst.bootErr = r.booter.Boot(sessionID)
		}
		if inst.bootErr != nil {
			inst.close()
			return
		}
		inst.markReady(url)
	})
	if inst.bootErr != nil {
		r.mu.Lock()
		if r.instances[sessionID] == inst {
			delete(r.instances, sessionID)
		}
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrBootFailed, inst.bootErr)
	}
	return inst, nil
}

// Lookup returns the session's instance without booting one.
func (r *Registry) Lookup(sessionID string) (*Instance, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[strings.TrimSpace(sessionID)]
	return inst, ok
}

// Release tears down the session's instance. Releasing a session with
// no instance is a no-op.
func (r *Registry) Release(sessionID string) {
	if r == nil {
		return
	}
	sessionID = strings.TrimSpace(sessionID)
	r.mu.Lock()
	inst, ok := r.instances[sessionID]
	if ok {
		delete(r.instances, sessionID)
	}
	r.mu.Unlock()
	if ok {
		inst.close()
	}
}

// Len reports the number of live instances.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}
