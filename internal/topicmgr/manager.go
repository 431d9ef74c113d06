package topicmgr

import (
	"fmt"
	"sort"
	"sync"
)

// Manager is a concurrency-safe topic catalog.
type Manager struct {
	mu     sync.RWMutex
	topics map[string]Topic
}

// NewManager returns an empty catalog.
func NewManager() *Manager {
	return &Manager{topics: make(map[string]Topic)}
}

// DefineModule builds a module-scoped topic. The module is the first segment
// of the name when not given.
func DefineModule(t Topic) Topic {
	t.Scope = ScopeModule
	if t.Module == "" {
		if i := indexDot(t.Name); i > 0 {
			t.Module = t.Name[:i]
		}
	}
	return t
}

// DefineFramework builds a framework-scoped topic.
func DefineFramework(t Topic) Topic {
	t.Scope = ScopeFramework
	t.Module = ""
	return t
}

// Register validates and adds a topic. Names are unique.
func (m *Manager) Register(t Topic) error {
	if err := validate(t); err != nil {
		return &TopicError{Type: ErrorValidationFailed, Topic: t.Name, Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.topics[t.Name]; ok {
		return &TopicError{Type: ErrorDuplicateRegistration, Topic: t.Name}
	}
	m.topics[t.Name] = t
	return nil
}

// MustRegister is Register for package-level topic definitions.
func (m *Manager) MustRegister(t Topic) {
	if err := m.Register(t); err != nil {
		panic(fmt.Sprintf("register topic: %v", err))
	}
}

// Get looks a topic up by name.
func (m *Manager) Get(name string) (Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[name]
	if !ok {
		return Topic{}, &TopicError{Type: ErrorTopicNotFound, Topic: name}
	}
	return t, nil
}

// List returns every topic sorted by name.
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Topic, 0, len(m.topics))
	for _, t := range m.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListByModule filters List by owning module.
func (m *Manager) ListByModule(module string) []Topic {
	var out []Topic
	for _, t := range m.List() {
		if t.Module == module {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics)
}

func indexDot(s string) int {
	for i := range len(s) {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide catalog that typed events register into.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
