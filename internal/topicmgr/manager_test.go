package topicmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndList(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Register(DefineModule(Topic{Name: "arena.match.over", Description: "match ended"})))
	require.NoError(t, m.Register(DefineFramework(Topic{Name: "transport.viewer.connected", Description: "socket opened"})))

	got, err := m.Get("arena.match.over")
	require.NoError(t, err)
	assert.Equal(t, "arena", got.Module)
	assert.Equal(t, ScopeModule, got.Scope)

	names := []string{}
	for _, tp := range m.List() {
		names = append(names, tp.Name)
	}
	assert.Equal(t, []string{"arena.match.over", "transport.viewer.connected"}, names)
	assert.Len(t, m.ListByModule("arena"), 1)
	assert.Equal(t, 2, m.Count())
}

func TestRegisterRejects(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(DefineModule(Topic{Name: "arena.event.logged", Description: "x"})))

	tests := []struct {
		name  string
		topic Topic
		want  ErrorType
	}{
		{"duplicate", DefineModule(Topic{Name: "arena.event.logged", Description: "x"}), ErrorDuplicateRegistration},
		{"bad name", DefineModule(Topic{Name: "Arena Events", Description: "x"}), ErrorValidationFailed},
		{"single segment", DefineFramework(Topic{Name: "arena", Description: "x"}), ErrorValidationFailed},
		{"no description", DefineModule(Topic{Name: "arena.tick"}), ErrorValidationFailed},
		{"foreign prefix", DefineModule(Topic{Name: "chat.msg", Module: "arena", Description: "x"}), ErrorValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Register(tt.topic)
			var te *TopicError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.want, te.Type)
		})
	}

	_, err := m.Get("arena.nope")
	var te *TopicError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrorTopicNotFound, te.Type)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	m := NewManager()
	tp := DefineModule(Topic{Name: "arena.x", Description: "x"})
	m.MustRegister(tp)
	assert.Panics(t, func() { m.MustRegister(tp) })
}
