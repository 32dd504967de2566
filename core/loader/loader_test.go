package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	on := &stubFeature{name: "on", enabled: true}
	off := &stubFeature{name: "off", enabled: false}

	m := NewManager(nil)
	m.Register(on)
	m.Register(off)

	assert.NoError(t, m.LoadAll(fiber.New()))
	assert.True(t, on.loaded)
	assert.False(t, off.loaded)
	assert.Len(t, m.Features(), 2)
}

func TestManager_LoadAll_Error(t *testing.T) {
	m := NewManager(nil)
	m.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})

	err := m.LoadAll(fiber.New())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestManager_LoadAll_Duplicate(t *testing.T) {
	m := NewManager(nil)
	m.Register(&stubFeature{name: "same", enabled: true})
	m.Register(&stubFeature{name: "same", enabled: true})

	assert.Error(t, m.LoadAll(fiber.New()))
}
