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
	off := &stubFeature{name: "off"}

	mgr := NewManager()
	mgr.Register(on)
	mgr.Register(off)

	loaded, err := mgr.LoadAll(fiber.New())
	assert.NoError(t, err)
	assert.Equal(t, []string{"on"}, loaded)
	assert.True(t, on.loaded)
	assert.False(t, off.loaded)
}

func TestManager_LoadAllError(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&stubFeature{name: "broken", enabled: true, err: errors.New("boom")})

	_, err := mgr.LoadAll(fiber.New())
	assert.ErrorContains(t, err, "load feature broken")
}
