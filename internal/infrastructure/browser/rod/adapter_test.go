package rod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Headless)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.NoSandbox)
}
