package keys

import (
	"io"
	"sync"
)

// Provider guards one-time generation. Every caller of Get observes the same
// Manager, or the same error: a failed generation is never retried.
type Provider struct {
	once   sync.Once
	mode   Mode
	random io.Reader

	manager *Manager
	err     error
}

// NewProvider prepares a Provider; no keys are generated until Get.
func NewProvider(mode Mode, random io.Reader) *Provider {
	return &Provider{mode: mode, random: random}
}

// Get generates the key material on first call and returns it on every call.
func (p *Provider) Get() (*Manager, error) {
	p.once.Do(func() {
		p.manager, p.err = Generate(p.mode, p.random)
	})
	return p.manager, p.err
}
