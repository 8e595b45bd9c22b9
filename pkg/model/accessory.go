package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Accessory errors.
var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrDuplicateService = errors.New("duplicate service name")
	ErrInvalidPath      = errors.New("invalid characteristic path")
)

// Info is the accessory information exposed to clients.
type Info struct {
	Name         string
	Manufacturer string
	SerialNumber string
	Model        string
	Firmware     string
}

// Accessory is the top-level container of the state store.
type Accessory struct {
	mu sync.RWMutex

	info Info

	order  []*Service
	byName map[string]*Service
}

// NewAccessory creates an accessory with no services.
func NewAccessory(info Info) *Accessory {
	return &Accessory{
		info:   info,
		byName: make(map[string]*Service),
	}
}

// Info returns the accessory information.
func (a *Accessory) Info() Info {
	return a.info
}

// AddService attaches a service.
func (a *Accessory) AddService(s *Service) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byName[s.Name()]; exists {
		return ErrDuplicateService
	}
	a.byName[s.Name()] = s
	a.order = append(a.order, s)
	return nil
}

// Service returns the service with the given name.
func (a *Accessory) Service(name string) (*Service, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, exists := a.byName[name]
	if !exists {
		return nil, ErrServiceNotFound
	}
	return s, nil
}

// Services returns the services in the order they were added.
func (a *Accessory) Services() []*Service {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]*Service, len(a.order))
	copy(out, a.order)
	return out
}

// Lookup resolves a "service/characteristic" path.
func (a *Accessory) Lookup(path string) (*Characteristic, error) {
	svcName, charName, ok := strings.Cut(path, "/")
	if !ok || svcName == "" || charName == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	svc, err := a.Service(svcName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", svcName, err)
	}
	c, err := svc.Characteristic(charName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// MustLookup is like Lookup but panics on error. Use only for the fixed
// characteristic set built at startup.
func (a *Accessory) MustLookup(path string) *Characteristic {
	c, err := a.Lookup(path)
	if err != nil {
		panic(err)
	}
	return c
}

// Snapshot returns the current value of every characteristic keyed by path.
func (a *Accessory) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, s := range a.Services() {
		for _, c := range s.Characteristics() {
			out[c.Path()] = c.Value()
		}
	}
	return out
}

// Subscribe adds obs to every characteristic of every service.
func (a *Accessory) Subscribe(obs Observer) {
	for _, s := range a.Services() {
		s.Subscribe(obs)
	}
}
