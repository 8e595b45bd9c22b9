package model

import (
	"errors"
	"sync"
)

// Service errors.
var (
	ErrCharacteristicNotFound  = errors.New("characteristic not found")
	ErrDuplicateCharacteristic = errors.New("duplicate characteristic name")
)

// Service groups the characteristics of one sensing function.
type Service struct {
	mu sync.RWMutex

	name    string
	primary bool

	order  []*Characteristic
	byName map[string]*Characteristic
}

// NewService creates an empty service.
func NewService(name string, primary bool) *Service {
	return &Service{
		name:    name,
		primary: primary,
		byName:  make(map[string]*Characteristic),
	}
}

// Name returns the service name.
func (s *Service) Name() string {
	return s.name
}

// Primary reports whether the service is marked primary.
func (s *Service) Primary() bool {
	return s.primary
}

// AddCharacteristic attaches c to the service.
func (s *Service) AddCharacteristic(c *Characteristic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[c.Name()]; exists {
		return ErrDuplicateCharacteristic
	}
	c.service = s.name
	s.byName[c.Name()] = c
	s.order = append(s.order, c)
	return nil
}

// Characteristic returns the characteristic with the given name.
func (s *Service) Characteristic(name string) (*Characteristic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.byName[name]
	if !exists {
		return nil, ErrCharacteristicNotFound
	}
	return c, nil
}

// Characteristics returns the characteristics in the order they were added.
func (s *Service) Characteristics() []*Characteristic {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Characteristic, len(s.order))
	copy(out, s.order)
	return out
}

// Subscribe adds obs to every characteristic in the service.
func (s *Service) Subscribe(obs Observer) {
	for _, c := range s.Characteristics() {
		c.Subscribe(obs)
	}
}
