// Package model provides state management for machine learning models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// StateManager tracks whether a model currently owns a built graph and
// whether that graph has been trained, in a thread-safe manner.
type StateManager struct {
	Built  bool
	Fitted bool
	mu     sync.RWMutex
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsBuilt returns whether a graph is attached.
func (s *StateManager) IsBuilt() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Built
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetBuilt marks a freshly attached, untrained graph.
func (s *StateManager) SetBuilt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Built = true
	s.Fitted = false
}

// SetFitted marks the model as fitted. A fitted model is also built.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Built = true
	s.Fitted = true
}

// Reset resets the state to that of a freshly constructed model.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Built = false
	s.Fitted = false
}

// RequireBuilt returns a NotFittedError naming modelName and method when no
// graph is attached.
func (s *StateManager) RequireBuilt(modelName, method string) error {
	if !s.IsBuilt() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFitted is RequireBuilt for operations that need trained weights.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
