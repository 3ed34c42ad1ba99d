package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsBuilt())
	assert.False(t, s.IsFitted())

	err := s.RequireBuilt("MNISTClassifier", "Predict")
	require.Error(t, err)
	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "MNISTClassifier", nfe.ModelName)
	assert.Equal(t, "Predict", nfe.Method)

	s.SetBuilt()
	assert.NoError(t, s.RequireBuilt("m", "Predict"))
	assert.Error(t, s.RequireFitted("m", "Score"))

	s.SetFitted()
	assert.NoError(t, s.RequireFitted("m", "Score"))

	s.SetBuilt()
	assert.False(t, s.IsFitted(), "a rebuilt graph is untrained")

	s.Reset()
	assert.False(t, s.IsBuilt())
	assert.False(t, s.IsFitted())
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	s := NewStateManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetFitted()
		}()
		go func() {
			defer wg.Done()
			_ = s.IsFitted()
		}()
	}
	wg.Wait()
	assert.True(t, s.IsFitted())
}
