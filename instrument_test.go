package chunkstream

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingInstance struct {
	allocated int32
	borrowed  int32
	recycled  int32
	discarded int32
	disposed  int32
}

func (self *countingInstance) Allocated(string) { atomic.AddInt32(&self.allocated, 1) }
func (self *countingInstance) Borrowed(string)  { atomic.AddInt32(&self.borrowed, 1) }
func (self *countingInstance) Recycled(string)  { atomic.AddInt32(&self.recycled, 1) }
func (self *countingInstance) Discarded(string) { atomic.AddInt32(&self.discarded, 1) }
func (self *countingInstance) Disposed(string)  { atomic.AddInt32(&self.disposed, 1) }
func (self *countingInstance) Shutdown()        {}

func TestNewInstrument(t *testing.T) {
	i, err := NewInstrument("nil", nil)
	assert.NoError(t, err)
	assert.NotNil(t, i)
	assert.NotNil(t, i.NewInstance("test"))

	_, err = NewInstrument("bogus", nil)
	assert.Error(t, err)
}

func TestPoolInstrumentation(t *testing.T) {
	ci := &countingInstance{}
	pool := NewReusePool("test", testProfile(16, 1, 200), ci)

	a, _ := pool.Borrow()
	assert.NoError(t, a.ReleaseTo(pool))
	b, _ := pool.Borrow()
	c, _ := pool.Borrow()
	assert.NoError(t, b.ReleaseTo(pool))
	assert.NoError(t, c.ReleaseTo(pool))
	pool.Dispose()

	assert.Equal(t, int32(2), atomic.LoadInt32(&ci.allocated))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ci.borrowed))
	assert.Equal(t, int32(2), atomic.LoadInt32(&ci.recycled))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ci.discarded))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ci.disposed))
}

func TestMetricsInstrumentConfig(t *testing.T) {
	_, err := NewMetricsInstrument(map[string]interface{}{})
	assert.Error(t, err)

	_, err = NewMetricsInstrument(map[string]interface{}{"url": "http://localhost:8086"})
	assert.Error(t, err)

	i, err := NewMetricsInstrument(map[string]interface{}{
		"url":         "http://localhost:8086",
		"database":    "chunkstream",
		"snapshot_ms": 250,
	})
	assert.NoError(t, err)
	assert.NotNil(t, i)
}

func TestMetricsInstrumentBadValues(t *testing.T) {
	_, err := NewMetricsInstrument(map[string]interface{}{
		"url":      "http://localhost:8086",
		"database": "chunkstream",
		"username": 42,
	})
	assert.Error(t, err)
}
