package chunkstream

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MetricsInstrument exports pool counters to InfluxDB on a periodic snapshot.
type MetricsInstrument struct {
	lock      sync.Mutex
	config    *MetricsInstrumentConfig
	client    influxdb2.Client
	instances []*metricsInstrumentInstance
}

type MetricsInstrumentConfig struct {
	Url        string
	Database   string
	Username   string
	Password   string
	SnapshotMs int
}

func NewMetricsInstrument(config map[string]interface{}) (Instrument, error) {
	i := &MetricsInstrument{
		config: &MetricsInstrumentConfig{
			SnapshotMs: 1000,
		},
	}
	if err := i.config.load(config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	authToken := ""
	if i.config.Username != "" || i.config.Password != "" {
		authToken = fmt.Sprintf("%s:%s", i.config.Username, i.config.Password)
	}
	i.client = influxdb2.NewClient(i.config.Url, authToken)
	return i, nil
}

func (self *MetricsInstrument) NewInstance(id string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()

	ii := &metricsInstrumentInstance{
		id:     id,
		writer: self.client.WriteAPI("", self.config.Database),
		close:  make(chan struct{}, 1),
	}
	go ii.snapshotter(self.config.SnapshotMs)
	self.instances = append(self.instances, ii)
	return ii
}

func (self *MetricsInstrument) Close() {
	self.lock.Lock()
	defer self.lock.Unlock()

	for _, ii := range self.instances {
		ii.Shutdown()
	}
	self.instances = nil
	self.client.Close()
}

func (self *MetricsInstrumentConfig) load(data map[string]interface{}) error {
	if v, found := data["url"]; found {
		if url, ok := v.(string); ok {
			self.Url = url
		} else {
			return errors.New("invalid metrics 'url' value")
		}
	} else {
		return errors.New("missing metrics 'url'")
	}
	if v, found := data["database"]; found {
		if database, ok := v.(string); ok {
			self.Database = database
		} else {
			return errors.New("invalid metrics 'database' value")
		}
	} else {
		return errors.New("missing metrics 'database'")
	}
	if v, found := data["username"]; found {
		if username, ok := v.(string); ok {
			self.Username = username
		} else {
			return errors.New("invalid metrics 'username' value")
		}
	}
	if v, found := data["password"]; found {
		if password, ok := v.(string); ok {
			self.Password = password
		} else {
			return errors.New("invalid metrics 'password' value")
		}
	}
	if v, found := data["snapshot_ms"]; found {
		if snapshotMs, ok := v.(int); ok {
			self.SnapshotMs = snapshotMs
		} else {
			return errors.New("invalid metrics 'snapshot_ms' value")
		}
	}
	return nil
}

type metricsInstrumentInstance struct {
	id     string
	writer interface {
		WritePoint(point *write.Point)
	}
	close  chan struct{}
	closed bool

	allocated int64
	borrowed  int64
	recycled  int64
	discarded int64
	disposed  int64
}

func (self *metricsInstrumentInstance) Allocated(string) {
	atomic.AddInt64(&self.allocated, 1)
}

func (self *metricsInstrumentInstance) Borrowed(string) {
	atomic.AddInt64(&self.borrowed, 1)
}

func (self *metricsInstrumentInstance) Recycled(string) {
	atomic.AddInt64(&self.recycled, 1)
}

func (self *metricsInstrumentInstance) Discarded(string) {
	atomic.AddInt64(&self.discarded, 1)
}

func (self *metricsInstrumentInstance) Disposed(string) {
	atomic.AddInt64(&self.disposed, 1)
}

func (self *metricsInstrumentInstance) Shutdown() {
	if !self.closed {
		self.closed = true
		close(self.close)
	}
}

func (self *metricsInstrumentInstance) snapshotter(ms int) {
	logrus.Infof("started [%s]", self.id)
	defer logrus.Warnf("exited [%s]", self.id)

	for {
		select {
		case <-self.close:
			self.snapshot()
			return
		case <-time.After(time.Duration(ms) * time.Millisecond):
			self.snapshot()
		}
	}
}

func (self *metricsInstrumentInstance) snapshot() {
	p := influxdb2.NewPoint("pool",
		map[string]string{"id": self.id},
		map[string]interface{}{
			"allocated": atomic.LoadInt64(&self.allocated),
			"borrowed":  atomic.LoadInt64(&self.borrowed),
			"recycled":  atomic.LoadInt64(&self.recycled),
			"discarded": atomic.LoadInt64(&self.discarded),
			"disposed":  atomic.LoadInt64(&self.disposed),
		},
		time.Now())
	self.writer.WritePoint(p)
}
