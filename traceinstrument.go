package chunkstream

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// traceInstrument logs every pool event, for chasing leaks and double
// releases during development.
type traceInstrument struct {
	config *traceInstrumentConfig
}

type traceInstrumentConfig struct {
	Lifecycle bool
	Traffic   bool
}

func NewTraceInstrument(config map[string]interface{}) (Instrument, error) {
	i := &traceInstrument{
		config: &traceInstrumentConfig{
			Lifecycle: true,
			Traffic:   true,
		},
	}
	if err := i.config.load(config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	return i, nil
}

func (self *traceInstrumentConfig) load(data map[string]interface{}) error {
	if v, found := data["lifecycle"]; found {
		if b, ok := v.(bool); ok {
			self.Lifecycle = b
		} else {
			return errors.New("invalid trace 'lifecycle' value")
		}
	}
	if v, found := data["traffic"]; found {
		if b, ok := v.(bool); ok {
			self.Traffic = b
		} else {
			return errors.New("invalid trace 'traffic' value")
		}
	}
	return nil
}

func (self *traceInstrument) NewInstance(id string) InstrumentInstance {
	return &traceInstrumentInstance{
		id: id,
		i:  self,
	}
}

type traceInstrumentInstance struct {
	id string
	i  *traceInstrument
}

func (self *traceInstrumentInstance) Allocated(id string) {
	if self.i.config.Traffic {
		logrus.Infof("ALLOCATED [%s]", id)
	}
}

func (self *traceInstrumentInstance) Borrowed(id string) {
	if self.i.config.Traffic {
		logrus.Infof("BORROWED [%s]", id)
	}
}

func (self *traceInstrumentInstance) Recycled(id string) {
	if self.i.config.Traffic {
		logrus.Infof("RECYCLED [%s]", id)
	}
}

func (self *traceInstrumentInstance) Discarded(id string) {
	if self.i.config.Traffic {
		logrus.Infof("DISCARDED [%s]", id)
	}
}

func (self *traceInstrumentInstance) Disposed(id string) {
	if self.i.config.Lifecycle {
		logrus.Infof("DISPOSED [%s]", id)
	}
}

func (self *traceInstrumentInstance) Shutdown() {
	if self.i.config.Lifecycle {
		logrus.Infof("SHUTDOWN [%s]", self.id)
	}
}
