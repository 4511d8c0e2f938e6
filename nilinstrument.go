package chunkstream

type nilInstrument struct{}

func NewNilInstrument() Instrument {
	return &nilInstrument{}
}

func (self *nilInstrument) NewInstance(_ string) InstrumentInstance {
	return &NilInstrumentInstance{}
}

type NilInstrumentInstance struct{}

func (n NilInstrumentInstance) Allocated(id string) {}

func (n NilInstrumentInstance) Borrowed(id string) {}

func (n NilInstrumentInstance) Recycled(id string) {}

func (n NilInstrumentInstance) Discarded(id string) {}

func (n NilInstrumentInstance) Disposed(id string) {}

func (n NilInstrumentInstance) Shutdown() {}
