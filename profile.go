package chunkstream

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const profileVersion = 1

// Profile carries the tunables for pools and streaming. The tail reuse
// threshold is a heuristic, not a correctness boundary; it trades fewer,
// fuller chunks against stalling the fill of a nearly-full tail.
type Profile struct {
	ChunkSz         int `yaml:"chunk_sz"`
	PoolCapacity    int `yaml:"pool_capacity"`
	TailReuseThresh int `yaml:"tail_reuse_thresh"`
	MaxReadSz       int `yaml:"max_read_sz"`
	i               Instrument
}

func NewBaselineProfile() *Profile {
	return &Profile{
		ChunkSz:         64 * 1024,
		PoolCapacity:    1024,
		TailReuseThresh: 200,
		MaxReadSz:       0,
	}
}

func (self *Profile) SetInstrument(i Instrument) {
	self.i = i
}

func (self *Profile) Instrument() Instrument {
	return self.i
}

func (self *Profile) Load(data map[string]interface{}) error {
	if v, found := data["profile_version"]; found {
		if i, ok := v.(int); ok {
			if i != profileVersion {
				return errors.Errorf("invalid profile version [%d != %d]", i, profileVersion)
			}
		} else {
			return errors.New("invalid 'profile_version' value")
		}
	} else {
		return errors.New("missing 'profile_version'")
	}
	if v, found := data["chunk_sz"]; found {
		if i, ok := v.(int); ok {
			if i <= 0 {
				return errors.Errorf("non-positive 'chunk_sz' [%d]", i)
			}
			self.ChunkSz = i
		} else {
			return errors.New("invalid 'chunk_sz' value")
		}
	}
	if v, found := data["pool_capacity"]; found {
		if i, ok := v.(int); ok {
			if i < 0 {
				return errors.Errorf("negative 'pool_capacity' [%d]", i)
			}
			self.PoolCapacity = i
		} else {
			return errors.New("invalid 'pool_capacity' value")
		}
	}
	if v, found := data["tail_reuse_thresh"]; found {
		if i, ok := v.(int); ok {
			if i < 0 {
				return errors.Errorf("negative 'tail_reuse_thresh' [%d]", i)
			}
			self.TailReuseThresh = i
		} else {
			return errors.New("invalid 'tail_reuse_thresh' value")
		}
	}
	if v, found := data["max_read_sz"]; found {
		if i, ok := v.(int); ok {
			if i < 0 {
				return errors.Errorf("negative 'max_read_sz' [%d]", i)
			}
			self.MaxReadSz = i
		} else {
			return errors.New("invalid 'max_read_sz' value")
		}
	}
	if v, found := data["instrument"]; found {
		submap, err := mapiMap(v)
		if err != nil {
			return errors.Wrap(err, "invalid 'instrument' value")
		}
		name := "nil"
		if n, found := submap["name"]; found {
			if s, ok := n.(string); ok {
				name = s
			} else {
				return errors.New("invalid instrument 'name' value")
			}
		}
		i, err := NewInstrument(name, submap)
		if err != nil {
			return errors.Wrap(err, "instrument")
		}
		self.i = i
	}
	return nil
}

func (self *Profile) Dump() string {
	out := "profile {\n"
	out += fmt.Sprintf("\t%-20s %d\n", "chunk_sz", self.ChunkSz)
	out += fmt.Sprintf("\t%-20s %d\n", "pool_capacity", self.PoolCapacity)
	out += fmt.Sprintf("\t%-20s %d\n", "tail_reuse_thresh", self.TailReuseThresh)
	out += fmt.Sprintf("\t%-20s %d\n", "max_read_sz", self.MaxReadSz)
	out += "}"
	return out
}

// LoadProfile reads a YAML profile file over the baseline values.
func LoadProfile(path string) (*Profile, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read profile")
	}
	dataMap := make(map[string]interface{})
	if err := yaml.Unmarshal(data, dataMap); err != nil {
		return nil, errors.Wrap(err, "unmarshal profile")
	}
	p := NewBaselineProfile()
	if err := p.Load(dataMap); err != nil {
		return nil, err
	}
	return p, nil
}

// mapiMap normalizes the map[interface{}]interface{} values yaml.v2 produces
// for nested mappings.
func mapiMap(v interface{}) (map[string]interface{}, error) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{})
		for k, value := range m {
			s, ok := k.(string)
			if !ok {
				return nil, errors.Errorf("non-string key [%v]", k)
			}
			out[s] = value
		}
		return out, nil
	default:
		return nil, errors.Errorf("unexpected type [%T]", v)
	}
}
