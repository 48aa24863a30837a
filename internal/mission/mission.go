// Package mission describes the instruments of a mission and the
// instrument configurations recorded by the tracking database.
package mission

import (
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Development is the environment name that gets dev- prefixed resources
const Development = "DEVELOPMENT"

// Mission is the mission configuration loaded from YAML
type Mission struct {
	Name            string   `yaml:"mission_name"`
	FileExtension   string   `yaml:"file_extension"`
	InstNames       []string `yaml:"inst_names"`
	InstShortNames  []string `yaml:"inst_shortnames"`
	InstFullNames   []string `yaml:"inst_fullnames"`
	InstTargetNames []string `yaml:"inst_targetnames"`

	instruments    []Instrument
	configurations []Configuration
}

// Default returns the HERMES mission
func Default() *Mission {
	m := &Mission{
		Name:            "hermes",
		FileExtension:   ".bin",
		InstNames:       []string{"eea", "nemisis", "merit", "spani"},
		InstShortNames:  []string{"eea", "nem", "mrt", "spn"},
		InstFullNames:   []string{"Electron Electrostatic Analyzer", "Noise Eliminating Magnetometer In a Small Integrated System", "Miniaturized Electron pRoton Telescope", "Solar Probe Analyzer for Ions"},
		InstTargetNames: []string{"EEA", "NEMISIS", "MERIT", "SPANI"},
	}
	m.build()
	return m
}

// Load reads a mission file
func Load(path string) (*Mission, error) {

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read mission config")
	}
	return Parse(b)
}

// Parse decodes a mission config and checks the instrument lists line up
func Parse(b []byte) (*Mission, error) {

	var m Mission
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "failed to decode mission config")
	}

	if m.Name == "" {
		return nil, errors.New("missing mission_name")
	}
	n := len(m.InstNames)
	if n == 0 {
		return nil, errors.New("mission has no instruments")
	}
	if len(m.InstShortNames) != n || len(m.InstFullNames) != n || len(m.InstTargetNames) != n {
		return nil, errors.Errorf("instrument lists differ in length: names %d, shortnames %d, fullnames %d, targetnames %d",
			n, len(m.InstShortNames), len(m.InstFullNames), len(m.InstTargetNames))
	}

	m.build()
	return &m, nil
}

func (m *Mission) build() {
	in := make([]Instrument, len(m.InstNames))
	for i := range m.InstNames {
		in[i] = Instrument{
			Name:       m.InstNames[i],
			ShortName:  m.InstShortNames[i],
			FullName:   m.InstFullNames[i],
			TargetName: m.InstTargetNames[i],
		}
	}
	m.instruments, m.configurations = Enumerate(in)
}

// Instruments returns the mission instruments with IDs and descriptions
func (m *Mission) Instruments() []Instrument {
	return m.instruments
}

// Configurations returns every instrument configuration
func (m *Mission) Configurations() []Configuration {
	return m.configurations
}

// Instrument looks up an instrument by name or short name, ignoring case
func (m *Mission) Instrument(name string) (Instrument, bool) {
	for _, inst := range m.instruments {
		if strings.EqualFold(inst.Name, name) || strings.EqualFold(inst.ShortName, name) {
			return inst, true
		}
	}
	return Instrument{}, false
}

// InstrumentBucket names the bucket holding an instrument's files
func (m *Mission) InstrumentBucket(instrument, environment string) string {
	bucket := m.Name + "-" + strings.ToLower(instrument)
	if environment == Development {
		return "dev-" + bucket
	}
	return bucket
}
