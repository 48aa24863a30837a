package mission

import (
	"fmt"
)

// NoInstrument marks an unused configuration slot
const NoInstrument = 0

// Instrument is a sensor of the mission
type Instrument struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	ShortName   string `json:"short_name" yaml:"short_name"`
	FullName    string `json:"full_name" yaml:"full_name"`
	TargetName  string `json:"target_name" yaml:"target_name"`
	Description string `json:"description" yaml:"description"`
}

// Configuration is one combination of instruments active together.
// Slots always has one entry per mission instrument; members are
// ascending and left-packed, the rest hold NoInstrument.
type Configuration struct {
	ID    int   `json:"configuration_id"`
	Slots []int `json:"slots"`
}

// Members returns the instrument IDs present in the configuration
func (c Configuration) Members() []int {
	m := make([]int, 0, len(c.Slots))
	for _, s := range c.Slots {
		if s != NoInstrument {
			m = append(m, s)
		}
	}
	return m
}

// SlotName is the column name of the i-th (0-based) slot
func SlotName(i int) string {
	return fmt.Sprintf("instrument_%d_id", i+1)
}

// Fields returns the slot record keyed by column name, nil where a slot is unused
func (c Configuration) Fields() map[string]interface{} {
	f := make(map[string]interface{}, len(c.Slots))
	for i, s := range c.Slots {
		if s == NoInstrument {
			f[SlotName(i)] = nil
			continue
		}
		f[SlotName(i)] = s
	}
	return f
}

// Enumerate assigns instrument IDs and descriptions and lists every
// non-empty instrument subset as a Configuration. Subsets are ordered by
// size, then lexicographically by member IDs; configuration IDs follow
// that order starting at 1.
func Enumerate(in []Instrument) ([]Instrument, []Configuration) {

	n := len(in)
	instruments := make([]Instrument, n)
	for i, inst := range in {
		inst.ID = i + 1
		inst.Description = fmt.Sprintf("%s (%s)", inst.FullName, inst.TargetName)
		instruments[i] = inst
	}

	if n == 0 {
		return instruments, nil
	}

	configs := make([]Configuration, 0, (1<<uint(n))-1)
	for r := 1; r <= n; r++ {
		combinations(n, r, func(combo []int) {
			slots := make([]int, n)
			copy(slots, combo)
			configs = append(configs, Configuration{ID: len(configs) + 1, Slots: slots})
		})
	}
	return instruments, configs
}

// combinations calls fn with each r-combination of 1..n in lexicographic order.
// The slice passed to fn is reused between calls.
func combinations(n, r int, fn func([]int)) {

	combo := make([]int, r)
	for i := range combo {
		combo[i] = i + 1
	}

	for {
		fn(combo)

		// rightmost position that can still move up
		i := r - 1
		for i >= 0 && combo[i] == n-r+i+1 {
			i--
		}
		if i < 0 {
			return
		}
		combo[i]++
		for j := i + 1; j < r; j++ {
			combo[j] = combo[j-1] + 1
		}
	}
}

// ConfigurationFor finds the configuration whose members are exactly ids
func ConfigurationFor(configs []Configuration, ids ...int) (Configuration, bool) {

	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	for _, c := range configs {
		m := c.Members()
		if len(m) != len(want) {
			continue
		}
		match := true
		for _, id := range m {
			if !want[id] {
				match = false
				break
			}
		}
		if match {
			return c, true
		}
	}
	return Configuration{}, false
}
