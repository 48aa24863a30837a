// Package filekey turns S3 object keys into science file descriptions.
package filekey

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/mission"
)

// Time layouts used in science file names
const (
	RawTimeLayout     = "2006002-150405"
	ProductTimeLayout = "20060102T150405"
)

// Levels lists the known data levels, raw first
var Levels = []string{"l0", "l1", "ql", "l2", "l3"}

var (
	rawVersion     = regexp.MustCompile(`^[0-9]+$`)
	productVersion = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)
)

// ScienceFile is a parsed science file name
type ScienceFile struct {
	Filename   string
	Instrument string
	Mode       string
	Level      string
	Time       time.Time
	Version    string
	Extension  string
}

// ParseFileKey returns the file name of an S3 key. Keys in S3 notifications
// are URL encoded with spaces as '+'.
func ParseFileKey(key string) (string, error) {

	k, err := url.QueryUnescape(key)
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode file key %q", key)
	}
	name := path.Base(k)
	if name == "." || name == "/" || strings.HasSuffix(k, "/") {
		return "", errors.Errorf("file key %q has no file name", key)
	}
	return name, nil
}

// Parse parses a file name of the form
// {mission}_{inst}[_{mode}]_{level}_{time}_v{version}{ext}
func Parse(m *mission.Mission, filename string) (ScienceFile, error) {

	sf := ScienceFile{Filename: filename}

	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	sf.Extension = ext

	parts := strings.Split(base, "_")
	if len(parts) < 5 || len(parts) > 6 {
		return sf, errors.Errorf("%s is not a valid science file name", filename)
	}

	if !strings.EqualFold(parts[0], m.Name) {
		return sf, errors.Errorf("%s does not belong to mission %s", filename, m.Name)
	}

	inst, ok := m.Instrument(parts[1])
	if !ok {
		return sf, errors.Errorf("unknown instrument %q in %s", parts[1], filename)
	}
	sf.Instrument = inst.Name

	if len(parts) == 6 {
		sf.Mode = parts[2]
		parts = append(parts[:2], parts[3:]...)
	}

	sf.Level = strings.ToLower(parts[2])
	if !knownLevel(sf.Level) {
		return sf, errors.Errorf("unknown data level %q in %s", parts[2], filename)
	}

	if !strings.HasPrefix(parts[4], "v") {
		return sf, errors.Errorf("missing version in %s", filename)
	}
	sf.Version = strings.TrimPrefix(parts[4], "v")

	layout, version := ProductTimeLayout, productVersion
	if sf.Level == "l0" {
		if sf.Mode != "" {
			return sf, errors.Errorf("raw file %s cannot have a mode", filename)
		}
		layout, version = RawTimeLayout, rawVersion
	}

	t, err := time.Parse(layout, parts[3])
	if err != nil {
		return sf, errors.Wrapf(err, "bad time in %s", filename)
	}
	sf.Time = t

	if !version.MatchString(sf.Version) {
		return sf, errors.Errorf("bad version %q in %s", sf.Version, filename)
	}

	return sf, nil
}

func knownLevel(l string) bool {
	for _, k := range Levels {
		if k == l {
			return true
		}
	}
	return false
}
