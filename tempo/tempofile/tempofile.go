// Package tempofile loads and saves tempo maps as .json, .yml or Standard
// MIDI Files, picking the format from the file extension.
package tempofile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zrythm/zrythm-sub015/tempo"
	"github.com/zrythm/zrythm-sub015/tempo/midifile"
)

func isMIDI(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		return true
	}
	return false
}

// Load reads a tempo map. Files other than MIDI files are tried as .json and
// then as .yml, like project files.
func Load(path string, sampleRate float64) (*tempo.Map, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %w", path, err)
	}
	if isMIDI(path) {
		return midifile.Import(bytes.NewReader(b), sampleRate)
	}
	return tempo.Unmarshal(b, sampleRate)
}

// Save writes m to path, creating the parent directories if needed.
func Save(path string, m *tempo.Map) error {
	var b []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case isMIDI(path):
		var buf bytes.Buffer
		err = midifile.Export(m, &buf)
		b = buf.Bytes()
	case ext == ".json":
		b, err = json.MarshalIndent(m, "", "  ")
	case ext == ".yml" || ext == ".yaml":
		b, err = yaml.Marshal(m)
	default:
		return fmt.Errorf("unknown tempo map file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("could not encode tempo map: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("could not write file %v: %w", path, err)
	}
	return nil
}
