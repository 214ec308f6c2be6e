package storage

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// KeyLastDoctor stores the most recently selected doctor.
const KeyLastDoctor = "last_selected_doctor"

// LoadSettings reads the flat key=value settings file. A missing file yields
// an empty map.
func (s *Store) LoadSettings() map[string]string {
	settings := map[string]string{}
	f, err := os.Open(s.Path(SettingsFile))
	if err != nil {
		return settings
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(scan.Text()), "=")
		if !ok || key == "" {
			continue
		}
		settings[key] = val
	}
	return settings
}

// SaveSetting updates one key and rewrites the settings file.
func (s *Store) SaveSetting(key, value string) error {
	settings := s.LoadSettings()
	settings[key] = value

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, settings[k])
	}
	if err := os.WriteFile(s.Path(SettingsFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
