// Package storage persists doctors, patient history, transcripts, extraction
// results and settings as plain files under a data directory. Writes are
// best-effort; there is no durability guarantee beyond the filesystem's.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jwulff/scribe/internal/doctor"
)

// Directory and file names under the data directory.
const (
	TranscriptDir   = "audio_records"
	ResultDir       = "Results"
	ReportDir       = "Reports"
	DoctorsFile     = "doctors.json"
	PatientsFile    = "patient_history.json"
	SettingsFile    = "settings.txt"
	TimestampLayout = "20060102_150405"
)

// Store reads and writes the persisted state.
type Store struct {
	root string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root is the data directory.
func (s *Store) Root() string {
	return s.root
}

// Path joins elems onto the data directory.
func (s *Store) Path(elems ...string) string {
	return filepath.Join(append([]string{s.root}, elems...)...)
}

// EnsureDirs creates the transcript, result and report directories.
func (s *Store) EnsureDirs() error {
	for _, d := range []string{TranscriptDir, ResultDir, ReportDir} {
		p := s.Path(d)
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
		log.Printf("storage: created directory %s", p)
	}
	return nil
}

// TranscriptPath is where the transcript of a session started at t is flushed.
// The session id suffix keeps sessions started within one second apart.
func (s *Store) TranscriptPath(t time.Time, sessionID string) string {
	name := "transcript_" + t.Format(TimestampLayout)
	if id := shortID(sessionID); id != "" {
		name += "_" + id
	}
	return s.Path(TranscriptDir, name+".txt")
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// ResultPath is where the extraction result of a session, stamped with t, is
// saved.
func (s *Store) ResultPath(t time.Time, sessionID string) string {
	name := "result_" + t.Format(TimestampLayout)
	if id := shortID(sessionID); id != "" {
		name += "_" + id
	}
	return s.Path(ResultDir, name+".json")
}

// LoadDoctors reads doctors.json, falling back to the default directory when
// the file is missing or unreadable.
func (s *Store) LoadDoctors() doctor.Directory {
	var dir doctor.Directory
	if err := s.readJSON(DoctorsFile, &dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("storage: load doctors: %v", err)
		}
		return doctor.Defaults()
	}
	if dir == nil {
		return doctor.Defaults()
	}
	return dir
}

// SaveDoctors writes the doctor directory.
func (s *Store) SaveDoctors(dir doctor.Directory) error {
	return s.writeJSON(DoctorsFile, dir)
}

// LoadPatientHistory reads the ordered patient-name history.
func (s *Store) LoadPatientHistory() []string {
	var names []string
	if err := s.readJSON(PatientsFile, &names); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("storage: load patient history: %v", err)
		}
		return nil
	}
	return names
}

// AddPatient appends name to the history unless it is blank or present
// already, and returns the resulting history.
func (s *Store) AddPatient(history []string, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(history, name) {
		return history, nil
	}
	history = append(history, name)
	if err := s.writeJSON(PatientsFile, history); err != nil {
		return history, err
	}
	return history, nil
}

// WriteTranscript writes the frozen transcript text to path.
func (s *Store) WriteTranscript(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// ReadTranscript returns the flushed transcript at path.
func (s *Store) ReadTranscript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveResult writes v as indented JSON to the result file of a session
// stamped with t and returns its path.
func (s *Store) SaveResult(v any, t time.Time, sessionID string) (string, error) {
	path := s.ResultPath(t, sessionID)
	if err := writeJSONFile(path, v); err != nil {
		return "", err
	}
	return path, nil
}

// LoadResult decodes a saved result file into v.
func (s *Store) LoadResult(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	return writeJSONFile(s.Path(name), v)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
