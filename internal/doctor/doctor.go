// Package doctor defines the fixed set of medical specializations and the
// doctors that practice them.
package doctor

import "sort"

// Specialization is a doctor's medical field. It selects the extraction
// template for a session.
type Specialization string

const (
	Pediatrician     Specialization = "pediatrician"
	GeneralPhysician Specialization = "general_physician"
	Neurologist      Specialization = "neurologist"
	Cardiologist     Specialization = "cardiologist"
	Ophthalmologist  Specialization = "ophthalmologist"
	Otolaryngologist Specialization = "otolaryngologist"
	Surgeon          Specialization = "surgeon"
	Gynecologist     Specialization = "gynecologist"
	Urologist        Specialization = "urologist"
	Endocrinologist  Specialization = "endocrinologist"
)

// All lists every specialization in display order.
var All = []Specialization{
	Pediatrician,
	GeneralPhysician,
	Neurologist,
	Cardiologist,
	Ophthalmologist,
	Otolaryngologist,
	Surgeon,
	Gynecologist,
	Urologist,
	Endocrinologist,
}

var labels = map[Specialization]string{
	Pediatrician:     "Педиатр",
	GeneralPhysician: "Терапевт",
	Neurologist:      "Невролог",
	Cardiologist:     "Кардиолог",
	Ophthalmologist:  "Офтальмолог",
	Otolaryngologist: "Отоларинголог",
	Surgeon:          "Хирург",
	Gynecologist:     "Гинеколог",
	Urologist:        "Уролог",
	Endocrinologist:  "Эндокринолог",
}

var byLabel = func() map[string]Specialization {
	m := make(map[string]Specialization, len(labels))
	for code, label := range labels {
		m[label] = code
	}
	return m
}()

// Valid reports whether s is one of the known specializations.
func (s Specialization) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Label returns the human-readable name. Unknown codes are returned as-is.
func (s Specialization) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// FromLabel maps a human-readable name back to its code.
func FromLabel(label string) (Specialization, bool) {
	s, ok := byLabel[label]
	return s, ok
}

// Doctor is a named practitioner with a specialization.
type Doctor struct {
	Name           string
	Specialization Specialization
}

// Directory maps doctor display names to specialization codes, the shape
// persisted in doctors.json.
type Directory map[string]Specialization

// Names returns the doctor names sorted alphabetically.
func (d Directory) Names() []string {
	names := make([]string, 0, len(d))
	for n := range d {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the doctor with the given name.
func (d Directory) Lookup(name string) (Doctor, bool) {
	spec, ok := d[name]
	if !ok {
		return Doctor{}, false
	}
	return Doctor{Name: name, Specialization: spec}, true
}

// Defaults is the directory used before any doctor has been saved.
func Defaults() Directory {
	return Directory{
		"Авидзба Леонида": Pediatrician,
		"Амичба Амина":    GeneralPhysician,
	}
}
