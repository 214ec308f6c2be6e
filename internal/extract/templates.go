package extract

import (
	"fmt"

	"github.com/jwulff/scribe/internal/doctor"
)

// Template is the instruction set for one specialization.
type Template struct {
	Specialization doctor.Specialization
	Instruction    string

	// Required lists the top-level keys the response object must carry.
	Required []string
}

// Registry maps every supported specialization to its template. It is
// built once at startup.
type Registry map[doctor.Specialization]Template

// Lookup returns the template for spec or ErrTemplateNotFound.
func (r Registry) Lookup(spec doctor.Specialization) (Template, error) {
	t, ok := r[spec]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, spec)
	}
	return t, nil
}

// requiredFields are the list sections every conclusion has.
var requiredFields = []string{"complaints", "provisional diagnosis", "recommendations"}

const schemaExample = `{
  "patient": {
    "name": "Имя пациента",
    "age": "Возраст пациента"
  },
  "complaints": [
    "Описание жалоб пациента"
  ],
  "provisional diagnosis": [
    "Предварительный диагноз"
  ],
  "recommendations": [
    "Рекомендации врача"
  ]
}`

// roles is the instrumental-case name used in "разговор между <role> и пациентом".
var roles = map[doctor.Specialization]string{
	doctor.Pediatrician:     "педиатром",
	doctor.GeneralPhysician: "терапевтом",
	doctor.Neurologist:      "неврологом",
	doctor.Cardiologist:     "кардиологом",
	doctor.Ophthalmologist:  "офтальмологом",
	doctor.Otolaryngologist: "отоларингологом",
	doctor.Surgeon:          "хирургом",
	doctor.Gynecologist:     "гинекологом",
	doctor.Urologist:        "урологом",
	doctor.Endocrinologist:  "эндокринологом",
}

var focus = map[doctor.Specialization]string{
	doctor.Pediatrician:     "Пациент - ребенок; разговор может вести родитель. Отметь возраст ребенка, вес и прививочный статус, если они упоминаются.",
	doctor.GeneralPhysician: "Отметь общее самочувствие, температуру, давление и принимаемые препараты, если они упоминаются.",
	doctor.Neurologist:      "Отметь характер и локализацию боли, головокружение, нарушения чувствительности, сна и памяти.",
	doctor.Cardiologist:     "Отметь боли в груди, одышку, отеки, перебои в работе сердца, давление и пульс.",
	doctor.Ophthalmologist:  "Отметь остроту зрения, жалобы на каждый глаз отдельно и внутриглазное давление, если оно упоминается.",
	doctor.Otolaryngologist: "Отметь жалобы со стороны уха, горла и носа, слух и носовое дыхание.",
	doctor.Surgeon:          "Отметь локализацию и давность жалоб, травмы и перенесенные операции.",
	doctor.Gynecologist:     "Отметь менструальный цикл, беременности и жалобы на органы малого таза.",
	doctor.Urologist:        "Отметь нарушения мочеиспускания, боли в пояснице и результаты анализов мочи, если они упоминаются.",
	doctor.Endocrinologist:  "Отметь уровень глюкозы, вес, жалобы со стороны щитовидной железы и принимаемые гормональные препараты.",
}

func instruction(role, hint string) string {
	return "Вот записанный и распознанный разговор между " + role + " и пациентом. Там допустимы ошибки. " +
		"Твоя задача из этого разговора извлечь необходимые данные для составления заключения.\n" +
		"Ответ необходимо записать в формате JSON.\n" +
		"Вот пример заполненного заключения:\n\n" +
		schemaExample + "\n\n" +
		"Если данных для раздела нет, верни пустой список.\n" +
		hint + "\n"
}

// DefaultRegistry builds templates for every known specialization.
func DefaultRegistry() Registry {
	r := make(Registry, len(doctor.All))
	for _, spec := range doctor.All {
		r[spec] = Template{
			Specialization: spec,
			Instruction:    instruction(roles[spec], focus[spec]),
			Required:       requiredFields,
		}
	}
	return r
}
