package extract

import (
	"bytes"
	"encoding/json"
)

// Result is the structured outcome of one session.
type Result struct {
	Patient              Patient  `json:"patient"`
	Complaints           []string `json:"complaints"`
	ProvisionalDiagnosis []string `json:"provisional diagnosis"`
	Recommendations      []string `json:"recommendations"`
	Doctor               Doctor   `json:"doctor"`
}

// Patient identifies who the conclusion is about.
type Patient struct {
	Name string `json:"name"`
	Age  Age    `json:"age,omitempty"`
}

// Doctor is the physician the conclusion is issued by.
type Doctor struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// Age is kept as text; the model returns it either as a string ("42 года")
// or as a bare number.
type Age string

// UnmarshalJSON accepts a JSON string, a number or null.
func (a *Age) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Age(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Age(n.String())
	return nil
}
