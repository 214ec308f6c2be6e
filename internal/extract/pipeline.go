// Package extract turns a finished transcript into a structured medical
// conclusion using a language model.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwulff/scribe/internal/doctor"
	"github.com/jwulff/scribe/internal/llm"
)

// UnknownPatient is written when a session has no patient name.
const UnknownPatient = "Не указано"

// Request carries the transcript and the session metadata merged into the
// result.
type Request struct {
	Transcript     string
	Specialization doctor.Specialization
	DoctorName     string
	PatientName    string
}

// Pipeline looks up the instruction template, calls the model and validates
// its reply.
type Pipeline struct {
	llm         llm.Completer
	templates   Registry
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// Options tune the completion request.
type Options struct {
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// NewPipeline creates a pipeline over the given registry.
func NewPipeline(c llm.Completer, templates Registry, opts Options) *Pipeline {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Pipeline{
		llm:         c,
		templates:   templates,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
	}
}

// Extract runs one extraction. The template is resolved before anything is
// sent, so an unknown specialization never reaches the service.
func (p *Pipeline) Extract(ctx context.Context, req Request) (*Result, error) {
	tmpl, err := p.templates.Lookup(req.Specialization)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, ErrEmptyInput
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.llm.Complete(ctx, llm.Request{
		System:      tmpl.Instruction,
		User:        req.Transcript,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	result, err := parse(content, tmpl.Required)
	if err != nil {
		return nil, &MalformedResponseError{Content: content, Err: err}
	}

	merge(result, req)
	return result, nil
}

func parse(content string, required []string) (*Result, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("response is not a JSON object")
	}
	for _, k := range required {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("missing field %q", k)
		}
	}

	var r Result
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// merge overwrites the patient name and doctor block with session metadata.
func merge(r *Result, req Request) {
	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		name = UnknownPatient
	}
	r.Patient.Name = name
	r.Doctor = Doctor{
		Name:           req.DoctorName,
		Specialization: req.Specialization.Label(),
	}
	if r.Complaints == nil {
		r.Complaints = []string{}
	}
	if r.ProvisionalDiagnosis == nil {
		r.ProvisionalDiagnosis = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
}
