// Package intake turns submitted patient forms into typed diagnosis input.
package intake

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Skufu/fluscreen/internal/diagnosis"
)

// Form field names.
const (
	FieldName        = "name"
	FieldAge         = "age"
	FieldTemperature = "temperature"
	FieldSystolic    = "sys_bp"
	FieldDiastolic   = "dia_bp"
	FieldSymptoms    = "symptoms"
)

// ErrInputFormat matches every *FormatError via errors.Is.
var ErrInputFormat = errors.New("invalid patient input")

// FieldError describes a single rejected field.
type FieldError struct {
	Field  string `json:"field"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// FormatError collects every field that could not be parsed.
type FormatError struct {
	Fields []FieldError
}

func (e *FormatError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %s", ErrInputFormat, strings.Join(parts, "; "))
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInputFormat
}

type parser struct {
	errs []FieldError
}

func (p *parser) fail(field, value, reason string) {
	p.errs = append(p.errs, FieldError{Field: field, Value: value, Reason: reason})
}

func (p *parser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return &FormatError{Fields: p.errs}
}

func (p *parser) name(raw string, present bool) string {
	name := strings.TrimSpace(raw)
	if !present || name == "" {
		p.fail(FieldName, "", "is required")
	}
	return name
}

func (p *parser) integer(field, raw string, present bool) int {
	raw = strings.TrimSpace(raw)
	if !present || raw == "" {
		p.fail(field, "", "is required")
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(field, raw, "must be a whole number")
		return 0
	}
	return v
}

func (p *parser) float(field, raw string, present bool) float64 {
	raw = strings.TrimSpace(raw)
	if !present || raw == "" {
		p.fail(field, "", "is required")
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(field, raw, "must be a number")
		return 0
	}
	return v
}

// ParseForm validates the submitted form values. Range checks are not
// applied; any well-formed number is passed through to scoring.
func ParseForm(form url.Values) (diagnosis.PatientInput, error) {
	var p parser
	lookup := func(key string) (string, bool) {
		values, ok := form[key]
		if !ok || len(values) == 0 {
			return "", false
		}
		return values[0], true
	}

	name, ok := lookup(FieldName)
	in := diagnosis.PatientInput{Name: p.name(name, ok)}

	raw, ok := lookup(FieldAge)
	in.Age = p.integer(FieldAge, raw, ok)
	raw, ok = lookup(FieldTemperature)
	in.Temperature = p.float(FieldTemperature, raw, ok)
	raw, ok = lookup(FieldSystolic)
	in.SystolicBP = p.integer(FieldSystolic, raw, ok)
	raw, ok = lookup(FieldDiastolic)
	in.DiastolicBP = p.integer(FieldDiastolic, raw, ok)
	in.Symptoms = normalizeSymptoms(form[FieldSymptoms])

	if err := p.err(); err != nil {
		return diagnosis.PatientInput{}, err
	}
	return in, nil
}

// Request is the JSON body accepted by the diagnostics API. Pointers tell a
// missing field apart from a zero reading.
type Request struct {
	Name        string   `json:"name"`
	Age         *int     `json:"age"`
	Temperature *float64 `json:"temperature"`
	SystolicBP  *int     `json:"sys_bp"`
	DiastolicBP *int     `json:"dia_bp"`
	Symptoms    []string `json:"symptoms"`
}

// Input applies the same rules as ParseForm to a decoded JSON request.
func (r Request) Input() (diagnosis.PatientInput, error) {
	var p parser
	in := diagnosis.PatientInput{Name: p.name(r.Name, true)}

	if r.Age == nil {
		p.fail(FieldAge, "", "is required")
	} else {
		in.Age = *r.Age
	}
	switch {
	case r.Temperature == nil:
		p.fail(FieldTemperature, "", "is required")
	case math.IsNaN(*r.Temperature) || math.IsInf(*r.Temperature, 0):
		p.fail(FieldTemperature, "", "must be a number")
	default:
		in.Temperature = *r.Temperature
	}
	if r.SystolicBP == nil {
		p.fail(FieldSystolic, "", "is required")
	} else {
		in.SystolicBP = *r.SystolicBP
	}
	if r.DiastolicBP == nil {
		p.fail(FieldDiastolic, "", "is required")
	} else {
		in.DiastolicBP = *r.DiastolicBP
	}
	in.Symptoms = normalizeSymptoms(r.Symptoms)

	if err := p.err(); err != nil {
		return diagnosis.PatientInput{}, err
	}
	return in, nil
}

// normalizeSymptoms drops blank tags and repeats, keeping first-seen order.
func normalizeSymptoms(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		tag := strings.ToLower(strings.TrimSpace(s))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
