package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/existflow/projectdraft/internal/model"
)

// ErrMalformed is returned when a payload is not a form object at all
var ErrMalformed = errors.New("malformed form data")

type numericField struct {
	path    []string // "*" steps into every array element
	integer bool
}

var numericFields = []numericField{
	{path: []string{"step"}, integer: true},
	{path: []string{"timeline", "delayTolerance"}, integer: true},
	{path: []string{"resources", "teamSize"}, integer: true},
	{path: []string{"resources", "skillMatrix", "*", "required"}, integer: true},
	{path: []string{"resources", "skillMatrix", "*", "available"}, integer: true},
	{path: []string{"resources", "extendedEmployees", "*", "allocationLogs", "*", "allocation"}, integer: true},
	{path: []string{"requirements", "cloudCost"}},
}

// Decode reads a raw snapshot. Numeric fields holding anything other than a
// number are reported as issues and zeroed so the typed decode can proceed.
func Decode(raw []byte) (model.ProjectFormData, []Issue, error) {
	var data model.ProjectFormData

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return data, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return data, nil, fmt.Errorf("%w: expected an object", ErrMalformed)
	}

	var issues []Issue
	for _, f := range numericFields {
		issues = append(issues, coerceNumeric(root, f.path, nil, f.integer)...)
	}

	clean, err := json.Marshal(root)
	if err != nil {
		return data, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(clean, &data); err != nil {
		return data, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return data, issues, nil
}

// ValidateJSON decodes and validates a raw snapshot with the default engine
func ValidateJSON(raw []byte) (model.ProjectFormData, Result, error) {
	return defaultEngine.ValidateJSON(raw)
}

// ValidateJSON decodes raw, then runs type issues, field rules and cross-field rules
func (e *Engine) ValidateJSON(raw []byte) (model.ProjectFormData, Result, error) {
	data, typeIssues, err := Decode(raw)
	if err != nil {
		return data, Result{}, err
	}
	return data, e.run(&data, typeIssues), nil
}

func coerceNumeric(obj map[string]any, rest []string, at Path, integer bool) []Issue {
	key := rest[0]
	v, present := obj[key]
	if !present || v == nil {
		return nil
	}

	if len(rest) == 1 {
		repl, msg := checkNumber(v, integer)
		if msg == "" {
			obj[key] = repl
			return nil
		}
		delete(obj, key)
		return []Issue{{Path: at.with(key), Message: msg, Rule: "numeric"}}
	}

	// shape mismatches below are left for the typed decode to reject
	if rest[1] == "*" {
		arr, ok := v.([]any)
		if !ok {
			return nil
		}
		var out []Issue
		for i, el := range arr {
			child, ok := el.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, coerceNumeric(child, rest[2:], at.with(key, i), integer)...)
		}
		return out
	}

	child, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return coerceNumeric(child, rest[1:], at.with(key), integer)
}

// checkNumber returns the normalized value, or a message when v is unusable
func checkNumber(v any, integer bool) (any, string) {
	n, ok := v.(json.Number)
	if !ok {
		return nil, "Must be a number"
	}
	if !integer {
		if _, err := n.Float64(); err != nil {
			return nil, "Must be a number"
		}
		return n, ""
	}
	if _, err := n.Int64(); err == nil {
		return n, ""
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, "Must be a whole number"
	}
	return json.Number(strconv.FormatInt(int64(f), 10)), ""
}
