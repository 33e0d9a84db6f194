// Package guardrails screens visitor-supplied text before it is stored or
// placed into a generation prompt.
package guardrails

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/immuse/tourwizard/internal/apperr"
)

// DefaultMaxFieldChars bounds a single visitor field, lists joined.
const DefaultMaxFieldChars = 2000

// Result holds the outcome of a check.
type Result struct {
	Allowed bool     `json:"allowed"`
	Flags   []string `json:"flags,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Guardrail is a check applied to one piece of input.
type Guardrail interface {
	Check(ctx context.Context, text string) (*Result, error)
	Name() string
}

// Pipeline chains input guardrails. The zero value allows everything.
type Pipeline struct {
	input []Guardrail
}

func NewPipeline(guards ...Guardrail) *Pipeline {
	return &Pipeline{input: guards}
}

func (p *Pipeline) AddInputGuardrail(g Guardrail) {
	p.input = append(p.input, g)
}

// Default rejects overlong fields and recognisable prompt injection.
func Default(maxFieldChars int) *Pipeline {
	if maxFieldChars <= 0 {
		maxFieldChars = DefaultMaxFieldChars
	}
	return NewPipeline(
		NewInputLengthGuard(maxFieldChars),
		NewPromptInjectionDetector(),
	)
}

// CheckInput runs every input guardrail; the first rejection sets Reason.
func (p *Pipeline) CheckInput(ctx context.Context, text string) (*Result, error) {
	combined := &Result{Allowed: true}
	for _, g := range p.input {
		res, err := g.Check(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("guardrail %s: %w", g.Name(), err)
		}
		if !res.Allowed && combined.Allowed {
			combined.Allowed = false
			combined.Reason = res.Reason
		}
		combined.Flags = append(combined.Flags, res.Flags...)
	}
	return combined, nil
}

// Field is one named piece of visitor input.
type Field struct {
	Name string
	Text string
}

// Screen checks each field and reports rejections as field errors.
// Empty fields are skipped.
func (p *Pipeline) Screen(ctx context.Context, fields ...Field) ([]apperr.FieldError, error) {
	var problems []apperr.FieldError
	for _, f := range fields {
		if f.Text == "" {
			continue
		}
		res, err := p.CheckInput(ctx, f.Text)
		if err != nil {
			return nil, err
		}
		if !res.Allowed {
			problems = append(problems, apperr.FieldError{Field: f.Name, Message: res.Reason})
		}
	}
	return problems, nil
}

// Validate is Screen with the rejections wrapped as a validation error.
func (p *Pipeline) Validate(ctx context.Context, msg string, fields ...Field) error {
	problems, err := p.Screen(ctx, fields...)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return apperr.Validation(msg, problems...)
	}
	return nil
}

// InputLengthGuard rejects inputs longer than a number of characters.
type InputLengthGuard struct {
	maxLength int
}

func NewInputLengthGuard(maxLen int) *InputLengthGuard {
	return &InputLengthGuard{maxLength: maxLen}
}

func (g *InputLengthGuard) Name() string { return "input_length" }

func (g *InputLengthGuard) Check(_ context.Context, text string) (*Result, error) {
	if utf8.RuneCountInString(text) > g.maxLength {
		return &Result{
			Allowed: false,
			Reason:  fmt.Sprintf("must not exceed %d characters", g.maxLength),
			Flags:   []string{"input_too_long"},
		}, nil
	}
	return &Result{Allowed: true}, nil
}
