package persona

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/extremevalue/research-kit/internal/domain"
)

// Persona is the closed interface every persona kind implements: its own
// prompt template and its own typed request/response shape, validated
// generically at the Dispatch boundary rather than by a shared prompt
// string built with string concatenation.
type Persona[Req, Resp any] interface {
	Kind() Kind
	BuildRequest(strat domain.Strategy) Req
	PromptTemplate() *template.Template
	ParseResponse(raw string) (Resp, error)
}

// RawInvoker is the boundary to the actual model/agent call: given a
// rendered prompt, return raw text back.
type RawInvoker interface {
	InvokeRaw(ctx context.Context, kind Kind, prompt string) (string, error)
}

// Dispatch renders p's prompt template against strat, invokes the raw
// model boundary, and parses the response through p's own typed parser.
// This is the generic boundary function mentioned in the persona
// re-architecture: every persona gets its own request/response schema
// instead of every persona being forced through one shared shape.
func Dispatch[Req, Resp any](ctx context.Context, p Persona[Req, Resp], invoker RawInvoker, strat domain.Strategy) (Resp, error) {
	var zero Resp
	req := p.BuildRequest(strat)

	var buf bytes.Buffer
	if err := p.PromptTemplate().Execute(&buf, req); err != nil {
		return zero, fmt.Errorf("render prompt for %s: %w", p.Kind(), err)
	}

	raw, err := invoker.InvokeRaw(ctx, p.Kind(), buf.String())
	if err != nil {
		return zero, fmt.Errorf("invoke %s: %w", p.Kind(), err)
	}

	resp, err := p.ParseResponse(raw)
	if err != nil {
		return zero, fmt.Errorf("parse response from %s: %w", p.Kind(), err)
	}
	return resp, nil
}
