package site

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageDiscover StageName = "discover"
	StageParse    StageName = "parse"
	StageRender   StageName = "render"
	StageIndex    StageName = "index"
	StageWrite    StageName = "write"
)

// StageErrorKind classifies the outcome of a failed stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and its kind.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a stage error that aborts the build.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

// NewWarnStageError creates a stage error recorded without aborting.
func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

// NewCanceledStageError creates a stage error for context cancellation.
func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 8)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
