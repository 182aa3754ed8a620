package engine

import "context"

// Pipeline threads a text through engines in order.
//
// Each stage receives the previous stage's output. A fatal result from a
// stage is handed to the next stage as ordinary text; the pipeline itself
// never stops early except on a run error.
type Pipeline struct {
	stages []*Engine
}

// NewPipeline creates a pipeline over stages.
func NewPipeline(stages ...*Engine) *Pipeline {
	return &Pipeline{stages: append([]*Engine(nil), stages...)}
}

// Stages returns a copy of the stage list.
func (p *Pipeline) Stages() []*Engine {
	return append([]*Engine(nil), p.stages...)
}

// Execute runs every stage and returns the final text.
func (p *Pipeline) Execute(ctx context.Context, text string) (string, error) {
	res, err := p.Evaluate(ctx, text)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Evaluate runs every stage and returns the final text with a kind.
//
// Kind is KindFatal if the last stage to report anything other than
// unchanged reported a fatal condition, KindChanged if the final text
// differs from the input and KindUnchanged otherwise. The text is always
// the last stage's output.
func (p *Pipeline) Evaluate(ctx context.Context, text string) (Result, error) {
	current := text
	fatal := false
	for _, stage := range p.stages {
		res, err := stage.Evaluate(ctx, current)
		if err != nil {
			return Result{}, err
		}
		switch res.Kind {
		case KindFatal:
			fatal = true
		case KindChanged:
			fatal = false
		}
		current = res.Text
	}

	switch {
	case fatal:
		return Result{Kind: KindFatal, Text: current}, nil
	case current != text:
		return Result{Kind: KindChanged, Text: current}, nil
	default:
		return Result{Kind: KindUnchanged, Text: current}, nil
	}
}
