// Package engine extracts training metrics from free-text training-run logs.
//
// A parse is a single forward pass: every line is normalized and classified,
// relevant lines move the fold/epoch context and feed the metric extractor,
// and every line updates the run summary.
package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/neurofold/internal/logtypes"
)

// Engine parses training logs. It holds only immutable classification rules;
// each Parse call builds its own state, so one Engine can serve concurrent
// callers.
type Engine struct {
	classifier *Classifier
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	rules []Rule
}

// WithRules adds custom classification rules after the built-in ones.
func WithRules(rules []Rule) Option {
	return func(o *options) {
		o.rules = append(o.rules, rules...)
	}
}

// New creates an Engine. It fails only when a custom rule does not compile.
func New(opts ...Option) (*Engine, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	c, err := NewClassifier(o.rules)
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}
	return &Engine{classifier: c}, nil
}

// Classifier returns the engine's classifier.
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// ParseReader reads r to the end and parses it.
func (e *Engine) ParseReader(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return e.Parse(string(data)), nil
}

// Parse runs the pipeline over text, one line per newline-separated segment.
// Empty text yields a result with empty, non-nil sequences.
func (e *Engine) Parse(text string) *Result {
	res := &Result{
		Lines:   []logtypes.AnnotatedLine{},
		Metrics: []logtypes.MetricRecord{},
		Dropped: []logtypes.DroppedValue{},
	}
	if text == "" {
		return res
	}

	raw := strings.Split(text, "\n")
	res.Lines = make([]logtypes.AnnotatedLine, 0, len(raw))

	var (
		tr  tracker
		x   = newExtractor()
		sum aggregator
	)

	for i, line := range raw {
		n := Normalize(line)
		relevant, rule := e.classifier.Classify(n.Message, line)

		res.Lines = append(res.Lines, logtypes.AnnotatedLine{
			Index:     i,
			Timestamp: n.Timestamp,
			LogIndex:  n.LogIndex,
			Message:   n.Message,
			Raw:       line,
			Relevant:  relevant,
			Rule:      rule,
		})
		sum.observe(n.Timestamp)

		if !relevant {
			continue
		}
		tr.update(n.Message)
		x.extract(i, n.Timestamp, tr.ctx, n.Message, &sum)
	}

	res.Metrics = x.records
	res.Dropped = x.dropped
	res.Summary = sum.summary
	return res
}
