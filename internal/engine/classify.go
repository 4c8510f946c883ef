package engine

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Group decides what a matching rule means for a line.
type Group string

const (
	GroupNoise    Group = "noise"
	GroupRelevant Group = "relevant"
)

// Target selects which text a rule is matched against.
type Target string

const (
	TargetMessage Target = "message"
	TargetRaw     Target = "raw"
)

// Rule is a named classification pattern.
type Rule struct {
	Name    string `yaml:"name"`
	Group   Group  `yaml:"group"`
	Target  Target `yaml:"target"`
	Pattern string `yaml:"pattern"`
	re      *regexp.Regexp
}

var builtinRules = []Rule{
	{Name: "progress_bar", Group: GroupNoise, Pattern: `━`},
	{Name: "debugger_warning", Group: GroupNoise, Pattern: `Debugger warning`},
	{Name: "pip_dependency", Group: GroupNoise, Pattern: `pip's dependency`},
	{Name: "device_banner", Group: GroupNoise, Pattern: `Using device`},
	{Name: "notice", Group: GroupNoise, Pattern: `Note:`},
	{Name: "cursor_control", Group: GroupNoise, Target: TargetRaw, Pattern: `\[\?25`},

	{Name: "fold_header", Group: GroupRelevant, Pattern: `Fold \d+`},
	{Name: "step_metric", Group: GroupRelevant, Pattern: `Fold \d+ \| Epoch \d+ \| Step`},
	{Name: "epoch_summary", Group: GroupRelevant, Pattern: `Train loss:|Val loss:|Val F1|Best F1|OOF`},
	{Name: "artifact_saved", Group: GroupRelevant, Pattern: `Saved submission`},
}

// Classifier evaluates noise rules before relevance rules, first match wins.
// It is read-only after construction and safe for concurrent use.
type Classifier struct {
	noise    []Rule
	relevant []Rule
}

// NewClassifier creates a Classifier with the built-in rules followed by
// extra rules, each appended to the end of its group.
func NewClassifier(extra []Rule) (*Classifier, error) {
	all := make([]Rule, 0, len(builtinRules)+len(extra))
	all = append(all, builtinRules...)
	all = append(all, extra...)

	compiled, err := compileRules(all)
	if err != nil {
		return nil, err
	}

	c := &Classifier{}
	for _, r := range compiled {
		if r.Group == GroupNoise {
			c.noise = append(c.noise, r)
		} else {
			c.relevant = append(c.relevant, r)
		}
	}
	return c, nil
}

// LoadRules reads custom rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if _, err := compileRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Classify reports whether a line is relevant and which rule decided it.
// The rule is empty when nothing matched.
func (c *Classifier) Classify(message, raw string) (bool, string) {
	for _, r := range c.noise {
		if r.match(message, raw) {
			return false, r.Name
		}
	}
	for _, r := range c.relevant {
		if r.match(message, raw) {
			return true, r.Name
		}
	}
	return false, ""
}

// RuleNames returns rule names in evaluation order.
func (c *Classifier) RuleNames() []string {
	names := make([]string, 0, len(c.noise)+len(c.relevant))
	for _, r := range c.noise {
		names = append(names, r.Name)
	}
	for _, r := range c.relevant {
		names = append(names, r.Name)
	}
	return names
}

func (r Rule) match(message, raw string) bool {
	if r.Target == TargetRaw {
		return r.re.MatchString(raw)
	}
	return r.re.MatchString(message)
}

func compileRules(rules []Rule) ([]Rule, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		switch r.Group {
		case GroupNoise, GroupRelevant:
		default:
			return nil, fmt.Errorf("rule %s: unknown group %q", r.Name, r.Group)
		}
		switch r.Target {
		case "":
			r.Target = TargetMessage
		case TargetMessage, TargetRaw:
		default:
			return nil, fmt.Errorf("rule %s: unknown target %q", r.Name, r.Target)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.Name, err)
		}
		r.re = re
		compiled[i] = r
	}
	return compiled, nil
}
