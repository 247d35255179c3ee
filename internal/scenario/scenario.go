// Package scenario replays token operations against a deployed suite and
// checks their effect on contract views.
package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScenario []byte

// ErrExpectationFailed is returned when a step fails its expectations.
var ErrExpectationFailed = errors.New("expectation failed")

// Scenario is a named list of steps.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one transaction (or identity deployment) with the views to check.
type Step struct {
	Name     string `yaml:"name"`
	Contract string `yaml:"contract,omitempty"` // default: token
	Call     string `yaml:"call,omitempty"`
	As       string `yaml:"as,omitempty"` // default: deployer
	Args     Args   `yaml:"args,omitempty"`

	DeployIdentity *DeployIdentity `yaml:"deploy_identity,omitempty"`

	Watch        []View        `yaml:"watch,omitempty"`
	Expect       []Expectation `yaml:"expect,omitempty"`
	ExpectRevert bool          `yaml:"expect_revert,omitempty"`
}

// DeployIdentity deploys an identity proxy with Owner as management key and
// saves its address as $Save.
type DeployIdentity struct {
	Owner string `yaml:"owner"`
	Save  string `yaml:"save"`
}

// View is a read-only call whose value is snapshotted around a step.
type View struct {
	Contract string `yaml:"contract,omitempty"` // default: token
	View     string `yaml:"view"`
	Of       Args   `yaml:"of,omitempty"`
}

// Expectation checks a view after the step: its value (Equals) or its
// difference from before the step (Change, e.g. "-500").
type Expectation struct {
	View   `yaml:",inline"`
	Equals interface{} `yaml:"equals,omitempty"`
	Change string      `yaml:"change,omitempty"`
}

// Args accepts a single scalar or a list in YAML.
type Args []interface{}

func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var list []interface{}
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = list
		return nil
	}
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	*a = Args{v}
	return nil
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded scenario covering every token operation.
func Default() (*Scenario, error) {
	return Parse(defaultScenario)
}

func (sc *Scenario) validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i := range sc.Steps {
		st := &sc.Steps[i]
		if st.Name == "" {
			st.Name = fmt.Sprintf("step %d", i+1)
		}
		switch {
		case st.Call == "" && st.DeployIdentity == nil:
			return fmt.Errorf("%s: needs call or deploy_identity", st.Name)
		case st.Call != "" && st.DeployIdentity != nil:
			return fmt.Errorf("%s: call and deploy_identity are exclusive", st.Name)
		case st.DeployIdentity != nil && (st.DeployIdentity.Owner == "" || st.DeployIdentity.Save == ""):
			return fmt.Errorf("%s: deploy_identity needs owner and save", st.Name)
		}
		for _, e := range st.Expect {
			if e.View.View == "" {
				return fmt.Errorf("%s: expectation without view", st.Name)
			}
			if (e.Equals == nil) == (e.Change == "") {
				return fmt.Errorf("%s: %s: set exactly one of equals and change", st.Name, e.View.View)
			}
		}
		for _, w := range st.Watch {
			if w.View == "" {
				return fmt.Errorf("%s: watch without view", st.Name)
			}
		}
	}
	return nil
}

// Describe renders the step as contract.call(args) as signer.
func (st *Step) Describe() string {
	as := st.As
	if as == "" {
		as = "deployer"
	}
	if st.DeployIdentity != nil {
		return fmt.Sprintf("deploy identity(owner=%s) -> $%s as %s", st.DeployIdentity.Owner, st.DeployIdentity.Save, as)
	}
	return fmt.Sprintf("%s.%s(%s) as %s", contractOrToken(st.Contract), st.Call, formatArgs(st.Args), as)
}

// Label renders the view as contract.view(of).
func (v View) Label() string {
	return fmt.Sprintf("%s.%s(%s)", contractOrToken(v.Contract), v.View, formatArgs(v.Of))
}

func contractOrToken(name string) string {
	if name == "" {
		return "token"
	}
	return name
}

func formatArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if list, ok := a.([]interface{}); ok {
			parts[i] = "[" + formatArgs(list) + "]"
			continue
		}
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ", ")
}
