package explore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cs-au-dk/tracesmin/oracle"
	"github.com/cs-au-dk/tracesmin/scenario"
	"github.com/cs-au-dk/tracesmin/sched"

	"gopkg.in/yaml.v2"
)

// Scenario is a named schedule of the scenario program together with the
// outcome it is expected to produce.
type Scenario struct {
	Name   string `yaml:"name"`
	Oracle string `yaml:"oracle"`
	// Schedule names the thread picked at each choice point. Choice
	// points past its end pick the lowest thread.
	Schedule []string `yaml:"schedule"`
	Expect   struct {
		Outcome string `yaml:"outcome"`
		// Violated is the site of the failed check, if any.
		Violated string `yaml:"violated,omitempty"`
	} `yaml:"expect"`
	MaxSteps int `yaml:"max_steps,omitempty"`
}

// LoadScenarios reads a YAML list of scenarios.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenarios(data)
}

func ParseScenarios(data []byte) ([]Scenario, error) {
	var scs []Scenario
	if err := yaml.UnmarshalStrict(data, &scs); err != nil {
		return nil, fmt.Errorf("parsing scenarios: %w", err)
	}
	for i, s := range scs {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario %d has no name", i)
		}
		if _, err := sched.ParseOutcome(s.Expect.Outcome); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return scs, nil
}

// Replayed is the result of replaying a Scenario.
type Replayed struct {
	Scenario *Scenario
	Result   sched.Result
	Checks   []scenario.CheckResult
	// Mismatch describes how the run deviated from the expectation. It is
	// empty when the expectation was met.
	Mismatch string
}

func (r Replayed) OK() bool { return r.Mismatch == "" }

func (r Replayed) String() string {
	status := "ok"
	if !r.OK() {
		status = "FAIL: " + r.Mismatch
	}
	return fmt.Sprintf("%s: %s (%s)", r.Scenario.Name, r.Result, status)
}

// Replay runs s on the controlled runtime and compares the outcome and the
// failed check site with the expectation.
func Replay(s *Scenario) (Replayed, error) {
	o, err := oracle.Parse(s.Oracle)
	if err != nil {
		return Replayed{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	want, err := sched.ParseOutcome(s.Expect.Outcome)
	if err != nil {
		return Replayed{}, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	res, checks := Run(o, sched.Script(s.Schedule), s.MaxSteps)
	rep := Replayed{Scenario: s, Result: res, Checks: checks}

	var mismatches []string
	if res.Outcome != want {
		mismatches = append(mismatches, fmt.Sprintf("outcome %s, expected %s", res.Outcome, want))
	}

	violated := ""
	var iv *scenario.InvariantViolated
	if errors.As(res.Err, &iv) {
		violated = string(iv.Site)
	}
	if violated != s.Expect.Violated {
		mismatches = append(mismatches, fmt.Sprintf("violated %q, expected %q", violated, s.Expect.Violated))
	}

	rep.Mismatch = strings.Join(mismatches, "; ")
	return rep, nil
}
