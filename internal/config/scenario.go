package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/optibench/internal/modules/algorithms"
	"github.com/aristath/optibench/internal/modules/problems"
	"github.com/aristath/optibench/internal/modules/profiles"
	"github.com/aristath/optibench/internal/modules/results"
)

// Scenario describes a full benchmarking campaign: the algorithm
// configurations to compare, the reference problems, the problem groups the
// report is organized by, and the report options.
type Scenario struct {
	Name       string              `yaml:"name"`
	Algorithms []ScenarioAlgorithm `yaml:"algorithms"`
	Problems   []ScenarioProblem   `yaml:"problems"`
	Groups     []ScenarioGroup     `yaml:"groups"`
	Report     ScenarioReport      `yaml:"report"`
	Schedule   string              `yaml:"schedule"` // Optional cron expression
}

// ScenarioAlgorithm is one algorithm configuration of a scenario.
type ScenarioAlgorithm struct {
	Algorithm string         `yaml:"algorithm"`
	Name      string         `yaml:"name"`
	Options   map[string]any `yaml:"options"`
}

// ScenarioProblem is one reference problem of a scenario. Target values come
// either inline or from a history file.
type ScenarioProblem struct {
	Name           string      `yaml:"name"`
	Description    string      `yaml:"description"`
	Dimension      int         `yaml:"dimension"`
	StartingPoints [][]float64 `yaml:"starting_points"`
	Optimum        *float64    `yaml:"optimum"`
	Constraints    []string    `yaml:"constraints"`
	TargetValues   []float64   `yaml:"target_values"`
	TargetsFile    string      `yaml:"targets_file"`
}

// ScenarioGroup names a subset of the scenario's problems.
type ScenarioGroup struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Problems    []string `yaml:"problems"`
}

// ScenarioReport holds the report options of a scenario.
type ScenarioReport struct {
	InfeasibilityTolerance float64 `yaml:"infeasibility_tolerance"`
	MaxEvaluations         int     `yaml:"max_evaluations"`
	CustomAlgosDescription string  `yaml:"custom_algos_description"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario file %s: %w", path, err)
	}

	return &scenario, nil
}

// Validate checks the scenario for structural errors.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("the scenario must have a name")
	}
	if len(s.Algorithms) == 0 {
		return fmt.Errorf("the scenario must define at least one algorithm configuration")
	}
	if len(s.Problems) == 0 {
		return fmt.Errorf("the scenario must define at least one problem")
	}

	for _, algorithm := range s.Algorithms {
		if algorithm.Algorithm == "" {
			return fmt.Errorf("every algorithm configuration must name its algorithm")
		}
	}

	problemNames := make(map[string]bool, len(s.Problems))
	for _, problem := range s.Problems {
		if problem.Name == "" {
			return fmt.Errorf("every problem must have a name")
		}
		if problemNames[problem.Name] {
			return fmt.Errorf("duplicate problem name: %s", problem.Name)
		}
		problemNames[problem.Name] = true
		if len(problem.TargetValues) > 0 && problem.TargetsFile != "" {
			return fmt.Errorf(
				"problem %s defines both inline target values and a targets file", problem.Name,
			)
		}
	}

	for _, group := range s.Groups {
		if group.Name == "" {
			return fmt.Errorf("every problem group must have a name")
		}
		for _, name := range group.Problems {
			if !problemNames[name] {
				return fmt.Errorf("group %s references unknown problem %s", group.Name, name)
			}
		}
	}

	return nil
}

// Configurations builds the algorithm configurations of the scenario.
func (s *Scenario) Configurations() (*algorithms.Configurations, error) {
	configurations, err := algorithms.NewConfigurations()
	if err != nil {
		return nil, err
	}
	for _, algorithm := range s.Algorithms {
		configuration := algorithms.NewConfiguration(
			algorithm.Algorithm, algorithm.Name, algorithm.Options,
		)
		if err := configurations.Add(configuration); err != nil {
			return nil, err
		}
	}
	return configurations, nil
}

// BuildProblems builds the reference problems of the scenario, loading target
// values from files where required.
func (s *Scenario) BuildProblems() ([]*problems.Problem, error) {
	built := make([]*problems.Problem, 0, len(s.Problems))
	for _, definition := range s.Problems {
		problem, err := definition.build()
		if err != nil {
			return nil, err
		}
		built = append(built, problem)
	}
	return built, nil
}

func (d *ScenarioProblem) build() (*problems.Problem, error) {
	problem, err := problems.New(d.Name, d.Dimension, d.StartingPoints)
	if err != nil {
		return nil, fmt.Errorf("invalid problem %s: %w", d.Name, err)
	}
	if d.Description != "" {
		problem.Description = d.Description
	}
	if d.Optimum != nil {
		problem.Optimum = *d.Optimum
	}
	problem.ConstraintsNames = d.Constraints

	switch {
	case d.TargetsFile != "":
		targets, err := profiles.TargetValuesFromFile(d.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load targets of problem %s: %w", d.Name, err)
		}
		problem.SetTargetValues(targets)
	case len(d.TargetValues) > 0:
		items := make([]results.HistoryItem, len(d.TargetValues))
		for i, value := range d.TargetValues {
			item, err := results.NewHistoryItem(value, 0)
			if err != nil {
				return nil, fmt.Errorf("invalid target of problem %s: %w", d.Name, err)
			}
			items[i] = item
		}
		problem.SetTargetValues(profiles.NewTargetValues(items...))
	}

	return problem, nil
}

// BuildGroups builds the problem groups of the scenario. When the scenario
// defines no groups, a single group holding every problem is returned.
func (s *Scenario) BuildGroups(built []*problems.Problem) ([]*problems.Group, error) {
	byName := make(map[string]*problems.Problem, len(built))
	for _, problem := range built {
		byName[problem.Name] = problem
	}

	if len(s.Groups) == 0 {
		return []*problems.Group{problems.NewGroup(s.Name, "", built...)}, nil
	}

	groups := make([]*problems.Group, 0, len(s.Groups))
	for _, definition := range s.Groups {
		members := make([]*problems.Problem, 0, len(definition.Problems))
		for _, name := range definition.Problems {
			problem, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf(
					"group %s references unknown problem %s", definition.Name, name,
				)
			}
			members = append(members, problem)
		}
		groups = append(groups, problems.NewGroup(definition.Name, definition.Description, members...))
	}
	return groups, nil
}
