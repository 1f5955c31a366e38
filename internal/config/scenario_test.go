package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: smoke
algorithms:
  - algorithm: SLSQP
    name: SLSQP
  - algorithm: COBYLA
    name: COBYLA tuned
    options:
      max_iter: 100
problems:
  - name: Rosenbrock
    description: The valley-shaped classic.
    dimension: 2
    starting_points:
      - [0.0, 0.0]
      - [1.0, 2.0]
    optimum: 0.0
    target_values: [10.0, 1.0, 0.1]
  - name: Rastrigin
    dimension: 2
    starting_points:
      - [0.5, 0.5]
groups:
  - name: Unconstrained
    description: Smooth unconstrained problems.
    problems: [Rosenbrock, Rastrigin]
report:
  infeasibility_tolerance: 0.01
  max_evaluations: 50
schedule: "0 0 3 * * *"
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "smoke", scenario.Name)
	assert.Len(t, scenario.Algorithms, 2)
	assert.Equal(t, "COBYLA tuned", scenario.Algorithms[1].Name)
	assert.Equal(t, 100, scenario.Algorithms[1].Options["max_iter"])
	assert.InDelta(t, 0.01, scenario.Report.InfeasibilityTolerance, 1e-12)
	assert.Equal(t, 50, scenario.Report.MaxEvaluations)
	assert.Equal(t, "0 0 3 * * *", scenario.Schedule)
}

func TestScenarioConfigurations(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	configurations, err := scenario.Configurations()
	require.NoError(t, err)
	assert.Equal(t, []string{"COBYLA tuned", "SLSQP"}, configurations.Names())
	assert.Equal(t, []string{"COBYLA", "SLSQP"}, configurations.Algorithms())
}

func TestScenarioBuildProblems(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	built, err := scenario.BuildProblems()
	require.NoError(t, err)
	require.Len(t, built, 2)

	rosenbrock := built[0]
	assert.Equal(t, "Rosenbrock", rosenbrock.Name)
	assert.Equal(t, "The valley-shaped classic.", rosenbrock.Description)
	assert.Equal(t, 2, rosenbrock.InstancesNumber())

	targets, err := rosenbrock.TargetValues()
	require.NoError(t, err)
	assert.Equal(t, 3, targets.Len())

	rastrigin := built[1]
	assert.Equal(t, "No description available.", rastrigin.Description)
	_, err = rastrigin.TargetValues()
	require.Error(t, err)
}

func TestScenarioBuildGroups(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	built, err := scenario.BuildProblems()
	require.NoError(t, err)

	groups, err := scenario.BuildGroups(built)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Unconstrained", groups[0].Name)
	assert.Len(t, groups[0].Problems(), 2)
}

func TestScenarioDefaultGroupHoldsEveryProblem(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, `
name: grouped
algorithms:
  - algorithm: SLSQP
problems:
  - name: Sphere
    dimension: 1
    starting_points: [[0.0]]
`))
	require.NoError(t, err)

	built, err := scenario.BuildProblems()
	require.NoError(t, err)
	groups, err := scenario.BuildGroups(built)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "grouped", groups[0].Name)
}

func TestScenarioValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		message string
	}{
		{
			name:    "missing name",
			content: "algorithms: [{algorithm: SLSQP}]\nproblems: [{name: S, dimension: 1, starting_points: [[0.0]]}]",
			message: "must have a name",
		},
		{
			name:    "no algorithms",
			content: "name: s\nproblems: [{name: S, dimension: 1, starting_points: [[0.0]]}]",
			message: "at least one algorithm",
		},
		{
			name:    "no problems",
			content: "name: s\nalgorithms: [{algorithm: SLSQP}]",
			message: "at least one problem",
		},
		{
			name: "duplicate problems",
			content: "name: s\nalgorithms: [{algorithm: SLSQP}]\n" +
				"problems: [{name: S, dimension: 1, starting_points: [[0.0]]}, {name: S, dimension: 1, starting_points: [[0.0]]}]",
			message: "duplicate problem name",
		},
		{
			name: "unknown group member",
			content: "name: s\nalgorithms: [{algorithm: SLSQP}]\n" +
				"problems: [{name: S, dimension: 1, starting_points: [[0.0]]}]\n" +
				"groups: [{name: G, problems: [T]}]",
			message: "unknown problem T",
		},
		{
			name: "conflicting targets",
			content: "name: s\nalgorithms: [{algorithm: SLSQP}]\n" +
				"problems: [{name: S, dimension: 1, starting_points: [[0.0]], target_values: [1.0], targets_file: t.json}]",
			message: "both inline target values and a targets file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
