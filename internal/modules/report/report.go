package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/optibench/internal/modules/algorithms"
	"github.com/aristath/optibench/internal/modules/problems"
	"github.com/aristath/optibench/internal/modules/results"
	"github.com/aristath/optibench/internal/utils"
)

// Config holds the inputs of a benchmarking report.
type Config struct {
	// RootDir is the directory the report tree is generated into.
	RootDir string
	// Configurations are the compared algorithm configurations.
	Configurations *algorithms.Configurations
	// Groups are the groups of reference problems.
	Groups []*problems.Group
	// Index records the history files of every configuration and problem.
	Index *results.Index
	// Loader reads history files; defaults to uncached loading.
	Loader problems.HistoryLoader
	// CustomDescriptions overrides the algorithm descriptions of the
	// algorithms page, keyed by algorithm name.
	CustomDescriptions map[string]string
	// InfeasibilityTolerance and MaxEvaluations tune the data profiles.
	InfeasibilityTolerance float64
	MaxEvaluations         int

	Log zerolog.Logger
}

// Report generates the benchmarking report tree: reStructuredText pages
// rendered from embedded templates, figures plotted from the recorded
// histories, and the Sphinx configuration.
type Report struct {
	cfg Config
	log zerolog.Logger
}

// New validates the report inputs. Every configuration must have recorded
// histories, and have them for every problem of every group.
func New(cfg Config) (*Report, error) {
	if cfg.RootDir == "" {
		return nil, fmt.Errorf("the report must have a root directory")
	}
	if cfg.Configurations == nil || cfg.Configurations.Len() == 0 {
		return nil, fmt.Errorf("the report must compare at least one algorithm configuration")
	}
	if len(cfg.Groups) == 0 {
		return nil, fmt.Errorf("the report must cover at least one group of problems")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("the report must have a results index")
	}
	if cfg.Loader == nil {
		cfg.Loader = problems.LoadHistoryFile{}
	}

	indexed := make(map[string]bool)
	for _, name := range cfg.Index.Configurations() {
		indexed[name] = true
	}
	for _, name := range cfg.Configurations.Names() {
		if !indexed[name] {
			return nil, fmt.Errorf("missing histories for algorithm configuration %q", name)
		}
		covered := make(map[string]bool)
		problemNames, err := cfg.Index.Problems(name)
		if err != nil {
			return nil, err
		}
		for _, problemName := range problemNames {
			covered[problemName] = true
		}
		var missing []string
		seen := make(map[string]bool)
		for _, group := range cfg.Groups {
			for _, problem := range group.Problems() {
				if !covered[problem.Name] && !seen[problem.Name] {
					missing = append(missing, fmt.Sprintf("%q", problem.Name))
					seen[problem.Name] = true
				}
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf(
				"missing histories for algorithm configuration %q on problems: %s",
				name, strings.Join(missing, ", "),
			)
		}
	}

	return &Report{
		cfg: cfg,
		log: cfg.Log.With().Str("component", "report").Logger(),
	}, nil
}

// Generate writes the full report tree under the root directory.
func (r *Report) Generate() error {
	defer utils.OperationTimer("generate_report", r.log)()

	if err := r.createTree(); err != nil {
		return err
	}
	if err := r.writeAlgorithmsPage(); err != nil {
		return err
	}
	if err := r.writeProblemsPages(); err != nil {
		return err
	}
	groupDocuments, err := r.writeGroupsPages()
	if err != nil {
		return err
	}
	if err := renderPage(
		filepath.Join(r.cfg.RootDir, "problems_groups.rst"),
		"problems_groups.rst",
		indexContext{Documents: groupDocuments},
	); err != nil {
		return err
	}
	if err := renderPage(
		filepath.Join(r.cfg.RootDir, "index.rst"),
		"index.rst",
		indexContext{Documents: []string{
			"algorithms.rst", "problems_list.rst", "problems_groups.rst",
		}},
	); err != nil {
		return err
	}

	r.log.Info().Str("root", r.cfg.RootDir).Msg("Report generated")
	return nil
}

func (r *Report) createTree() error {
	for _, dir := range []string{
		"", "_static", "_build", "images", "groups", "problems",
	} {
		if err := os.MkdirAll(filepath.Join(r.cfg.RootDir, dir), 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return writeConf(r.cfg.RootDir)
}

func (r *Report) writeAlgorithmsPage() error {
	var descriptions []algorithmDescription
	for _, name := range r.cfg.Configurations.Names() {
		description := "N/A"
		if custom, ok := r.cfg.CustomDescriptions[name]; ok {
			description = custom
		}
		descriptions = append(descriptions, algorithmDescription{
			Name:        name,
			Description: description,
		})
	}
	return renderPage(
		filepath.Join(r.cfg.RootDir, "algorithms.rst"),
		"algorithms.rst",
		algorithmsContext{Algorithms: descriptions},
	)
}

// allProblems returns the distinct problems of every group, sorted by name
// case-insensitively.
func (r *Report) allProblems() []*problems.Problem {
	var all []*problems.Problem
	seen := make(map[string]bool)
	for _, group := range r.cfg.Groups {
		for _, problem := range group.Problems() {
			if !seen[problem.Name] {
				all = append(all, problem)
				seen[problem.Name] = true
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all
}

func (r *Report) writeProblemsPages() error {
	var pagePaths []string
	for _, problem := range r.allProblems() {
		targets, err := problem.TargetValues()
		if err != nil {
			return err
		}
		targetValues := make([]string, 0, targets.Len())
		for _, value := range targets.ObjectiveValues() {
			targetValues = append(targetValues, fmt.Sprintf("%.6g", value))
		}

		relPath := filepath.Join("problems", utils.JoinSubstrings(problem.Name)+".rst")
		if err := renderPage(
			filepath.Join(r.cfg.RootDir, relPath),
			"problem.rst",
			problemContext{
				Name:         problem.Name,
				Description:  problem.Description,
				Optimum:      fmt.Sprintf("%.6g", problem.Optimum),
				TargetValues: targetValues,
			},
		); err != nil {
			return err
		}
		pagePaths = append(pagePaths, filepath.ToSlash(relPath))
	}
	return renderPage(
		filepath.Join(r.cfg.RootDir, "problems_list.rst"),
		"problems_list.rst",
		problemsListContext{ProblemsPaths: pagePaths},
	)
}

func (r *Report) writeGroupsPages() ([]string, error) {
	var documents []string
	for _, group := range r.cfg.Groups {
		document, err := r.writeGroupPage(group)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, nil
}

func (r *Report) writeGroupPage(group *problems.Group) (string, error) {
	groupImages := filepath.Join("images", utils.JoinSubstrings(group.Name))
	if err := os.MkdirAll(filepath.Join(r.cfg.RootDir, groupImages), 0755); err != nil {
		return "", fmt.Errorf("failed to create group images directory: %w", err)
	}

	groupProfile := filepath.ToSlash(filepath.Join(groupImages, figureDataProfile))
	if err := r.plotGroupDataProfile(group, filepath.Join(r.cfg.RootDir, groupProfile)); err != nil {
		return "", err
	}

	var problemSections []groupProblemContext
	for _, problem := range group.Problems() {
		section, err := r.writeProblemResults(group, problem, groupImages)
		if err != nil {
			return "", err
		}
		problemSections = append(problemSections, section)
	}

	relPath := filepath.Join("groups", utils.JoinSubstrings(group.Name)+".rst")
	if err := renderPage(
		filepath.Join(r.cfg.RootDir, relPath),
		"group.rst",
		groupContext{
			Name:        group.Name,
			Description: group.Description,
			DataProfile: groupProfile,
			Problems:    problemSections,
		},
	); err != nil {
		return "", err
	}
	return filepath.ToSlash(relPath), nil
}

func (r *Report) plotGroupDataProfile(group *problems.Group, path string) error {
	profiles, err := group.DataProfiles(
		r.cfg.Configurations, r.cfg.Index, r.cfg.Loader, r.dataProfileOptions(),
	)
	if err != nil {
		return err
	}
	return plotDataProfile(path, r.sortedSeries(profiles))
}

func (r *Report) dataProfileOptions() problems.DataProfileOptions {
	return problems.DataProfileOptions{
		InfeasibilityTolerance: r.cfg.InfeasibilityTolerance,
		MaxEvaluations:         r.cfg.MaxEvaluations,
	}
}

func (r *Report) sortedSeries(profiles map[string][]float64) []namedSeries {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	series := make([]namedSeries, 0, len(names))
	for _, name := range names {
		series = append(series, namedSeries{Name: name, Values: profiles[name]})
	}
	return series
}

// writeProblemResults plots the figures of one problem of a group and writes
// the per-configuration results pages.
func (r *Report) writeProblemResults(
	group *problems.Group, problem *problems.Problem, groupImages string,
) (groupProblemContext, error) {
	problemImages := filepath.Join(groupImages, utils.JoinSubstrings(problem.Name))
	if err := os.MkdirAll(filepath.Join(r.cfg.RootDir, problemImages), 0755); err != nil {
		return groupProblemContext{}, fmt.Errorf("failed to create problem images directory: %w", err)
	}

	// Per-problem data profile.
	problemProfile := filepath.ToSlash(filepath.Join(problemImages, figureDataProfile))
	singleton := problems.NewGroup(problem.Name, "", problem)
	if err := r.plotGroupDataProfile(singleton, filepath.Join(r.cfg.RootDir, problemProfile)); err != nil {
		return groupProblemContext{}, err
	}

	collections, err := r.loadCollections(problem)
	if err != nil {
		return groupProblemContext{}, err
	}

	historiesPath := filepath.ToSlash(filepath.Join(problemImages, figureHistories))
	if err := r.plotRawHistories(problem, filepath.Join(r.cfg.RootDir, historiesPath)); err != nil {
		return groupProblemContext{}, err
	}

	executionTimePath := filepath.ToSlash(filepath.Join(problemImages, figureExecutionTime))
	if err := r.plotExecutionTimes(problem, filepath.Join(r.cfg.RootDir, executionTimePath)); err != nil {
		return groupProblemContext{}, err
	}

	targets, err := problem.TargetValues()
	if err != nil {
		return groupProblemContext{}, err
	}
	targetObjectives := targets.ObjectiveValues()
	focusMin, focusMax := r.focusLimits(collections, targets.FeasibleObjectiveValues())

	// Problem-level range figures over every configuration.
	ranges, err := r.performanceRanges(collections)
	if err != nil {
		return groupProblemContext{}, err
	}
	if err := plotRanges(
		filepath.Join(r.cfg.RootDir, problemImages, figurePerformance),
		"Performance measure", ranges, targetObjectives,
	); err != nil {
		return groupProblemContext{}, err
	}
	if err := plotRangesFocus(
		filepath.Join(r.cfg.RootDir, problemImages, figurePerformanceFocus),
		"Performance measure", ranges, targetObjectives, focusMin, focusMax,
	); err != nil {
		return groupProblemContext{}, err
	}

	// Per-configuration pages.
	var resultPages []string
	groupDocs := filepath.Join("groups", utils.JoinSubstrings(group.Name), utils.JoinSubstrings(problem.Name))
	if err := os.MkdirAll(filepath.Join(r.cfg.RootDir, groupDocs), 0755); err != nil {
		return groupProblemContext{}, fmt.Errorf("failed to create group pages directory: %w", err)
	}
	for _, name := range r.cfg.Configurations.Names() {
		page, err := r.writeConfigurationResults(
			name, problem, collections[name],
			problemImages, groupDocs, executionTimePath,
			targetObjectives, focusMin, focusMax,
		)
		if err != nil {
			return groupProblemContext{}, err
		}
		// Paths in the group toctree are relative to the groups directory.
		relative, err := filepath.Rel(filepath.Join(r.cfg.RootDir, "groups"), filepath.Join(r.cfg.RootDir, page))
		if err != nil {
			return groupProblemContext{}, err
		}
		resultPages = append(resultPages, filepath.ToSlash(relative))
	}

	return groupProblemContext{
		Name: problem.Name,
		Figures: map[string]string{
			"data_profile": problemProfile,
			"histories":    historiesPath,
		},
		Results: resultPages,
	}, nil
}

// loadCollections gathers the cumulated-minimum histories of every
// configuration on a problem.
func (r *Report) loadCollections(
	problem *problems.Problem,
) (map[string]*results.PerformanceHistories, error) {
	collections := make(map[string]*results.PerformanceHistories)
	for _, name := range r.cfg.Configurations.Names() {
		paths, err := r.cfg.Index.Paths(name, problem.Name)
		if err != nil {
			return nil, err
		}
		collection := &results.PerformanceHistories{ProblemName: problem.Name}
		for _, path := range paths {
			history, err := r.cfg.Loader.History(path)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to load the history of %q on %q: %w", name, problem.Name, err,
				)
			}
			if r.cfg.MaxEvaluations > 0 {
				history = history.Shorten(r.cfg.MaxEvaluations)
			}
			if history.ProblemName == "" {
				history.ProblemName = problem.Name
			}
			if err := collection.Add(history); err != nil {
				return nil, err
			}
		}
		cumulated, err := collection.CumulatedMinimum()
		if err != nil {
			return nil, err
		}
		collections[name] = cumulated
	}
	return collections, nil
}

func (r *Report) performanceRanges(
	collections map[string]*results.PerformanceHistories,
) ([]namedRange, error) {
	return r.statisticRanges(collections, performanceValues)
}

func (r *Report) statisticRanges(
	collections map[string]*results.PerformanceHistories,
	values func(*results.PerformanceHistory) []float64,
) ([]namedRange, error) {
	ranges := make([]namedRange, 0, len(collections))
	for _, name := range r.cfg.Configurations.Names() {
		collection := collections[name]
		median, err := collection.MedianHistory(false)
		if err != nil {
			return nil, err
		}
		minimum, err := collection.MinimumHistory()
		if err != nil {
			return nil, err
		}
		maximum, err := collection.MaximumHistory()
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, namedRange{
			Name:   name,
			Median: values(median),
			Min:    values(minimum),
			Max:    values(maximum),
		})
	}
	return ranges, nil
}

// performanceValues maps a history to its performance measures, hiding
// infeasible items from the performance axis.
func performanceValues(history *results.PerformanceHistory) []float64 {
	values := make([]float64, history.Len())
	for i, item := range history.Items {
		if item.IsFeasible() {
			values[i] = item.PerformanceMeasure
		} else {
			values[i] = math.NaN()
		}
	}
	return values
}

// infeasibilityValues maps a history to its infeasibility measures. Infinite
// measures are hidden: they stand for failed evaluations.
func infeasibilityValues(history *results.PerformanceHistory) []float64 {
	values := make([]float64, history.Len())
	for i, item := range history.Items {
		if math.IsInf(item.InfeasibilityMeasure, 0) {
			values[i] = math.NaN()
		} else {
			values[i] = item.InfeasibilityMeasure
		}
	}
	return values
}

// unsatisfiedConstraintsValues maps a history to its numbers of unsatisfied
// constraints, hiding unknown counts.
func unsatisfiedConstraintsValues(history *results.PerformanceHistory) []float64 {
	values := make([]float64, history.Len())
	for i, item := range history.Items {
		if item.UnsatisfiedConstraints == results.UnknownConstraints {
			values[i] = math.NaN()
		} else {
			values[i] = float64(item.UnsatisfiedConstraints)
		}
	}
	return values
}

// focusLimits computes the vertical range of the focus figure: from the best
// final item up to the worst feasible target.
func (r *Report) focusLimits(
	collections map[string]*results.PerformanceHistories, feasibleTargets []float64,
) (float64, float64) {
	low := math.Inf(1)
	high := math.Inf(-1)
	for _, collection := range collections {
		for _, history := range collection.All() {
			if history.Len() == 0 {
				continue
			}
			last := history.Items[history.Len()-1]
			if last.IsFeasible() && last.PerformanceMeasure < low {
				low = last.PerformanceMeasure
			}
		}
	}
	for _, target := range feasibleTargets {
		if target < low {
			low = target
		}
		if target > high {
			high = target
		}
	}
	if math.IsInf(low, 1) || math.IsInf(high, -1) || low >= high {
		return 0, 1
	}
	return low, high
}

func (r *Report) plotRawHistories(problem *problems.Problem, path string) error {
	var series []namedSeries
	for _, name := range r.cfg.Configurations.Names() {
		paths, err := r.cfg.Index.Paths(name, problem.Name)
		if err != nil {
			return err
		}
		for _, historyPath := range paths {
			history, err := r.cfg.Loader.History(historyPath)
			if err != nil {
				return err
			}
			if r.cfg.MaxEvaluations > 0 {
				history = history.Shorten(r.cfg.MaxEvaluations)
			}
			series = append(series, namedSeries{Name: name, Values: performanceValues(history)})
		}
	}
	return plotHistories(path, series, r.cfg.Configurations.Names())
}

func (r *Report) plotExecutionTimes(problem *problems.Problem, path string) error {
	names := r.cfg.Configurations.Names()
	seconds := make([]float64, len(names))
	for i, name := range names {
		paths, err := r.cfg.Index.Paths(name, problem.Name)
		if err != nil {
			return err
		}
		times := make([]float64, 0, len(paths))
		for _, historyPath := range paths {
			history, err := r.cfg.Loader.History(historyPath)
			if err != nil {
				return err
			}
			times = append(times, history.ExecutionTime)
		}
		if len(times) > 0 {
			seconds[i] = stat.Mean(times, nil)
		}
	}
	return plotExecutionTime(path, names, seconds)
}

func (r *Report) writeConfigurationResults(
	name string,
	problem *problems.Problem,
	collection *results.PerformanceHistories,
	problemImages, groupDocs, executionTimePath string,
	targetObjectives []float64,
	focusMin, focusMax float64,
) (string, error) {
	configurationImages := filepath.Join(problemImages, utils.JoinSubstrings(name))
	if err := os.MkdirAll(filepath.Join(r.cfg.RootDir, configurationImages), 0755); err != nil {
		return "", fmt.Errorf("failed to create configuration images directory: %w", err)
	}

	single := map[string]*results.PerformanceHistories{name: collection}
	singleConfig, err := algorithms.NewConfigurations(algorithms.NewConfiguration(name, name, nil))
	if err != nil {
		return "", err
	}
	scoped := &Report{cfg: r.cfg, log: r.log}
	scoped.cfg.Configurations = singleConfig

	ranges, err := scoped.performanceRanges(single)
	if err != nil {
		return "", err
	}

	figures := map[string]string{
		"execution_time": executionTimePath,
	}
	performancePath := filepath.ToSlash(filepath.Join(configurationImages, figurePerformance))
	if err := plotRanges(
		filepath.Join(r.cfg.RootDir, performancePath),
		"Performance measure", ranges, targetObjectives,
	); err != nil {
		return "", err
	}
	figures["performance_measure"] = performancePath

	focusPath := filepath.ToSlash(filepath.Join(configurationImages, figurePerformanceFocus))
	if err := plotRangesFocus(
		filepath.Join(r.cfg.RootDir, focusPath),
		"Performance measure", ranges, targetObjectives, focusMin, focusMax,
	); err != nil {
		return "", err
	}
	figures["performance_measure_focus"] = focusPath

	if problem.IsConstrained() {
		infeasibilityRanges, err := scoped.statisticRanges(single, infeasibilityValues)
		if err != nil {
			return "", err
		}
		infeasibilityPath := filepath.ToSlash(filepath.Join(configurationImages, figureInfeasibility))
		if err := plotRanges(
			filepath.Join(r.cfg.RootDir, infeasibilityPath),
			"Infeasibility measure", infeasibilityRanges, nil,
		); err != nil {
			return "", err
		}
		figures["infeasibility_measure"] = infeasibilityPath

		constraintsRanges, err := scoped.statisticRanges(single, unsatisfiedConstraintsValues)
		if err != nil {
			return "", err
		}
		constraintsPath := filepath.ToSlash(filepath.Join(configurationImages, figureUnsatisfiedConstraints))
		if err := plotRanges(
			filepath.Join(r.cfg.RootDir, constraintsPath),
			"Number of unsatisfied constraints", constraintsRanges, nil,
		); err != nil {
			return "", err
		}
		figures["number_of_unsatisfied_constraints"] = constraintsPath
	}

	page := filepath.Join(groupDocs, utils.JoinSubstrings(name)+".rst")
	if err := renderPage(
		filepath.Join(r.cfg.RootDir, page),
		"algorithm_configuration_results.rst",
		resultsContext{
			Title: fmt.Sprintf("%s on %s", name, problem.Name),
			Problem: resultsProblemContext{
				Name:             problem.Name,
				ConstraintsNames: problem.ConstraintsNames,
			},
			Figures: figures,
		},
	); err != nil {
		return "", err
	}
	return filepath.ToSlash(page), nil
}
