package model

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	orderingConfigPathRequiredMessageConstant    = "ordering configuration path must be provided"
	orderingConfigLoadErrorTemplateConstant      = "failed to load ordering configuration: %w"
	orderingConfigParseErrorTemplateConstant     = "failed to parse ordering configuration: %w"
	dependencyTargetMissingIssueTemplateConstant = "dependency %q of workflow %q is not listed in workflow_run_order"
	dependencySourceMissingIssueTemplateConstant = "workflow %q declares dependencies but is not listed in workflow_run_order"
	dependencySelfReferenceIssueTemplateConstant = "workflow %q cannot depend on itself"
	dependencyCycleIssueMessageConstant          = "dependency graph contains a cycle"
)

// ErrOrderingConfigPathRequired indicates that no configuration path was supplied.
var ErrOrderingConfigPathRequired = errors.New(orderingConfigPathRequiredMessageConstant)

// OrderingConfig describes the desired workflow run order and inter-workflow dependencies.
type OrderingConfig struct {
	WorkflowRunOrder []string            `yaml:"workflow_run_order" json:"workflow_run_order"`
	Dependencies     map[string][]string `yaml:"dependencies" json:"dependencies"`
}

// ConfigIssue reports a non-fatal ordering configuration problem.
type ConfigIssue struct {
	Detail string
}

// String renders the issue for logs and summaries.
func (issue ConfigIssue) String() string {
	return issue.Detail
}

// LoadOrderingConfig reads the run order and dependency graph from a JSON or YAML file.
func LoadOrderingConfig(filePath string) (OrderingConfig, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return OrderingConfig{}, ErrOrderingConfigPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return OrderingConfig{}, fmt.Errorf(orderingConfigLoadErrorTemplateConstant, readError)
	}

	var configuration OrderingConfig
	if unmarshalError := yaml.Unmarshal(contentBytes, &configuration); unmarshalError != nil {
		return OrderingConfig{}, fmt.Errorf(orderingConfigParseErrorTemplateConstant, unmarshalError)
	}

	configuration.sanitize()
	return configuration, nil
}

func (configuration *OrderingConfig) sanitize() {
	sanitizedOrder := make([]string, 0, len(configuration.WorkflowRunOrder))
	seenNames := make(map[string]struct{}, len(configuration.WorkflowRunOrder))
	for _, workflowName := range configuration.WorkflowRunOrder {
		trimmedName := strings.TrimSpace(workflowName)
		if len(trimmedName) == 0 {
			continue
		}
		if _, alreadySeen := seenNames[trimmedName]; alreadySeen {
			continue
		}
		seenNames[trimmedName] = struct{}{}
		sanitizedOrder = append(sanitizedOrder, trimmedName)
	}
	configuration.WorkflowRunOrder = sanitizedOrder

	if configuration.Dependencies == nil {
		return
	}
	sanitizedDependencies := make(map[string][]string, len(configuration.Dependencies))
	for workflowName, dependencyNames := range configuration.Dependencies {
		trimmedWorkflowName := strings.TrimSpace(workflowName)
		if len(trimmedWorkflowName) == 0 {
			continue
		}
		seenDependencies := make(map[string]struct{}, len(dependencyNames))
		sanitizedList := make([]string, 0, len(dependencyNames))
		for _, dependencyName := range dependencyNames {
			trimmedDependencyName := strings.TrimSpace(dependencyName)
			if len(trimmedDependencyName) == 0 {
				continue
			}
			if _, alreadyIncluded := seenDependencies[trimmedDependencyName]; alreadyIncluded {
				continue
			}
			seenDependencies[trimmedDependencyName] = struct{}{}
			sanitizedList = append(sanitizedList, trimmedDependencyName)
		}
		sanitizedDependencies[trimmedWorkflowName] = sanitizedList
	}
	configuration.Dependencies = sanitizedDependencies
}

// RunOrderIndex maps each listed workflow name to its position in the run order.
func (configuration OrderingConfig) RunOrderIndex() map[string]int {
	orderIndex := make(map[string]int, len(configuration.WorkflowRunOrder))
	for position, workflowName := range configuration.WorkflowRunOrder {
		orderIndex[workflowName] = position
	}
	return orderIndex
}

// Validate reports every non-fatal configuration issue: dependency endpoints missing
// from the run order, self references, and dependency cycles.
func (configuration OrderingConfig) Validate() []ConfigIssue {
	issues := make([]ConfigIssue, 0)
	orderIndex := configuration.RunOrderIndex()

	for _, workflowName := range sortedDependencyKeys(configuration.Dependencies) {
		if _, listed := orderIndex[workflowName]; !listed {
			issues = append(issues, ConfigIssue{Detail: fmt.Sprintf(dependencySourceMissingIssueTemplateConstant, workflowName)})
		}
		for _, dependencyName := range configuration.Dependencies[workflowName] {
			if dependencyName == workflowName {
				issues = append(issues, ConfigIssue{Detail: fmt.Sprintf(dependencySelfReferenceIssueTemplateConstant, workflowName)})
				continue
			}
			if _, listed := orderIndex[dependencyName]; !listed {
				issues = append(issues, ConfigIssue{Detail: fmt.Sprintf(dependencyTargetMissingIssueTemplateConstant, dependencyName, workflowName)})
			}
		}
	}

	if configuration.hasDependencyCycle() {
		issues = append(issues, ConfigIssue{Detail: dependencyCycleIssueMessageConstant})
	}

	return issues
}

// hasDependencyCycle runs Kahn's algorithm over the declared dependency edges.
func (configuration OrderingConfig) hasDependencyCycle() bool {
	inDegree := make(map[string]int)
	adjacency := make(map[string][]string)

	registerNode := func(name string) {
		if _, known := inDegree[name]; !known {
			inDegree[name] = 0
		}
	}

	for workflowName, dependencyNames := range configuration.Dependencies {
		registerNode(workflowName)
		for _, dependencyName := range dependencyNames {
			if dependencyName == workflowName {
				continue
			}
			registerNode(dependencyName)
			inDegree[workflowName]++
			adjacency[dependencyName] = append(adjacency[dependencyName], workflowName)
		}
	}

	ready := make([]string, 0, len(inDegree))
	for nodeName, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, nodeName)
		}
	}

	processed := 0
	for len(ready) > 0 {
		currentName := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		processed++

		for _, dependentName := range adjacency[currentName] {
			inDegree[dependentName]--
			if inDegree[dependentName] == 0 {
				ready = append(ready, dependentName)
			}
		}
	}

	return processed != len(inDegree)
}

func sortedDependencyKeys(dependencies map[string][]string) []string {
	keys := make([]string, 0, len(dependencies))
	for dependencyKey := range dependencies {
		keys = append(keys, dependencyKey)
	}
	sort.Strings(keys)
	return keys
}
