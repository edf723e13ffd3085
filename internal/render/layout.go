package render

import (
	"fmt"
	"sort"

	"github.com/oicr-gsi/pipeline-timings/internal/model"
	"github.com/oicr-gsi/pipeline-timings/internal/report"
)

const (
	barLabelTemplateConstant        = "%s-%s"
	rowSkippedIssueTemplateConstant = "workflow %q run %s skipped: no drawable interval"
	dependencyEdgeSkippedTemplateConstant = "dependency edge %q -> %q skipped: %s"
	edgeEndpointUnlistedReasonConstant    = "endpoint missing from workflow_run_order"
)

// Bar is one horizontal interval on the chart.
type Bar struct {
	Row   report.ReportRow
	Label string
	Lane  int
	Start float64
	End   float64
}

// DependencyLink connects the end of a dependency's bar to the start of its
// dependent's bar.
type DependencyLink struct {
	FromLane int
	FromTime float64
	ToLane   int
	ToTime   float64
}

// Layout is a fully positioned chart: bars on lanes over a shared time scale.
type Layout struct {
	Bars    []Bar
	Links   []DependencyLink
	MinTime float64
	MaxTime float64
	Issues  []string
}

// BuildStartTimeLayout orders drawable rows by ascending start time, breaking
// ties by input traversal order.
func BuildStartTimeLayout(rows []report.ReportRow) Layout {
	layout := Layout{}
	bars := collectDrawableBars(rows, &layout.Issues)

	sort.SliceStable(bars, func(leftIndex, rightIndex int) bool {
		return bars[leftIndex].Start < bars[rightIndex].Start
	})

	assignLanes(bars)
	layout.Bars = bars
	layout.MinTime, layout.MaxTime = timeBounds(bars)
	return layout
}

// BuildRunOrderLayout orders drawable rows by the configured workflow run
// order; unlisted workflow names keep their start-time relative order after
// the listed ones. Dependency edges become links between matching rows within
// the same donor and sample.
func BuildRunOrderLayout(rows []report.ReportRow, configuration model.OrderingConfig) Layout {
	layout := BuildStartTimeLayout(rows)
	orderIndex := configuration.RunOrderIndex()
	unlistedRank := len(orderIndex)

	bars := layout.Bars
	sort.SliceStable(bars, func(leftIndex, rightIndex int) bool {
		return runOrderRank(bars[leftIndex], orderIndex, unlistedRank) < runOrderRank(bars[rightIndex], orderIndex, unlistedRank)
	})
	assignLanes(bars)
	layout.Bars = bars

	layout.Links = buildDependencyLinks(bars, configuration, orderIndex, &layout.Issues)
	return layout
}

func runOrderRank(bar Bar, orderIndex map[string]int, unlistedRank int) int {
	if rank, listed := orderIndex[bar.Row.WorkflowName]; listed {
		return rank
	}
	return unlistedRank
}

func collectDrawableBars(rows []report.ReportRow, issues *[]string) []Bar {
	bars := make([]Bar, 0, len(rows))
	for _, row := range rows {
		startSeconds, endSeconds, intervalAvailable := row.Interval()
		if !intervalAvailable {
			*issues = append(*issues, fmt.Sprintf(rowSkippedIssueTemplateConstant, row.WorkflowName, row.WorkflowID))
			continue
		}
		bars = append(bars, Bar{
			Row:   row,
			Label: fmt.Sprintf(barLabelTemplateConstant, row.WorkflowName, row.WorkflowID),
			Start: startSeconds,
			End:   endSeconds,
		})
	}
	return bars
}

func assignLanes(bars []Bar) {
	for barIndex := range bars {
		bars[barIndex].Lane = barIndex
	}
}

func timeBounds(bars []Bar) (float64, float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	minTime := bars[0].Start
	maxTime := bars[0].End
	for _, bar := range bars {
		if bar.Start < minTime {
			minTime = bar.Start
		}
		if bar.End > maxTime {
			maxTime = bar.End
		}
	}
	return minTime, maxTime
}

func buildDependencyLinks(bars []Bar, configuration model.OrderingConfig, orderIndex map[string]int, issues *[]string) []DependencyLink {
	links := make([]DependencyLink, 0)

	dependentNames := make([]string, 0, len(configuration.Dependencies))
	for dependentName := range configuration.Dependencies {
		dependentNames = append(dependentNames, dependentName)
	}
	sort.Strings(dependentNames)

	for _, dependentName := range dependentNames {
		for _, dependencyName := range configuration.Dependencies[dependentName] {
			_, dependentListed := orderIndex[dependentName]
			_, dependencyListed := orderIndex[dependencyName]
			if !dependentListed || !dependencyListed {
				*issues = append(*issues, fmt.Sprintf(dependencyEdgeSkippedTemplateConstant, dependencyName, dependentName, edgeEndpointUnlistedReasonConstant))
				continue
			}

			for _, dependencyBar := range bars {
				if dependencyBar.Row.WorkflowName != dependencyName {
					continue
				}
				for _, dependentBar := range bars {
					if dependentBar.Row.WorkflowName != dependentName {
						continue
					}
					if dependencyBar.Row.DonorID != dependentBar.Row.DonorID || dependencyBar.Row.SampleID != dependentBar.Row.SampleID {
						continue
					}
					links = append(links, DependencyLink{
						FromLane: dependencyBar.Lane,
						FromTime: dependencyBar.End,
						ToLane:   dependentBar.Lane,
						ToTime:   dependentBar.Start,
					})
				}
			}
		}
	}

	return links
}
