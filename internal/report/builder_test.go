package report_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oicr-gsi/pipeline-timings/internal/metrics"
	"github.com/oicr-gsi/pipeline-timings/internal/model"
	"github.com/oicr-gsi/pipeline-timings/internal/report"
)

type stubDocumentStore struct {
	documents map[string]metrics.Document
	failures  map[string]error
}

func (store stubDocumentStore) Fetch(_ context.Context, workflowRunIdentifier string) (metrics.Document, error) {
	if failure, failureConfigured := store.failures[workflowRunIdentifier]; failureConfigured {
		return metrics.Document{}, failure
	}
	document, documentAvailable := store.documents[workflowRunIdentifier]
	if !documentAvailable {
		return metrics.Document{}, metrics.ErrNotFound
	}
	return document, nil
}

func stageEntry(workflowName string, startTime string, endTime string, wallclockSeconds float64) metrics.StageEntry {
	return metrics.StageEntry{
		WorkflowName:     workflowName,
		StartTime:        []byte(startTime),
		EndTime:          []byte(endTime),
		WallclockSeconds: wallclockSeconds,
	}
}

func singleRecordDocument(workflowName string, workflowIdentifier string) model.InputDocument {
	return model.InputDocument{Donors: []model.Donor{{
		DonorID: "D1",
		Samples: []model.Sample{{
			SampleID: "S1",
			Workflows: []model.WorkflowGroup{{
				WorkflowName: workflowName,
				Records:      []model.WorkflowRecord{{WorkflowID: workflowIdentifier, WorkflowVersion: "1.0"}},
			}},
		}},
	}}}
}

func TestNewBuilderRequiresStore(testInstance *testing.T) {
	_, builderError := report.NewBuilder(nil, nil)
	require.ErrorIs(testInstance, builderError, report.ErrStoreRequired)
}

func TestBuildReportProducesOneRowPerRecord(testInstance *testing.T) {
	inputDocument := model.InputDocument{Donors: []model.Donor{{
		DonorID: "D1",
		Samples: []model.Sample{{
			SampleID: "S1",
			Workflows: []model.WorkflowGroup{{
				WorkflowName: "bamMergePreprocessing",
				Records: []model.WorkflowRecord{
					{WorkflowID: "100", WorkflowVersion: "1.0"},
					{WorkflowID: "101", WorkflowVersion: "1.1"},
				},
			}},
		}},
	}}}

	store := stubDocumentStore{documents: map[string]metrics.Document{
		"100": {Entries: []metrics.StageEntry{
			stageEntry("provisionFileOut", "50", "62", 12),
			stageEntry("bamMergePreprocessing", "10", "50", 40),
		}},
	}}

	builder, builderError := report.NewBuilder(store, nil)
	require.NoError(testInstance, builderError)

	rows, buildError := builder.BuildReport(context.Background(), inputDocument)
	require.NoError(testInstance, buildError)
	require.Len(testInstance, rows, 2)

	firstRow := rows[0]
	require.Equal(testInstance, "D1", firstRow.DonorID)
	require.Equal(testInstance, "S1", firstRow.SampleID)
	require.Equal(testInstance, "bamMergePreprocessing", firstRow.WorkflowName)
	require.Equal(testInstance, "100", firstRow.WorkflowID)
	require.Equal(testInstance, "1.0", firstRow.WorkflowVersion)
	require.Equal(testInstance, "10", firstRow.StartTime)
	require.Equal(testInstance, "50", firstRow.EndTime)
	require.Equal(testInstance, "40", firstRow.Duration)
	require.Equal(testInstance, "SUCCEEDED", firstRow.Status)
	require.Equal(testInstance, "12", firstRow.MaxProvisionWallclock)
	require.Empty(testInstance, firstRow.Warnings)
	require.True(testInstance, firstRow.HasMetrics())

	secondRow := rows[1]
	require.Equal(testInstance, "101", secondRow.WorkflowID)
	require.Equal(testInstance, report.UnavailableMarker, secondRow.StartTime)
	require.Equal(testInstance, report.StatusUnavailable, secondRow.Status)
	require.NotEmpty(testInstance, secondRow.Warnings)
	require.False(testInstance, secondRow.HasMetrics())
}

func TestBuildRowBehaviors(testInstance *testing.T) {
	testCases := []struct {
		name             string
		store            stubDocumentStore
		expectedDuration string
		expectedStatus   string
		expectedWarnings int
	}{
		{
			name: "wallclock_fallback_when_timestamps_unparseable",
			store: stubDocumentStore{documents: map[string]metrics.Document{
				"100": {Entries: []metrics.StageEntry{stageEntry("mutect2", `"bogus"`, `"values"`, 33)}},
			}},
			expectedDuration: "33",
			expectedStatus:   "SUCCEEDED",
			expectedWarnings: 1,
		},
		{
			name: "negative_duration_flagged",
			store: stubDocumentStore{documents: map[string]metrics.Document{
				"100": {Entries: []metrics.StageEntry{stageEntry("mutect2", "50", "10", 0)}},
			}},
			expectedDuration: "-40",
			expectedStatus:   "SUCCEEDED",
			expectedWarnings: 1,
		},
		{
			name: "missing_timestamps_without_wallclock",
			store: stubDocumentStore{documents: map[string]metrics.Document{
				"100": {Entries: []metrics.StageEntry{stageEntry("mutect2", "", "", 0)}},
			}},
			expectedDuration: report.UnavailableMarker,
			expectedStatus:   "SUCCEEDED",
			expectedWarnings: 1,
		},
		{
			name: "provision_only_document",
			store: stubDocumentStore{documents: map[string]metrics.Document{
				"100": {Entries: []metrics.StageEntry{stageEntry("provisionFileOut", "1", "2", 1)}},
			}},
			expectedDuration: report.UnavailableMarker,
			expectedStatus:   report.StatusUnavailable,
			expectedWarnings: 1,
		},
		{
			name:             "transient_fetch_failure",
			store:            stubDocumentStore{failures: map[string]error{"100": metrics.TransientError{Cause: errors.New("read failure")}}},
			expectedDuration: report.UnavailableMarker,
			expectedStatus:   report.StatusUnavailable,
			expectedWarnings: 1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			builder, builderError := report.NewBuilder(testCase.store, nil)
			require.NoError(subtestInstance, builderError)

			rows, buildError := builder.BuildReport(context.Background(), singleRecordDocument("mutect2", "100"))
			require.NoError(subtestInstance, buildError)
			require.Len(subtestInstance, rows, 1)

			require.Equal(subtestInstance, testCase.expectedDuration, rows[0].Duration)
			require.Equal(subtestInstance, testCase.expectedStatus, rows[0].Status)
			require.Len(subtestInstance, rows[0].Warnings, testCase.expectedWarnings)
		})
	}
}
