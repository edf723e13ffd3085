package model_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oicr-gsi/pipeline-timings/internal/model"
)

const hierarchyDocumentContentConstant = `{
  "D2": {
    "S3": {
      "mutect2": [
        {"workflow_id": "300", "workflow_version": "2.1"}
      ]
    }
  },
  "D1": {
    "S1": {
      "bamMergePreprocessing": [
        {"workflow_id": "100", "workflow_version": "1.0"},
        {"workflow_id": "101", "workflow_version": "1.1"}
      ],
      "purple": [
        {"workflow_id": "200", "workflow_version": "3.0"}
      ]
    },
    "S2": {
      "mutect2": [
        {"workflow_id": "210", "workflow_version": "2.0"}
      ]
    }
  }
}`

func TestParseInputDocumentPreservesOrder(testInstance *testing.T) {
	document, parseError := model.ParseInputDocument([]byte(hierarchyDocumentContentConstant))
	require.NoError(testInstance, parseError)

	require.Len(testInstance, document.Donors, 2)
	require.Equal(testInstance, "D2", document.Donors[0].DonorID)
	require.Equal(testInstance, "D1", document.Donors[1].DonorID)

	firstDonorSamples := document.Donors[1].Samples
	require.Len(testInstance, firstDonorSamples, 2)
	require.Equal(testInstance, "S1", firstDonorSamples[0].SampleID)
	require.Equal(testInstance, "S2", firstDonorSamples[1].SampleID)

	sampleWorkflows := firstDonorSamples[0].Workflows
	require.Len(testInstance, sampleWorkflows, 2)
	require.Equal(testInstance, "bamMergePreprocessing", sampleWorkflows[0].WorkflowName)
	require.Equal(testInstance, "purple", sampleWorkflows[1].WorkflowName)
	require.Equal(testInstance, []model.WorkflowRecord{
		{WorkflowID: "100", WorkflowVersion: "1.0"},
		{WorkflowID: "101", WorkflowVersion: "1.1"},
	}, sampleWorkflows[0].Records)
}

func TestWorkflowIdentifiersFollowDocumentOrder(testInstance *testing.T) {
	document, parseError := model.ParseInputDocument([]byte(hierarchyDocumentContentConstant))
	require.NoError(testInstance, parseError)

	require.Equal(testInstance, []string{"300", "100", "101", "200", "210"}, document.WorkflowIdentifiers())
}

func TestParseInputDocumentRejectsInvalidContent(testInstance *testing.T) {
	testCases := []struct {
		name            string
		documentContent string
		expectedType    any
	}{
		{
			name:            "malformed_json",
			documentContent: `{"D1": {`,
			expectedType:    model.ParseError{},
		},
		{
			name:            "top_level_not_mapping",
			documentContent: `["D1"]`,
			expectedType:    model.ParseError{},
		},
		{
			name:            "workflow_not_sequence",
			documentContent: `{"D1": {"S1": {"mutect2": {"workflow_id": "1"}}}}`,
			expectedType:    model.ParseError{},
		},
		{
			name:            "record_missing_workflow_id",
			documentContent: `{"D1": {"S1": {"mutect2": [{"workflow_version": "1.0"}]}}}`,
			expectedType:    model.ValidationError{},
		},
		{
			name:            "record_missing_workflow_version",
			documentContent: `{"D1": {"S1": {"mutect2": [{"workflow_id": "77"}]}}}`,
			expectedType:    model.ValidationError{},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtestInstance *testing.T) {
			_, parseError := model.ParseInputDocument([]byte(testCase.documentContent))
			require.Error(subtestInstance, parseError)
			require.IsType(subtestInstance, testCase.expectedType, parseError)
		})
	}
}

func TestLoadInputDocumentRequiresPath(testInstance *testing.T) {
	_, loadError := model.LoadInputDocument("   ")
	require.ErrorIs(testInstance, loadError, model.ErrInputPathRequired)
}
