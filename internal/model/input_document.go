package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	inputPathRequiredMessageConstant         = "input document path must be provided"
	inputLoadErrorTemplateConstant           = "failed to load input document: %w"
	inputParseErrorTemplateConstant          = "failed to parse input document: %v"
	inputShapeErrorTemplateConstant          = "input document shape invalid: %s"
	donorMappingExpectedMessageConstant      = "top level must map donor identifiers to samples"
	sampleMappingExpectedTemplateConstant    = "donor %q must map sample identifiers to workflows"
	workflowMappingExpectedTemplateConstant  = "sample %q must map workflow names to run records"
	recordSequenceExpectedTemplateConstant   = "workflow %q must hold a sequence of run records"
	recordMappingExpectedTemplateConstant    = "workflow %q run record %d must be a mapping"
	recordFieldMissingTemplateConstant       = "workflow %q run record %d missing %s"
	workflowIdentifierFieldNameConstant      = "workflow_id"
	workflowVersionFieldNameConstant         = "workflow_version"
	documentNodeExpectedMessageConstant      = "document is empty"
	validationErrorMessageTemplateConstant   = "input document record invalid: %s"
)

var (
	// ErrInputPathRequired indicates that no input document path was supplied.
	ErrInputPathRequired = errors.New(inputPathRequiredMessageConstant)
)

// ParseError reports a malformed or structurally invalid input document.
type ParseError struct {
	Detail string
	Cause  error
}

// Error describes the parse failure.
func (parseError ParseError) Error() string {
	if parseError.Cause != nil {
		return fmt.Sprintf(inputParseErrorTemplateConstant, parseError.Cause)
	}
	return fmt.Sprintf(inputShapeErrorTemplateConstant, parseError.Detail)
}

// Unwrap exposes the underlying cause when present.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

// ValidationError reports a run record missing required fields.
type ValidationError struct {
	Detail string
}

// Error describes the validation failure.
func (validationError ValidationError) Error() string {
	return fmt.Sprintf(validationErrorMessageTemplateConstant, validationError.Detail)
}

// WorkflowRecord identifies one execution instance of a named workflow.
type WorkflowRecord struct {
	WorkflowID      string
	WorkflowVersion string
}

// WorkflowGroup holds the ordered run records registered under one workflow name.
type WorkflowGroup struct {
	WorkflowName string
	Records      []WorkflowRecord
}

// Sample groups workflow runs beneath a sample identifier.
type Sample struct {
	SampleID  string
	Workflows []WorkflowGroup
}

// Donor groups samples beneath a donor identifier.
type Donor struct {
	DonorID string
	Samples []Sample
}

// InputDocument is the ordered donor → sample → workflow → record hierarchy.
type InputDocument struct {
	Donors []Donor
}

// WorkflowIdentifiers returns every workflow run identifier in document order.
func (document InputDocument) WorkflowIdentifiers() []string {
	identifiers := make([]string, 0)
	for donorIndex := range document.Donors {
		for sampleIndex := range document.Donors[donorIndex].Samples {
			for workflowIndex := range document.Donors[donorIndex].Samples[sampleIndex].Workflows {
				for _, record := range document.Donors[donorIndex].Samples[sampleIndex].Workflows[workflowIndex].Records {
					identifiers = append(identifiers, record.WorkflowID)
				}
			}
		}
	}
	return identifiers
}

// LoadInputDocument reads and validates the donor hierarchy from a JSON or YAML file, preserving key order.
func LoadInputDocument(filePath string) (InputDocument, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return InputDocument{}, ErrInputPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return InputDocument{}, fmt.Errorf(inputLoadErrorTemplateConstant, readError)
	}

	return ParseInputDocument(contentBytes)
}

// ParseInputDocument decodes the donor hierarchy from raw JSON or YAML content, preserving key order.
func ParseInputDocument(contentBytes []byte) (InputDocument, error) {
	var rootNode yaml.Node
	if unmarshalError := yaml.Unmarshal(contentBytes, &rootNode); unmarshalError != nil {
		return InputDocument{}, ParseError{Cause: unmarshalError}
	}

	documentNode := unwrapDocumentNode(&rootNode)
	if documentNode == nil {
		return InputDocument{}, ParseError{Detail: documentNodeExpectedMessageConstant}
	}
	if documentNode.Kind != yaml.MappingNode {
		return InputDocument{}, ParseError{Detail: donorMappingExpectedMessageConstant}
	}

	document := InputDocument{Donors: make([]Donor, 0, len(documentNode.Content)/2)}
	for pairIndex := 0; pairIndex+1 < len(documentNode.Content); pairIndex += 2 {
		donorKeyNode := documentNode.Content[pairIndex]
		donorValueNode := documentNode.Content[pairIndex+1]
		if donorValueNode.Kind != yaml.MappingNode {
			return InputDocument{}, ParseError{Detail: fmt.Sprintf(sampleMappingExpectedTemplateConstant, donorKeyNode.Value)}
		}

		donor := Donor{DonorID: donorKeyNode.Value, Samples: make([]Sample, 0, len(donorValueNode.Content)/2)}
		for samplePairIndex := 0; samplePairIndex+1 < len(donorValueNode.Content); samplePairIndex += 2 {
			sampleKeyNode := donorValueNode.Content[samplePairIndex]
			sampleValueNode := donorValueNode.Content[samplePairIndex+1]
			if sampleValueNode.Kind != yaml.MappingNode {
				return InputDocument{}, ParseError{Detail: fmt.Sprintf(workflowMappingExpectedTemplateConstant, sampleKeyNode.Value)}
			}

			sample := Sample{SampleID: sampleKeyNode.Value, Workflows: make([]WorkflowGroup, 0, len(sampleValueNode.Content)/2)}
			for workflowPairIndex := 0; workflowPairIndex+1 < len(sampleValueNode.Content); workflowPairIndex += 2 {
				workflowKeyNode := sampleValueNode.Content[workflowPairIndex]
				workflowValueNode := sampleValueNode.Content[workflowPairIndex+1]

				workflowGroup, groupError := parseWorkflowGroup(workflowKeyNode.Value, workflowValueNode)
				if groupError != nil {
					return InputDocument{}, groupError
				}
				sample.Workflows = append(sample.Workflows, workflowGroup)
			}
			donor.Samples = append(donor.Samples, sample)
		}
		document.Donors = append(document.Donors, donor)
	}

	return document, nil
}

func parseWorkflowGroup(workflowName string, workflowValueNode *yaml.Node) (WorkflowGroup, error) {
	if workflowValueNode.Kind != yaml.SequenceNode {
		return WorkflowGroup{}, ParseError{Detail: fmt.Sprintf(recordSequenceExpectedTemplateConstant, workflowName)}
	}

	workflowGroup := WorkflowGroup{WorkflowName: workflowName, Records: make([]WorkflowRecord, 0, len(workflowValueNode.Content))}
	for recordIndex, recordNode := range workflowValueNode.Content {
		if recordNode.Kind != yaml.MappingNode {
			return WorkflowGroup{}, ParseError{Detail: fmt.Sprintf(recordMappingExpectedTemplateConstant, workflowName, recordIndex)}
		}

		record := WorkflowRecord{}
		for fieldPairIndex := 0; fieldPairIndex+1 < len(recordNode.Content); fieldPairIndex += 2 {
			fieldKeyNode := recordNode.Content[fieldPairIndex]
			fieldValueNode := recordNode.Content[fieldPairIndex+1]
			switch fieldKeyNode.Value {
			case workflowIdentifierFieldNameConstant:
				record.WorkflowID = strings.TrimSpace(fieldValueNode.Value)
			case workflowVersionFieldNameConstant:
				record.WorkflowVersion = strings.TrimSpace(fieldValueNode.Value)
			}
		}

		if len(record.WorkflowID) == 0 {
			return WorkflowGroup{}, ValidationError{Detail: fmt.Sprintf(recordFieldMissingTemplateConstant, workflowName, recordIndex, workflowIdentifierFieldNameConstant)}
		}
		if len(record.WorkflowVersion) == 0 {
			return WorkflowGroup{}, ValidationError{Detail: fmt.Sprintf(recordFieldMissingTemplateConstant, workflowName, recordIndex, workflowVersionFieldNameConstant)}
		}

		workflowGroup.Records = append(workflowGroup.Records, record)
	}

	return workflowGroup, nil
}

func unwrapDocumentNode(rootNode *yaml.Node) *yaml.Node {
	if rootNode == nil {
		return nil
	}
	if rootNode.Kind == yaml.DocumentNode {
		if len(rootNode.Content) == 0 {
			return nil
		}
		return rootNode.Content[0]
	}
	return rootNode
}
