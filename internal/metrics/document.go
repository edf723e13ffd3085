package metrics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	provisionFileOutWorkflowNameConstant = "provisionFileOut"
	documentParseErrorTemplateConstant   = "failed to parse metrics document: %w"
	statusSucceededValueConstant         = "SUCCEEDED"
	timestampLayoutSpacedConstant        = "2006-01-02 15:04:05"
	timestampLayoutDateOnlyConstant      = "2006-01-02"
)

// StageEntry is one per-stage record inside an exported metrics document.
// Fields beyond the ones modeled here are opaque pass-through and ignored.
type StageEntry struct {
	WorkflowName     string          `json:"workflow_name"`
	StartTime        json.RawMessage `json:"start_time"`
	EndTime          json.RawMessage `json:"end_time"`
	WallclockSeconds float64         `json:"wallclock_seconds"`
	WorkflowRunID    json.RawMessage `json:"workflow_run_id"`
	Status           string          `json:"status"`
}

// Document is a parsed metrics export for a single workflow run identifier.
type Document struct {
	Entries []StageEntry
}

// Summary is the per-run digest used by the report builder.
type Summary struct {
	WorkflowName                 string
	StartTime                    string
	EndTime                      string
	WallclockSeconds             float64
	Status                       string
	MaxProvisionWallclockSeconds float64
}

// ParseDocument decodes an exported metrics document, accepting both a JSON
// array of stage entries and a single stage object.
func ParseDocument(contentBytes []byte) (Document, error) {
	trimmedContent := strings.TrimSpace(string(contentBytes))
	if len(trimmedContent) == 0 {
		return Document{}, nil
	}

	if strings.HasPrefix(trimmedContent, "[") {
		var entries []StageEntry
		if unmarshalError := json.Unmarshal([]byte(trimmedContent), &entries); unmarshalError != nil {
			return Document{}, fmt.Errorf(documentParseErrorTemplateConstant, unmarshalError)
		}
		return Document{Entries: entries}, nil
	}

	var entry StageEntry
	if unmarshalError := json.Unmarshal([]byte(trimmedContent), &entry); unmarshalError != nil {
		return Document{}, fmt.Errorf(documentParseErrorTemplateConstant, unmarshalError)
	}
	return Document{Entries: []StageEntry{entry}}, nil
}

// Summarize reduces the document to the unique non-provisionFileOut stage,
// folding provisionFileOut stages into a maximum wallclock figure.
func (document Document) Summarize() (Summary, bool) {
	var runEntry *StageEntry
	maxProvisionWallclock := 0.0

	for entryIndex := range document.Entries {
		entry := &document.Entries[entryIndex]
		if entry.WorkflowName == provisionFileOutWorkflowNameConstant {
			if entry.WallclockSeconds > maxProvisionWallclock {
				maxProvisionWallclock = entry.WallclockSeconds
			}
			continue
		}
		runEntry = entry
	}

	if runEntry == nil {
		return Summary{}, false
	}

	status := strings.TrimSpace(runEntry.Status)
	if len(status) == 0 {
		status = statusSucceededValueConstant
	}

	return Summary{
		WorkflowName:                 runEntry.WorkflowName,
		StartTime:                    rawScalarString(runEntry.StartTime),
		EndTime:                      rawScalarString(runEntry.EndTime),
		WallclockSeconds:             runEntry.WallclockSeconds,
		Status:                       status,
		MaxProvisionWallclockSeconds: maxProvisionWallclock,
	}, true
}

// ParseTimestamp converts a raw timestamp value to seconds on a common numeric
// scale. Plain numbers pass through; RFC3339 and common date layouts convert
// to Unix seconds.
func ParseTimestamp(rawValue string) (float64, bool) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		return 0, false
	}

	if numericValue, numericError := strconv.ParseFloat(trimmedValue, 64); numericError == nil {
		return numericValue, true
	}

	timestampLayouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		timestampLayoutSpacedConstant,
		timestampLayoutDateOnlyConstant,
	}
	for _, timestampLayout := range timestampLayouts {
		if parsedTime, parseError := time.Parse(timestampLayout, trimmedValue); parseError == nil {
			return float64(parsedTime.UnixNano()) / float64(time.Second), true
		}
	}

	return 0, false
}

// rawScalarString renders a raw JSON scalar without quotes so timestamps and
// identifiers pass through the report verbatim.
func rawScalarString(rawValue json.RawMessage) string {
	trimmedValue := strings.TrimSpace(string(rawValue))
	if len(trimmedValue) == 0 {
		return ""
	}
	var stringValue string
	if unmarshalError := json.Unmarshal([]byte(trimmedValue), &stringValue); unmarshalError == nil {
		return stringValue
	}
	return trimmedValue
}
