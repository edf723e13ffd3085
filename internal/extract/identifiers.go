package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	IdentifierFileHeaderConstant = "workflow_run_id"

	identifiersPathRequiredMessageConstant  = "identifiers file path not provided"
	identifiersReadFailureTemplateConstant  = "read identifiers file %s: %w"
	identifiersWriteFailureTemplateConstant = "write identifiers file %s: %w"
)

// ErrIdentifiersPathRequired indicates a missing identifiers file path.
var ErrIdentifiersPathRequired = errors.New(identifiersPathRequiredMessageConstant)

// ReadIdentifiers loads workflow run identifiers from a newline-delimited
// file. A leading header line equal to the column name is skipped, as are
// blank lines; surrounding whitespace is trimmed.
func ReadIdentifiers(filePath string) ([]string, error) {
	if len(strings.TrimSpace(filePath)) == 0 {
		return nil, ErrIdentifiersPathRequired
	}

	identifiersFile, openError := os.Open(filePath)
	if openError != nil {
		return nil, fmt.Errorf(identifiersReadFailureTemplateConstant, filePath, openError)
	}
	defer identifiersFile.Close()

	identifiers := make([]string, 0)
	lineScanner := bufio.NewScanner(identifiersFile)
	lineNumber := 0
	for lineScanner.Scan() {
		lineNumber++
		lineContent := strings.TrimSpace(lineScanner.Text())
		if len(lineContent) == 0 {
			continue
		}
		if lineNumber == 1 && lineContent == IdentifierFileHeaderConstant {
			continue
		}
		identifiers = append(identifiers, lineContent)
	}
	if scanError := lineScanner.Err(); scanError != nil {
		return nil, fmt.Errorf(identifiersReadFailureTemplateConstant, filePath, scanError)
	}

	return identifiers, nil
}

// AppendIdentifiers appends workflow run identifiers to a newline-delimited
// file, creating it with a header line when it did not previously exist.
func AppendIdentifiers(filePath string, identifiers []string) error {
	if len(strings.TrimSpace(filePath)) == 0 {
		return ErrIdentifiersPathRequired
	}

	_, statError := os.Stat(filePath)
	fileIsNew := errors.Is(statError, fs.ErrNotExist)
	if statError != nil && !fileIsNew {
		return fmt.Errorf(identifiersWriteFailureTemplateConstant, filePath, statError)
	}

	identifiersFile, openError := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if openError != nil {
		return fmt.Errorf(identifiersWriteFailureTemplateConstant, filePath, openError)
	}
	defer identifiersFile.Close()

	bufferedWriter := bufio.NewWriter(identifiersFile)
	if fileIsNew {
		fmt.Fprintln(bufferedWriter, IdentifierFileHeaderConstant)
	}
	for _, identifier := range identifiers {
		fmt.Fprintln(bufferedWriter, identifier)
	}
	if flushError := bufferedWriter.Flush(); flushError != nil {
		return fmt.Errorf(identifiersWriteFailureTemplateConstant, filePath, flushError)
	}

	return nil
}
