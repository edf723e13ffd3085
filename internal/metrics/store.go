package metrics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	documentNotFoundMessageConstant           = "metrics document not found"
	storeDirectoryRequiredMessageConstant     = "metrics directory must be provided"
	transientErrorMessageTemplateConstant     = "transient metrics store failure: %v"
	documentFileNameTemplateConstant          = "%s.json"
	identifierRequiredForFetchMessageConstant = "workflow run identifier must be provided"
)

var (
	// ErrNotFound indicates that no metrics document exists for the identifier.
	ErrNotFound = errors.New(documentNotFoundMessageConstant)
	// ErrStoreDirectoryRequired indicates the directory store was built without a path.
	ErrStoreDirectoryRequired = errors.New(storeDirectoryRequiredMessageConstant)
	// ErrIdentifierRequired indicates a fetch was attempted without an identifier.
	ErrIdentifierRequired = errors.New(identifierRequiredForFetchMessageConstant)
)

// TransientError wraps store failures that may succeed on retry.
type TransientError struct {
	Cause error
}

// Error describes the transient failure.
func (transientError TransientError) Error() string {
	return fmt.Sprintf(transientErrorMessageTemplateConstant, transientError.Cause)
}

// Unwrap exposes the underlying cause.
func (transientError TransientError) Unwrap() error {
	return transientError.Cause
}

// DocumentStore fetches the metrics document for a workflow run identifier.
type DocumentStore interface {
	Fetch(executionContext context.Context, workflowRunIdentifier string) (Document, error)
}

// DirectoryStore reads pre-extracted metrics documents from a directory of
// <identifier>.json files.
type DirectoryStore struct {
	directoryPath string
}

// NewDirectoryStore builds a store over the provided directory.
func NewDirectoryStore(directoryPath string) (*DirectoryStore, error) {
	trimmedPath := strings.TrimSpace(directoryPath)
	if len(trimmedPath) == 0 {
		return nil, ErrStoreDirectoryRequired
	}
	return &DirectoryStore{directoryPath: trimmedPath}, nil
}

// Fetch reads and parses the document for the identifier, returning ErrNotFound
// when no file exists.
func (store *DirectoryStore) Fetch(executionContext context.Context, workflowRunIdentifier string) (Document, error) {
	trimmedIdentifier := strings.TrimSpace(workflowRunIdentifier)
	if len(trimmedIdentifier) == 0 {
		return Document{}, ErrIdentifierRequired
	}

	if contextError := executionContext.Err(); contextError != nil {
		return Document{}, TransientError{Cause: contextError}
	}

	documentPath := filepath.Join(store.directoryPath, fmt.Sprintf(documentFileNameTemplateConstant, trimmedIdentifier))
	contentBytes, readError := os.ReadFile(documentPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return Document{}, ErrNotFound
		}
		return Document{}, TransientError{Cause: readError}
	}

	return ParseDocument(contentBytes)
}
