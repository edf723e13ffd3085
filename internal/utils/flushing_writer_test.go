package utils_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oicr-gsi/pipeline-timings/internal/utils"
)

type countingFlushBuffer struct {
	buffer     bytes.Buffer
	flushError error
	flushCount int
}

func (destination *countingFlushBuffer) Write(data []byte) (int, error) {
	return destination.buffer.Write(data)
}

func (destination *countingFlushBuffer) Flush() error {
	destination.flushCount++
	return destination.flushError
}

func TestFlushingWriterFlushesAfterEveryWrite(testInstance *testing.T) {
	destination := &countingFlushBuffer{}
	writer := utils.NewFlushingWriter(destination)

	for _, progressLine := range []string{"exported 100 -> metrics/100.json\n", "failed 200: exit code 1\n"} {
		bytesWritten, writeError := writer.Write([]byte(progressLine))
		require.NoError(testInstance, writeError)
		require.Equal(testInstance, len(progressLine), bytesWritten)
	}

	require.Equal(testInstance, "exported 100 -> metrics/100.json\nfailed 200: exit code 1\n", destination.buffer.String())
	require.Equal(testInstance, 2, destination.flushCount)
}

func TestFlushingWriterSurfacesFlushError(testInstance *testing.T) {
	destination := &countingFlushBuffer{flushError: errors.New("flush failed")}
	writer := utils.NewFlushingWriter(destination)

	bytesWritten, writeError := writer.Write([]byte("partial"))
	require.Error(testInstance, writeError)
	require.Equal(testInstance, len("partial"), bytesWritten)
	require.Equal(testInstance, "partial", destination.buffer.String())
	require.Equal(testInstance, 1, destination.flushCount)
}

func TestFlushingWriterPassesThroughNonFlushableDestinations(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	writer := utils.NewFlushingWriter(destination)

	bytesWritten, writeError := writer.Write([]byte("plain"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, len("plain"), bytesWritten)
	require.Equal(testInstance, "plain", destination.String())
}
