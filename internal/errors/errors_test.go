package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityInfo, "info"},
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestCheatsheetErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *CheatsheetError
		contains []string
	}{
		{
			name:     "malformed with line",
			err:      MalformedDocument(12, "content before first section heading"),
			contains: []string{"[ERR_MALFORMED_DOCUMENT]", "line 12", "content before first section heading"},
		},
		{
			name:     "malformed with file and line",
			err:      MalformedDocument(3, "empty heading").WithLocation("README.md", 3),
			contains: []string{"README.md:3", "empty heading"},
		},
		{
			name:     "unsupported format",
			err:      UnsupportedFormat("bogus"),
			contains: []string{"[ERR_UNSUPPORTED_FORMAT]", `"bogus"`},
		},
		{
			name:     "topic not found",
			err:      TopicNotFound("nonexistent"),
			contains: []string{"[ERR_TOPIC_NOT_FOUND]", "nonexistent"},
		},
		{
			name:     "io error with cause",
			err:      NewIOError(ErrCodeIO, "read failed", fmt.Errorf("disk on fire")),
			contains: []string{"read failed", "disk on fire"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	malformed := MalformedDocument(4, "empty heading")
	wrapped := fmt.Errorf("loading: %w", malformed)

	assert.True(t, errors.Is(wrapped, ErrMalformedDocument))
	assert.True(t, IsMalformedDocument(wrapped))
	assert.False(t, IsUnsupportedFormat(wrapped))
	assert.False(t, IsTopicNotFound(wrapped))
	assert.Equal(t, 4, LineOf(wrapped))

	assert.True(t, IsUnsupportedFormat(UnsupportedFormat("x")))
	assert.True(t, IsTopicNotFound(TopicNotFound("x")))
	assert.Equal(t, 0, LineOf(fmt.Errorf("plain")))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := MalformedDocument(9, "unterminated code fence")
	wrapped := Wrap(cause, ErrorTypeIO, ErrCodeIO, "reload failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, 9, wrapped.Line)
	assert.True(t, errors.Is(wrapped, ErrMalformedDocument))
	assert.Nil(t, Wrap(nil, ErrorTypeIO, ErrCodeIO, "nothing"))

	plain := WrapIO(fmt.Errorf("boom"), ErrCodeIO, "read")
	assert.False(t, plain.Recoverable)
	assert.Equal(t, "boom", errors.Unwrap(plain).Error())
}

func TestWithFile(t *testing.T) {
	err := WithFile(MalformedDocument(2, "empty heading"), "cheats.md")
	assert.Contains(t, err.Error(), "cheats.md:2")

	generic := WithFile(fmt.Errorf("boom"), "cheats.md")
	var ce *CheatsheetError
	require.True(t, errors.As(generic, &ce))
	assert.Equal(t, ErrCodeInternalError, ce.Code)
	assert.Nil(t, WithFile(nil, "cheats.md"))
}

func TestGetErrorContext(t *testing.T) {
	err := MalformedDocument(7, "empty heading").
		WithLocation("doc.md", 7).
		WithComponent("content").
		WithContext("heading_level", 3)

	ctx := GetErrorContext(err)
	assert.Equal(t, "doc.md", ctx["file"])
	assert.Equal(t, 7, ctx["line"])
	assert.Equal(t, "content", ctx["component"])
	assert.Equal(t, 3, ctx["heading_level"])
	assert.Equal(t, ErrCodeMalformedDocument, ctx["code"])

	plain := GetErrorContext(fmt.Errorf("plain"))
	assert.Equal(t, "unknown", plain["type"])
}

func TestCombineErrors(t *testing.T) {
	assert.Nil(t, CombineErrors(nil, nil))

	single := fmt.Errorf("one")
	assert.Equal(t, single, CombineErrors(nil, single))

	combined := CombineErrors(fmt.Errorf("one"), fmt.Errorf("two"))
	require.Error(t, combined)
	assert.Contains(t, combined.Error(), "2 errors")
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.False(t, collector.HasErrors())

	collector.AddError(nil)
	assert.False(t, collector.HasErrors())

	collector.AddError(MalformedDocument(5, "empty heading").WithLocation("a.md", 5))
	collector.AddError(fmt.Errorf("generic"))

	problems := collector.Problems()
	require.Len(t, problems, 2)
	assert.Equal(t, ErrCodeMalformedDocument, problems[0].Code)
	assert.Equal(t, "a.md", problems[0].File)
	assert.Equal(t, 5, problems[0].Line)
	assert.Equal(t, ErrorSeverityWarning, problems[0].Severity)
	assert.Equal(t, "generic", problems[1].Message)
	assert.Equal(t, ErrorSeverityError, problems[1].Severity)

	collector.Clear()
	assert.False(t, collector.HasErrors())
	assert.Empty(t, collector.Problems())
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, TopicNotFound("x"))
	handler.Handle(ctx, NewInternalError(ErrCodeInternalError, "bad", nil))
	handler.Handle(ctx, fmt.Errorf("generic"))

	assert.Len(t, logger.warns, 1)
	assert.Len(t, logger.errors, 2)
}
