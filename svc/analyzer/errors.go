package analyzer

import "errors"

var (
	// ErrEmptyText is returned when there is no text to analyze.
	ErrEmptyText = errors.New("analyzer: empty text")

	// ErrPipelineUnavailable is returned when the analysis pipeline cannot be
	// reached or responds with a failure.
	ErrPipelineUnavailable = errors.New("analyzer: pipeline unavailable")

	// ErrMalformedResult is returned when the pipeline response cannot be
	// normalized into a Result.
	ErrMalformedResult = errors.New("analyzer: malformed pipeline result")
)
