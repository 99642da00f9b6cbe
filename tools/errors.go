package tools

import "errors"

var (
	// ErrNoCredentials indicates the Search Console credentials file is
	// missing or unreadable.
	ErrNoCredentials = errors.New("tools: search console credentials not found")

	// ErrNoAPIKey indicates no LLM API key is configured for the keyword
	// search tool.
	ErrNoAPIKey = errors.New("tools: no API key configured")

	// ErrUpstreamStatus indicates an upstream service answered with a
	// non-success HTTP status.
	ErrUpstreamStatus = errors.New("tools: upstream returned error status")
)
