package types

import (
	"fmt"
	"strings"
)

// ConfigurationError reports every required setting that is missing at startup.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "Missing required environment variables: " + strings.Join(e.Missing, ", ")
}

// RetrievalError means the feed file could not be downloaded.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("Failure to connect to ftp: %s", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// MalformedFeedError carries the messages reported by the XML parser.
type MalformedFeedError struct {
	Messages []string
}

func (e *MalformedFeedError) Error() string {
	return "Invalid XML: " + strings.Join(e.Messages, ", ")
}

// PublishError is the failure of a single catalog update.
// StatusCode is zero when the request never got a response.
type PublishError struct {
	SKU        string
	StatusCode int
	Status     string
	Err        error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API Error: %d - %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("API Error: %s", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
