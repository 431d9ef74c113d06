// Package topicmgr keeps a catalog of the bus topics the process uses, so the
// CLI can list them and a typo in a topic name fails at startup.
package topicmgr

import "fmt"

// Scope separates topics owned by the shared infrastructure from topics owned
// by a single module.
type Scope string

const (
	ScopeFramework Scope = "framework"
	ScopeModule    Scope = "module"
)

// Topic describes one bus topic.
type Topic struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Scope       Scope          `json:"scope"`
	Description string         `json:"description"`
	Example     string         `json:"example,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// String returns the topic name.
func (t Topic) String() string {
	return t.Name
}

// ErrorType classifies registration failures.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError is returned by the manager.
type TopicError struct {
	Type  ErrorType
	Topic string
	Cause error
}

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %v", e.Type, e.Topic, e.Cause)
	}
	return fmt.Sprintf("%s %q", e.Type, e.Topic)
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}
