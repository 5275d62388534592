package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is an error with a category, a severity and context.
type ClassifiedError struct {
	category  ErrorCategory
	severity  ErrorSeverity
	retryable bool
	message   string
	cause     error
	context   ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }

func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Retryable reports whether repeating the operation may succeed.
func (e *ClassifiedError) Retryable() bool { return e.retryable }

func (e *ClassifiedError) Message() string { return e.message }

func (e *ClassifiedError) Cause() error { return e.cause }

func (e *ClassifiedError) Context() ErrorContext { return e.context }

// WithContext returns a copy with key set; e is unchanged.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	clone := *e
	clone.context = e.context.Merge(ErrorContext{key: value})
	return &clone
}

// IsCategory checks if the error belongs to a specific category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// Classifier is implemented by typed errors that know their own classification.
type Classifier interface {
	Classify() *ClassifiedError
}

// Classify lets *ClassifiedError satisfy Classifier.
func (e *ClassifiedError) Classify() *ClassifiedError { return e }

// AsClassified returns the classification of the first Classifier in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var c Classifier
	if stderrors.As(err, &c) {
		if classified := c.Classify(); classified != nil {
			return classified, true
		}
	}
	return nil, false
}

// HasCategory checks if the first classified error in the chain belongs to a category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.IsCategory(category)
	}
	return false
}

// IsRetryable reports whether the first classified error in the chain is
// marked retryable. Unclassified errors are not.
func IsRetryable(err error) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.Retryable()
	}
	return false
}
