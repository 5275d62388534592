// Package errors classifies docsite failures so the command line can pick
// an exit code and a message, and so remote calls know what to retry.
//
//	err := errors.WrapError(pushErr, errors.CategoryPublish, "push rejected").
//		WithContext("remote", target.Remote).
//		WithContext("branch", target.Branch).
//		Build()
package errors
