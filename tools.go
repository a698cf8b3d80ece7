//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// It is not compiled into the binary.
//
// goose is managed through the go.mod tool directive. moq is installed
// globally for the go:generate directives in the middleware tests.
