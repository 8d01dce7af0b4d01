// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when the listening address is not host:port
	ErrInvalidAddress = errors.New("invalid api listening address")
	// ErrInvalidTLS is returned when TLS is enabled without certificate or key
	ErrInvalidTLS = errors.New("tls requires a certificate and a key path")
	// ErrNotFound is returned for unknown routes
	ErrNotFound = errors.New("not found")
	// ErrMethodNotAllowed is returned for known routes with another method
	ErrMethodNotAllowed = errors.New("method not allowed")
	// ErrNoSession is returned when there is no session to save or export
	ErrNoSession = errors.New("no session")
	// ErrBadRequest is returned for malformed request bodies or parameters
	ErrBadRequest = errors.New("bad request")
)

type ErrInvalidRoute struct {
	Route Route
}

func (e *ErrInvalidRoute) Error() string {
	return fmt.Sprintf("invalid route %s %q", e.Route.Method, e.Route.Path)
}

type ErrCreateOpenapiSchema struct {
	name string
	err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for %s: %v", e.name, e.err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.err
}
