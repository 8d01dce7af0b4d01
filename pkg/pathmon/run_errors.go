// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package pathmon

import (
	"errors"
	"fmt"
)

// ErrFinalShutdown is returned by [Pathmon.Run] once all components are shut down
var ErrFinalShutdown = errors.New("pathmon was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of pathmon
type ErrShutdown struct {
	errSession error
	errStore   error
	errAPI     error
	errMetrics error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errSession != nil || e.errStore != nil || e.errAPI != nil || e.errMetrics != nil
}

func (e ErrShutdown) Error() string {
	return fmt.Sprintf("shutdown failed: session=%v store=%v api=%v metrics=%v", e.errSession, e.errStore, e.errAPI, e.errMetrics)
}

// Unwrap returns the errors of the components
func (e ErrShutdown) Unwrap() []error {
	return []error{e.errSession, e.errStore, e.errAPI, e.errMetrics}
}
