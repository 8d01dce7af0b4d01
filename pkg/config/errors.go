// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrInvalidName is returned when the instance name is not a DNS name
	ErrInvalidName = errors.New("invalid instance name")
	// ErrInvalidMonitor is returned when the monitor configuration is invalid
	ErrInvalidMonitor = errors.New("invalid monitor configuration")
	// ErrInvalidMode is returned for an unknown probe mode
	ErrInvalidMode = errors.New("invalid probe mode")
	// ErrInvalidStorePath is returned when the store path is empty
	ErrInvalidStorePath = errors.New("invalid store path")
	// ErrInvalidAutoSaveInterval is returned when the auto-save interval is negative
	ErrInvalidAutoSaveInterval = errors.New("invalid auto-save interval")
)
