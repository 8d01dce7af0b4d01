// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package pkg contains build metadata of pathmon.
package pkg

// Version is the release of the running binary.
// It is set at build time with -ldflags "-X github.com/telekom/pathmon/pkg.Version=x.x.x".
var Version string
