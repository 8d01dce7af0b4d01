// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is a command line flag bound to a configuration key
type Flag struct {
	config string
	cli    string
}

// NewFlag creates a flag named cli for the configuration key config
func NewFlag(config, cli string) *Flag {
	return &Flag{config: config, cli: cli}
}

type (
	StringFlag   struct{ *Flag }
	IntFlag      struct{ *Flag }
	BoolFlag     struct{ *Flag }
	DurationFlag struct{ *Flag }
)

func (f *Flag) String() *StringFlag     { return &StringFlag{f} }
func (f *Flag) Int() *IntFlag           { return &IntFlag{f} }
func (f *Flag) Bool() *BoolFlag         { return &BoolFlag{f} }
func (f *Flag) Duration() *DurationFlag { return &DurationFlag{f} }

// Bind registers the flag on cmd and binds it to viper
func (f *StringFlag) Bind(cmd *cobra.Command, value, usage string) {
	cmd.PersistentFlags().String(f.cli, value, usage)
	f.bind(cmd)
}

// Bind registers the flag on cmd and binds it to viper
func (f *IntFlag) Bind(cmd *cobra.Command, value int, usage string) {
	cmd.PersistentFlags().Int(f.cli, value, usage)
	f.bind(cmd)
}

// Bind registers the flag on cmd and binds it to viper
func (f *BoolFlag) Bind(cmd *cobra.Command, value bool, usage string) {
	cmd.PersistentFlags().Bool(f.cli, value, usage)
	f.bind(cmd)
}

// Bind registers the flag on cmd and binds it to viper
func (f *DurationFlag) Bind(cmd *cobra.Command, value time.Duration, usage string) {
	cmd.PersistentFlags().Duration(f.cli, value, usage)
	f.bind(cmd)
}

func (f *Flag) bind(cmd *cobra.Command) {
	_ = viper.BindPFlag(f.config, cmd.PersistentFlags().Lookup(f.cli))
}
