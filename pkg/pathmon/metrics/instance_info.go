// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	instanceInfoMetricName = "pathmon_instance_info"
	instanceInfoHelp       = "Ownership and platform metadata of this pathmon instance."
	instanceNameLabel      = "instance_name"
)

// InstanceLabels are the metadata labels of the instance info metric
var InstanceLabels = []string{"team_name", "team_email", "platform"}

// RegisterInstanceInfo registers the pathmon_instance_info metric on the registry.
// The gauge is 1 and labelled with the instance name and the metadata of
// [InstanceLabels]; missing metadata results in empty label values and
// unknown metadata keys are ignored.
func RegisterInstanceInfo(registry *prometheus.Registry, instanceName string, metadata map[string]string) error {
	labels := append(slices.Clone(InstanceLabels), instanceNameLabel)
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: instanceInfoMetricName,
			Help: instanceInfoHelp,
		},
		labels,
	)

	values := prometheus.Labels{instanceNameLabel: instanceName}
	for _, l := range InstanceLabels {
		values[l] = metadata[l]
	}
	info.With(values).Set(1)
	return registry.Register(info)
}

