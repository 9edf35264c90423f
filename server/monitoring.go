// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	connectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "led_server_connections",
		Help: "Count of accepted client connections.",
	})

	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "led_server_commands",
		Help: "Count of executed protocol commands.",
	},
		[]string{"command"})

	commandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "led_server_command_errors",
		Help: "Count of protocol commands that failed and closed the session.",
	},
		[]string{"command"})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		connectionsTotal,
		commandsTotal,
		commandErrors,
	)
}
