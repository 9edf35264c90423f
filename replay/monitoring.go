// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recorderActiveGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "led_recorder_active",
		Help: "Number of recorders currently recording.",
	})

	recorderFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "led_recorder_frames",
		Help: "Count of frames offered to recorders.",
	})

	recorderErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "led_recorder_errors",
		Help: "Count of frame write errors encountered while recording.",
	})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		recorderActiveGauge,
		recorderFrames,
		recorderErrors,
	)
}
