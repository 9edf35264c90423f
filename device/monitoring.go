// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package device

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	deviceOnlineGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "led_device_online",
		Help: "Whether a given LED interface device is initialized.",
	},
		[]string{"id", "port"})

	devicePixelCountGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "led_device_pixel_count",
		Help: "Total number of LEDs attached to a given device.",
	},
		[]string{"id", "port"})

	deviceFramesWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "led_device_frames_written",
		Help: "Count of frames written to a device.",
	},
		[]string{"id", "port"})

	deviceFrameBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "led_device_frame_bytes",
		Help: "Count of frame bytes written to a device.",
	},
		[]string{"id", "port"})

	deviceWriteErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "led_device_write_errors",
		Help: "Count of errors encountered writing frames to a device.",
	},
		[]string{"id", "port"})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		deviceOnlineGauge,
		devicePixelCountGauge,
		deviceFramesWritten,
		deviceFrameBytes,
		deviceWriteErrors,
	)
}

// Monitoring is a thin wrapper around a Device that logs monitoring
// information about that device.
type Monitoring struct {
	initOnce sync.Once
	labels   prometheus.Labels
}

func (md *Monitoring) init(d *Device) {
	md.initOnce.Do(func() {
		md.labels = prometheus.Labels{
			"id":   strconv.Itoa(d.UUID()),
			"port": d.info.Name,
		}
	})
}

// Probed records that d completed its handshake and is online.
func (md *Monitoring) Probed(d *Device) {
	md.init(d)
	deviceOnlineGauge.With(md.labels).Set(1)
	devicePixelCountGauge.With(md.labels).Set(float64(d.header.DevicePixels()))
}

// Closed records that d has been closed.
func (md *Monitoring) Closed(d *Device) {
	md.init(d)
	deviceOnlineGauge.With(md.labels).Set(0)
	devicePixelCountGauge.With(md.labels).Set(0)
}

// FrameWritten records a successful frame write of size bytes.
func (md *Monitoring) FrameWritten(d *Device, size int) {
	md.init(d)
	deviceFramesWritten.With(md.labels).Inc()
	deviceFrameBytes.With(md.labels).Add(float64(size))
}

// WriteError records a failed frame write.
func (md *Monitoring) WriteError(d *Device) {
	md.init(d)
	deviceWriteErrors.With(md.labels).Inc()
}
