// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package device

import (
	"github.com/danjacques/gopanelpixels/support/logging"

	"github.com/pkg/errors"
)

// Registry tracks the set of initialized Devices and maps panel IDs to the
// Devices that own them.
//
// Device enumeration order is the insertion order induced by port
// enumeration; clients rely on it for whole-fleet framebuffer uploads.
//
// Registry is not safe for concurrent use. In the intended model, all
// mutation happens from a single thread; the only concurrency in the system
// is the per-device fan-out inside Dispatcher.Commit, which does not touch
// the Registry.
type Registry struct {
	// Logger, if not nil, is the logger to use to log events.
	Logger logging.L

	// devices holds every registered device in insertion order.
	devices []*Device
	// byPanel maps each panel ID to the device that owns it.
	byPanel map[int]*Device

	// panelIDs is the lazily-built flat ordered list of panel IDs.
	panelIDs []int
}

// Add registers d.
//
// Add returns an error if d's UUID or either of its panel IDs collides with
// an already-registered device.
func (reg *Registry) Add(d *Device) error {
	for _, other := range reg.devices {
		if other.UUID() == d.UUID() {
			return errors.Errorf("duplicate device UUID %d (ports %s and %s)",
				d.UUID(), other.info.Name, d.info.Name)
		}
	}

	if reg.byPanel == nil {
		reg.byPanel = make(map[int]*Device)
	}
	for _, id := range []int{d.PanelOne(), d.PanelTwo()} {
		if _, ok := reg.byPanel[id]; ok {
			return errors.Errorf("duplicate panel ID %d", id)
		}
	}

	reg.devices = append(reg.devices, d)
	reg.byPanel[d.PanelOne()] = d
	reg.byPanel[d.PanelTwo()] = d
	reg.panelIDs = nil
	return nil
}

// Discover enumerates serial ports, probes each, and registers every device
// that completes a handshake.
//
// Ports that fail to open or to hand back a valid header are skipped and
// logged. Discover returns an error if enumeration itself fails, or if a
// probed device violates ID uniqueness.
func (reg *Registry) Discover(opts *Options) error {
	logger := logging.Must(reg.Logger)
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		probeOpts := *opts
		probeOpts.Logger = reg.Logger
		opts = &probeOpts
	}

	ports, err := opts.listPorts()
	if err != nil {
		return errors.Wrap(err, "unable to enumerate serial ports")
	}

	for _, info := range ports {
		d, err := Probe(info, opts)
		if err != nil {
			logger.Warnf("Skipping port %s: %s", &info, err)
			continue
		}

		if err := reg.Add(d); err != nil {
			_ = d.Close()
			return err
		}

		h := d.Header()
		logger.Infof("Added led interface on port %s, device id: %d, width: %d, height: %d",
			&info, d.UUID(), h.StripLength, h.LedHeight)
	}

	logger.Infof("Found %d valid LED interface(s).", len(reg.devices))
	return nil
}

// Device returns the registered device that owns the specified panel ID, or
// nil if the panel is unknown.
func (reg *Registry) Device(panelID int) *Device { return reg.byPanel[panelID] }

// Devices returns a snapshot of the registered devices in insertion order.
func (reg *Registry) Devices() []*Device {
	return append([]*Device(nil), reg.devices...)
}

// Len returns the number of registered devices.
func (reg *Registry) Len() int { return len(reg.devices) }

// PanelCount returns the number of panels across all registered devices.
func (reg *Registry) PanelCount() int { return len(reg.devices) * 2 }

// PanelIDs returns the flat ordered list of panel IDs, two per device in
// insertion order. The list is cached until the registry changes.
func (reg *Registry) PanelIDs() []int {
	if reg.panelIDs == nil && len(reg.devices) > 0 {
		reg.panelIDs = make([]int, 0, reg.PanelCount())
		for _, d := range reg.devices {
			reg.panelIDs = append(reg.panelIDs, d.PanelOne(), d.PanelTwo())
		}
	}
	return reg.panelIDs
}

// Close closes every registered device and resets all registry state,
// including the cached panel ID list.
//
// The first device close error is returned; all devices are closed
// regardless.
func (reg *Registry) Close() error {
	var firstErr error
	for _, d := range reg.devices {
		if err := d.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	reg.devices = nil
	reg.byPanel = nil
	reg.panelIDs = nil
	return firstErr
}
