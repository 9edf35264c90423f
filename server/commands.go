// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package server

import (
	"net"

	"github.com/danjacques/gopanelpixels/led"
	"github.com/danjacques/gopanelpixels/support/dataio"
	"github.com/danjacques/gopanelpixels/support/logging"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// CommandID is a protocol command identifier. IDs are fixed wire constants.
type CommandID int32

const (
	// CommandGetConfig requests the display configuration.
	CommandGetConfig CommandID = 0
	// CommandDrawPanel uploads one panel's framebuffer.
	CommandDrawPanel CommandID = 1
	// CommandDrawAll uploads every panel's framebuffer, in panel-ID order.
	CommandDrawAll CommandID = 2
	// CommandFlush commits the uploaded framebuffers to the hardware.
	CommandFlush CommandID = 3
	// CommandSetDebugMode toggles debug mode. Reserved; currently a no-op.
	CommandSetDebugMode CommandID = 4
)

// Session is the state of a single accepted client connection.
type Session struct {
	conn     net.Conn
	displays *led.Displays
	logger   logging.L

	// debugMode is set by CommandSetDebugMode. Reserved.
	debugMode bool
}

// Command is a single protocol command.
//
// An Execute error terminates the session; the connection is closed by the
// caller.
type Command interface {
	// ID is the command's wire identifier.
	ID() CommandID

	// Name is the command's human-readable name, used in logs.
	Name() string

	// Execute reads the command's payload from the session connection,
	// performs the command, and writes any response.
	Execute(s *Session) error
}

// commands is the fixed command table, indexed by wire ID.
var commands = []Command{
	&getConfigCommand{},
	&drawPanelCommand{},
	&drawAllCommand{},
	&flushCommand{},
	&setDebugModeCommand{},
}

// commandByID returns the Command registered for id, or nil if id is
// unknown.
func commandByID(id CommandID) Command {
	for _, cmd := range commands {
		if cmd.ID() == id {
			return cmd
		}
	}
	return nil
}

// getConfigCommand reports the number of panels followed by one record per
// panel, in panel-ID order: panel ID, LED count, byte size, height, width.
type getConfigCommand struct{}

func (*getConfigCommand) ID() CommandID { return CommandGetConfig }
func (*getConfigCommand) Name() string  { return "GetConfig" }

func (*getConfigCommand) Execute(s *Session) error {
	panelIDs := s.displays.AvailableDisplayNumbers()

	if err := writeInt32(s.conn, int32(s.displays.Count())); err != nil {
		return errors.Wrap(err, "unable to send panel count")
	}

	for _, id := range panelIDs {
		record := configRecord{
			PanelID:  int32(id),
			Size:     int32(s.displays.Size(id)),
			ByteSize: int32(s.displays.ByteSize(id)),
			Height:   int32(s.displays.Height(id)),
			Width:    int32(s.displays.Stride(id)),
		}
		if err := struc.Pack(s.conn, &record); err != nil {
			return errors.Wrapf(err, "unable to send configuration for panel %d", id)
		}
	}
	return nil
}

// drawPanelCommand reads a panel ID followed by exactly that panel's byte
// size of raw RGB data, directly into the panel's framebuffer.
type drawPanelCommand struct{}

func (*drawPanelCommand) ID() CommandID { return CommandDrawPanel }
func (*drawPanelCommand) Name() string  { return "DrawPanel" }

func (*drawPanelCommand) Execute(s *Session) error {
	id, err := readInt32(s.conn)
	if err != nil {
		return errors.Wrap(err, "unable to read panel number")
	}

	if !s.displays.Exists(int(id)) {
		return errors.Errorf("panel %d does not exist", id)
	}
	return readPanelData(s, int(id))
}

// drawAllCommand reads every panel's framebuffer back-to-back, in panel-ID
// order.
type drawAllCommand struct{}

func (*drawAllCommand) ID() CommandID { return CommandDrawAll }
func (*drawAllCommand) Name() string  { return "DrawAll" }

func (*drawAllCommand) Execute(s *Session) error {
	for _, id := range s.displays.AvailableDisplayNumbers() {
		if err := readPanelData(s, id); err != nil {
			return err
		}
	}
	return nil
}

func readPanelData(s *Session, id int) error {
	buf := s.displays.Data(id)
	if buf == nil {
		return errors.Errorf("panel %d has no framebuffer bound", id)
	}

	byteSize := s.displays.ByteSize(id)
	if err := dataio.ReadFull(s.conn, buf.Bytes()[:byteSize]); err != nil {
		return errors.Wrapf(err, "unable to read display stream for panel %d", id)
	}
	return nil
}

// flushCommand commits the uploaded framebuffers to the LED hardware.
type flushCommand struct{}

func (*flushCommand) ID() CommandID { return CommandFlush }
func (*flushCommand) Name() string  { return "Flush" }

func (*flushCommand) Execute(s *Session) error {
	s.displays.EndDisplay()
	return nil
}

// setDebugModeCommand validates and stores the debug mode flag. Reserved;
// the flag has no behavior yet.
type setDebugModeCommand struct{}

func (*setDebugModeCommand) ID() CommandID { return CommandSetDebugMode }
func (*setDebugModeCommand) Name() string  { return "SetDebugMode" }

func (*setDebugModeCommand) Execute(s *Session) error {
	mode, err := readInt32(s.conn)
	if err != nil {
		return errors.Wrap(err, "unable to read debug mode")
	}
	if mode != 0 && mode != 1 {
		return errors.Errorf("invalid debug mode %d", mode)
	}

	s.debugMode = mode == 1
	s.logger.Debugf("Debug mode set to %d.", mode)
	return nil
}
