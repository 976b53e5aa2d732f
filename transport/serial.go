//go:build linux

// Package transport implements the wire-level links the STAR and Prep
// backends send framed commands over.
/*
 * Copyright (c) 2024-2026, Benchctl, Inc. All rights reserved.
 */
package transport

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// SerialTransport implements Transport over a raw serial/USB-CDC file
// descriptor, the practical stand-in for the STAR USB bulk endpoint
// (vendor-specific, product id 0x8000 by default): this module does
// not vendor a USB host-stack library, so the device node's
// tty-compatible character interface is used directly, configured into
// raw mode via termios.
type SerialTransport struct {
	f *os.File
	t Timeouts
}

// OpenSerial opens path (e.g. "/dev/ttyUSB0") and puts it into raw
// mode: no echo, no line discipline, 8N1, non-canonical reads.
func OpenSerial(path string, t Timeouts) (*SerialTransport, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: opening serial device %s: %w", path, err)
	}
	if err := setRawMode(int(f.Fd())); err != nil {
		f.Close()
		return nil, fmt.Errorf("transport: configuring raw mode on %s: %w", path, err)
	}
	return &SerialTransport{f: f, t: t}, nil
}

func setRawMode(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}

// Write sends frame.
func (s *SerialTransport) Write(_ context.Context, frame []byte) error {
	s.f.SetWriteDeadline(time.Now().Add(s.t.WriteTimeout))
	_, err := s.f.Write(frame)
	return err
}

// Read reads up to and including the next \n, so a \r\n-terminated
// STAR frame is returned whole; a frame ending in a bare \r is not
// treated as complete.
func (s *SerialTransport) Read(_ context.Context) ([]byte, error) {
	s.f.SetReadDeadline(time.Now().Add(s.t.PacketReadTimeout))
	var out []byte
	buf := make([]byte, 1)
	for {
		n, err := s.f.Read(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		out = append(out, buf[0])
		if buf[0] == '\n' {
			return out, nil
		}
	}
}

// Close closes the device.
func (s *SerialTransport) Close() error { return s.f.Close() }
