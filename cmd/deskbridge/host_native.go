//go:build native

package main

import (
	"github.com/cristianoliveira/deskbridge/internal/host"
	"github.com/cristianoliveira/deskbridge/internal/host/headless"
	"github.com/cristianoliveira/deskbridge/internal/host/native"
	"github.com/cristianoliveira/deskbridge/internal/logging"
)

func newHost(display host.Display, paths host.Paths, log logging.Logger) (*headless.WindowHost, host.Host) {
	base, h := native.New(display, paths, log)
	return base.Windows, h
}
