package server

import "errors"

var (
	// errNoSession is an event arriving before session.open/restart.
	errNoSession = errors.New("no session open on this connection")

	// errSessionBusy is a second open/restart on a live session.
	errSessionBusy = errors.New("connection already has an open session")
)
