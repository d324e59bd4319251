// Package am implements the applet manager's ICommonStateGetter service.
//
// A CommonStateGetter is created per session. It reads the session's mode,
// focus and message queue, hands out copy handles to the message and
// display-resolution events, and forwards power requests to an apm-backed
// PowerManager. Commands are registered once in a static table with their
// minimum firmware revision; see Commands.
package am
