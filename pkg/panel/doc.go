// Package panel switches between the three surfaces of the control panel:
// the extension list, the open extension and the connection panel.
//
// A Panel wires a session.Channel, a monitor.Monitor and a render.Host
// together and republishes everything they report on one buffered event
// channel, which front ends drain from their own loop.
package panel
