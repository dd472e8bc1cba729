// Package devcore is an in-memory core that serves the Core and ExtensionHost
// services. It runs behind the devcore command during development and backs
// the session, monitor and panel tests over an in-process listener.
package devcore
