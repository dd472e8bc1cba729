// Package session holds the one duplex stream between the panel and the
// extension currently on screen.
//
// A Channel opens the Connect stream for an extension, mounts every pushed
// document on a render.Host (SHOW_DIALOG pushes on the dialog surface, the
// rest inline) and turns form actions into SubmitForm, Cancel and Close
// calls. Pushes tagged with another extension id, or arriving on a stream the
// channel has already replaced, are dropped. A broken stream leaves the
// session Failed; it is never reopened automatically.
package session
