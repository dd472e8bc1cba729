// Package render turns schema documents into live widget trees and reduces
// every interaction with them to an Action: a button key plus a snapshot of
// the form data. Render is a pure constructor; Host owns the surfaces a
// front end displays and guarantees that each surface holds at most one live
// tree, replacing rather than stacking on every mount.
//
// Output renderers (HTML, styled text) implement Renderer and are looked up
// through a Registry, mirroring how front ends pick a presentation at run
// time.
package render
