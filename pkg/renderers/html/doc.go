// Package html renders live forms as HTML fragments. Templates are pongo2
// files embedded in the binary; document descriptions pass through a
// bluemonday policy before they reach the page.
package html
