// Package template defines the engine seam the HTML renderer and component
// pages render through. The pongo subpackage provides the pongo2 engine.
package template
