// Package stage derives a work item's lifecycle stage from the marker
// artifacts in its directory.
//
// Infer is pure: the same marker set always yields the same stage, and
// nothing about an item's previous stage is consulted. Each stage is gated on
// the full chain of its prerequisites, so an out-of-order artifact (a
// thumbnail without a video) does not lift the stage. A denial marker
// overrides everything.
package stage
