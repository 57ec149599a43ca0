// Package events implements the per-uploader listener table.
//
// Four categories exist: beforesend, progress, load and error. Each has one
// default handler slot and an ordered list of registered callbacks. A dispatch
// calls the default handler first and then every callback in registration
// order, synchronously and with the same Event. A panicking handler is
// recovered and logged; the remaining handlers still run.
//
// Callbacks are registered as *Callback values so that Off can remove exactly
// the entries that were added, by identity.
package events
