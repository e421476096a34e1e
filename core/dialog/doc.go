// Package dialog implements a menu-driven conversation engine: named states
// composed of numbered steps, a per-conversation session with scratch storage,
// nested input hooks, and a dispatcher that routes one inbound event through
// guard checks, a state transition, and a menu render.
// It is intentionally transport-agnostic so it can be reused across bots.
package dialog
