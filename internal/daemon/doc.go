// Package daemon provides the supporting services of the running indicator:
// configuration hot-reload and self-notifications about reloads and
// component failures.
package daemon
