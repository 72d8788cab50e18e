// Package lockkeys reads the toggle state of the keyboard lock keys
// (Caps Lock, Num Lock, Scroll Lock) from the host.
// Readers never fail: a key whose state cannot be queried reads as off.
package lockkeys
