// Package display renders the lock key indicator as a GTK4/libadwaita
// overlay window. The window is placed with Wayland layer-shell, reused
// across changes, and only touched from the GTK main loop.
package display
