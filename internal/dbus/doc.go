// Package dbus shows the lock key indicator as a desktop notification through
// the org.freedesktop.Notifications D-Bus interface. It is the fallback for
// sessions where a layer-shell overlay is not available.
package dbus
