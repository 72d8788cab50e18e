// Package theme handles CSS theme loading and hot-reload for the lockind
// overlay. Bundled themes are embedded; user themes in
// ~/.config/lockind/themes/ override them by name.
package theme
