// Package indicator implements the lock key indicator controller.
// It polls a lockkeys.Reader on a fixed interval, compares each snapshot
// against the previous one, and on change shows the status through a
// Display and arms a one-shot hide timer. A new change while the status is
// visible updates it in place and restarts the timer.
package indicator
