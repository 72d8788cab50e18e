// Package audio plays a short cue when lock key state changes. Files are
// decoded with beep (WAV, OGG, MP3) and cached; without a configured file a
// generated tone is used.
package audio
