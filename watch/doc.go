// Package watch rebuilds the index when the corpus changes.
//
// Watcher recursively registers the corpus directories with fsnotify and
// feeds relevant events into a Debouncer. Each quiet period after a burst of
// changes produces one batch of paths, and one rebuild. Rebuilds run one at a
// time; changes that arrive during a rebuild are collected for the next one.
package watch
