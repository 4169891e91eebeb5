// Package watcher keeps the index synchronized with a live project tree.
//
// Raw fsnotify events are noisy: editors write a file several times per save
// and build tools touch whole directories. The watcher debounces by path, so
// a file is dispatched for reanalysis only after it has been quiet for the
// configured window, and exactly once per burst. Deletions skip the debounce
// and clean up the index immediately.
package watcher
