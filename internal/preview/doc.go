// Package preview serves a live HTML preview of a markdown file.
//
// A Watcher reports debounced file changes, the Server re-renders the
// document on each change, and the Hub pushes the result to every browser
// tab over a websocket. Clients may send zoom commands back; the zoom level
// is shared by all tabs.
package preview
