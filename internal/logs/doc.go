// Package logs tails the daemon log file with bounded memory usage. It
// supports a negative offset for "last N lines" reads and offset-based
// resumption so `camclip logs --follow` can poll without re-reading.
package logs
