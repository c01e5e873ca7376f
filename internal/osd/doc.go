// Package osd renders a text overlay onto captured frames. Templates with
// {placeholder} tokens are expanded against live camera telemetry and the
// result is drawn over a translucent backing box at a configurable anchor.
package osd
