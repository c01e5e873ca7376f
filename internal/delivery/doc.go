// Package delivery pushes finished recordings to their destination. The
// primary mechanism is the Telegram Bot API; when it is exhausted the engine
// walks a chain of fallback hooks so an artifact that cannot be uploaded at
// least produces a message saying where it is stored.
package delivery
