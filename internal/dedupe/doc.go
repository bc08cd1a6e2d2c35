// Package dedupe provides a time and size bounded cache of request results,
// so a request retried with the same idempotency key within the window gets
// the original answer instead of being processed again.
package dedupe
