// Package notifications surfaces transient user notices.
//
// Notices land in a Feed that expires them after a short TTL (three seconds
// by default), mirroring toast messages. The Hub additionally forwards errors
// and research completions to ntfy when a topic is configured, and degrades to
// a no-op push service otherwise. Pipeline code depends only on the small
// Notifier interface.
package notifications
