// Package broadcast holds the per-video connection registry and the delivery paths built on it.
//
// A Client wraps one WebSocket with a bounded outbound queue drained by its own writer goroutine,
// so producers never block on a slow viewer: a full queue drops the message. The Registry maps a
// video id to its open clients under a single mutex and hands out snapshots, so no network I/O
// happens while the lock is held. Broadcaster delivers control messages to every client of a video
// except the origin. CommentFanout pushes persisted comments to comment-stream viewers.
package broadcast
