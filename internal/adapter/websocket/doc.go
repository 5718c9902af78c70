// Package websocket runs the per-connection session protocol for comment-stream
// and watch-party viewers.
//
// A Session registers its connection for a video, optionally subscribes to the
// cross-instance relay, then reads text frames until the peer goes away. Watch-party
// sessions authenticate in-band with {"type":"auth","token":...}; until then every
// other frame is ignored. Authenticated control frames are tagged with the sender
// and fanned out locally and through the relay.
package websocket
