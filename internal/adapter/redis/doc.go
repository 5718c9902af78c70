// Package redis is the broker side of the cross-instance relay.
//
// Every server process publishes the control messages of its own viewers to
// "watchparty:video:<id>" and holds one subscription per watch-party session, so
// viewers of the same video connected to different processes stay in sync.
// Each message is wrapped in an envelope carrying the publishing instance id;
// subscribers drop their own instance's messages because local delivery already
// covered those viewers.
package redis
