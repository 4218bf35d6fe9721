// Package engine dispatches chat events to the conversation handler.
//
// ARCHITECTURE:
//
// Per-User Mailboxes:
// Every user has at most one mailbox (a FIFO event queue) and one goroutine
// draining it. This gives:
// - Strict arrival order for the events of one user
// - No interleaving of two events of the same user
// - Parallelism across users
//
// Event Processing Flow:
// 1. Transport calls Enqueue; the event is stamped with a seq and trace token
// 2. The user's mailbox goroutine dequeues it and calls the Handler
// 3. A handler error is logged and replaced by the generic failure notice
// 4. The reply is passed to the Sender together with the originating event
//
// A mailbox goroutine exits as soon as its queue is empty, so idle users
// cost nothing.
//
// Shutdown:
// Stop refuses new events, waits until every mailbox has drained, and then
// cancels the context handed to handlers and senders.
package engine
