// Package mail delivers outbound messages asynchronously. Requests hand a
// Message to the Dispatcher and return immediately; a fixed pool of workers
// drains the queue into a Sender. Delivery failures are logged and never
// reach the request that caused them.
package mail
