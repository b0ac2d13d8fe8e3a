// Package retry runs remote operations under an explicit, per-class retry
// policy.
//
// Failures are classified as timeout, authorization, communication, or fatal.
// Each class has its own budget: timeouts are retried after a short pause up
// to a total attempt cap, an authorization fault triggers one re-authentication
// followed by one retry, a communication fault earns one delayed retry, and
// anything else fails immediately. Sleeps honour context cancellation.
package retry
