// Package client talks to the equipview HTTP API. Every request carries the
// user's Basic credentials; there is no session.
package client
