// Package cli is the interactive terminal client: log in once, then upload
// CSV files, browse the history window, inspect rows and download reports.
// The credentials stay in memory and are sent with every request.
package cli
