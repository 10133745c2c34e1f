// Package api exposes the job tracker over HTTP: session authentication,
// the job start/status/update/remove endpoints, and the translation of
// domain and tracker errors into stable JSON responses for the dashboard.
package api
