// Package server implements the HTTP surface of Design Drop: the upload
// pipeline behind POST /upload, the submission listing at GET /admin,
// health and metrics endpoints, and optional serving of the front-end
// bundle. Dependencies (log store, notifier, clock) are passed to New.
package server
