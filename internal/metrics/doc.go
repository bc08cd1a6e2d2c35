// Package metrics exposes Prometheus collectors for the development server.
package metrics
