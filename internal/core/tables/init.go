// Package tables registers the built-in source layouts with the core
// registry. Import this package to ensure all layouts are registered.
package tables

// This file exists to provide a single import point.
// Each layout file uses init() to register itself.
