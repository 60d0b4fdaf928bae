// Package testutil provides storage doubles for exercising persistence
// failure and concurrency paths in tests.
package testutil
