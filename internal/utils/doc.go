// Package utils holds small helpers shared by the fetch packages: response
// body cleanup, pointer construction and log-safe string truncation.
package utils
