// Package agent runs invocations against registry bindings: it builds the
// request options from configuration, retries provider failures that happen
// before any output was delivered, and handles titles and images.
package agent
