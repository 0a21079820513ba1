// Package util holds small helpers shared across packages: size parsing,
// pointer defaults, and text sanitation.
package util
