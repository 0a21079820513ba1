// Package version exposes build metadata for medpipe binaries.
//
//	go build -ldflags "-X github.com/kbukum/medpipe/version.Version=1.0.0 -X github.com/kbukum/medpipe/version.Commit=$(git rev-parse HEAD)" ./cmd/medpipe
package version
