// Package errors provides the pipeline error taxonomy.
//
// Stages and the validation layer return *AppError values; only the API
// error handler turns them into response bodies, through Resolve and ToBody.
package errors
