// Package app provides the application service layer.
//
// Orchestrates the comment use cases: validate, persist, then hand the stored comment to the
// live fan-out. Sits between HTTP handlers and domain repositories. Depends on domain interfaces,
// not concrete implementations.
package app
