// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (identifiers, key records, errors) and contracts
// (interfaces) only.
package domain
