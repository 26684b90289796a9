// Package validator provides struct validation for Angela.
//
// This package wraps go-playground/validator to provide:
//   - Consistent validation across all services
//   - Human-readable error messages
//   - Field names matching the JSON wire format
//
// # Usage
//
// Services call validator.Validate on parsed input structs:
//
//	if err := validator.Validate(input); err != nil {
//	    // err is a validator.ValidationErrors
//	}
//
// The message table covers the tags the domain package uses (required,
// email, min, max, timezone); anything else falls through to a generic
// message naming the tag.
package validator
