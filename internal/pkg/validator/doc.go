// Package validator validates request structs through struct tags.
//
// Usecases depend on the Validator interface; V10Validator implements it on
// top of go-playground/validator with English messages and snake_case keys.
package validator

// Validator validates a struct and returns a V10ValidationError listing the
// offending fields.
type Validator interface {
	Validate(data any) error
}
