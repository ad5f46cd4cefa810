// Package openapi derives form definitions from OpenAPI 3 request bodies so a
// form can track the backend contract instead of restating it. Properties map
// onto fields; required, minLength, maxLength, pattern, enum and format=email
// map onto validation rules.
package openapi
