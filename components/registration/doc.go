// Package registration serves the owner sign-up form: it validates the
// submitted values, creates the user account with a generated password and
// then the company owned by that account, and redirects to the login page.
//
// GET renders the empty form. POST re-renders it with field errors (422)
// when validation or the backend rejects the input, with the failing step
// named when a write fails (502), and redirects with 303 on success.
package registration
