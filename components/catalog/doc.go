// Package catalog manages equipment catalog items on the backend: a client
// for the items collection, form value parsing for create and update
// payloads, and a page handler listing the items with a create/edit dialog.
//
// POST requests dispatch on the "intent" field (create, update, delete) and
// answer with an ActionResponse, rendered into the page or encoded as JSON
// when the client accepts it.
package catalog
