// Package stepform provides an embeddable multi-step form wizard for Go.
//
// A wizard splits one form into an ordered list of field groups. Visitors
// fill one group per step; the submission is saved after every step, so an
// interrupted visitor can come back later through a resume link carrying the
// submission id and a secret token. Once the last step is saved the visitor
// is sent back to the parent record the form was opened from.
//
// # Core Concepts
//
//  1. Catalog
//  2. Store
//  3. Controller
//  4. WizardBuilder
//
// # Catalog
//
// A Catalog returns the ordered field groups of a wizard. Step n renders the
// group at index n-1. Catalogs are consulted on every request, so a
// file-backed catalog picks up edits without a restart. An empty catalog is
// a configuration error and the wizard refuses to render.
//
// # Store
//
// A Store keeps submissions and the parent back-references written on
// completion. Backends:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite
//   - Postgres
//   - Redis
//   - MongoDB
//
// Step progression is a compare-and-set in every backend. Of two requests
// racing on the same step, the first moves the submission forward and the
// second is absorbed as a revisit: both save their fields and neither is
// rejected. Of two racing final submits, exactly one completes the
// submission.
//
// # Controller
//
// The Controller is the state machine. Render decides which step a request
// shows, either a fresh start or a resumed submission, and Submit saves the
// posted group and returns the NextAction: render a form, redirect to the
// next step or to the parent record, or ignore a save that belongs to
// another form.
//
// Requests reach the Controller as an immutable RequestContext built at the
// HTTP boundary. Resume tokens are compared in constant time; a bad token
// or an out-of-range step quietly starts a new submission instead of failing.
//
// # WizardBuilder
//
// WizardBuilder is the fluent way to define a wizard:
//
//	ctrl, err := stepform.New("contact").
//	    Group("personal").
//	    Group("address").
//	    Group("message").
//	    OnComplete(stepform.Retry(3).Action(notifySales)).
//	    Build(store)
//
// For a ready-made HTTP server with an admin API, see cmd/stepform.
package stepform
