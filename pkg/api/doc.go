// Package api contains the types shared by the stepform wizard controller,
// its stores and its request boundary.
//
// Most users interact with the higher-level stepform package, which
// re-exports selected types and helpers from this package. The api package
// is intended for custom stores, catalogs and observers.
//
// # Concepts
//
//   - Submission: the persisted record a visitor fills in step by step.
//   - Catalog: the ordered field groups; step n renders group n-1.
//   - RequestContext: the immutable per-request input to the wizard.
//   - RenderedOutput / NextAction: what the wizard asks the boundary to do.
//
// # Errors
//
// Only two failures ever reach a visitor: a *ConfigurationError (the wizard
// has no usable catalog) and store failures. Resume and step anomalies are
// downgraded to "start a new submission" and reported to observers with
// ErrResumeDenied, ErrOutOfRangeStep or ErrForeignSubmission as the reason.
//
// # Observability
//
// Observer receives lifecycle callbacks. LoggingObserver writes them with
// log/slog, BasicMetrics counts them, and NewCompositeObserver combines
// several.
package api
