/*
Package ports defines the driven ports (interfaces) for the canvass engine.

These interfaces decouple the navigation core from external implementations, allowing
the engine to work with various storage backends and survey definition sources.

# Key Interfaces

  - SessionStore: Persists and loads SessionState keyed by (survey, session).
  - CatalogLoader: Produces the immutable survey Catalog (e.g., from YAML files).
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
