/*
Package resolve is the only place where a Remote Reference turns into data.

Resolve serialises a reference's entire chain into one request, sends it over
the owning session and decodes the single response. However long the chain,
that is one round trip; the engine executes every intermediate step.

As converts the decoded payload into the caller's Go type (scalars, slices or
structs tagged with `json`), using mapstructure.

Every call re-executes its chain. Memoisation is available only by passing a
ports.ResultCache with WithResultCache.
*/
package resolve
