/*
Package query builds Remote References: immutable, lazily evaluated handles that
describe a chain of operations for the engine to run.

Building a reference never performs I/O and never fails. Each call to Select
returns a new Ref with one more operation; the receiver is left untouched, so a
Ref can be shared between goroutines and extended in several directions:

	host := query.Root(sess, "host")
	dir := host.Select("directory", query.Arg("path", "."))
	entries := dir.Select("entries")  // still nothing sent
	files := dir.Select("glob", query.Arg("pattern", "*.go"))

Only the resolve package turns a Ref into a value.
*/
package query
