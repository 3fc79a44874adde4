/*
Package enginetest provides a programmable in-process engine for tests.

An Engine accepts sessions, checks credentials and answers chains from
fixtures registered with On:

	engine := enginetest.New(enginetest.WithCredentials("secret"))
	engine.On(chain).Return([]string{"a.txt", "b.txt"})

The same Engine can be reached through every transport: Transport returns an
in-process memory transport, Handler serves the HTTP and WebSocket protocols
for httptest, and ServeSocket listens on a Unix socket. Chains without a
fixture fall through to an optional Backend such as HostFS, which answers
host, directory and file operations from a real directory tree.
*/
package enginetest
