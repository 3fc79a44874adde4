/*
Package tendril is a client for a remote execution engine.

A Client holds one session to the engine. Resources such as the host, its
directories, files and environment variables are represented as lazy,
immutable references: building one never talks to the engine. Only a
terminal call (one that returns data, like Directory.Entries or
File.Contents) sends the whole chain of operations in a single round trip.

# Usage

	ctx := context.Background()
	client, err := tendril.Connect(ctx, tendril.WithEndpoint("http://127.0.0.1:8080"))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	entries, err := client.Host().Directory(".").Entries(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(entries)

# Configuration

Settings are read from built-in defaults, an optional YAML or JSON file
(WithConfigFile), the TENDRIL_* environment variables and finally the
options passed to Connect, each overriding the previous one.

# Errors

Every failure is one of four types, all usable with errors.As:

  - ConnectionError: the session could not be established.
  - ConnectionClosedError: the session is not Ready; nothing was sent.
  - TransportError: the exchange failed mid-flight (timeout, disconnect).
  - ResolutionError: the engine executed the chain and reported a fault.
*/
package tendril
