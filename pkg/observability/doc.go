/*
Package observability turns client lifecycle events into Prometheus metrics
and structured log records.

Both are exposed as domain.LifecycleHooks, so they plug into a client with
the same option used for custom hooks and can be combined with Merge:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
	client, err := tendril.Connect(ctx, tendril.WithLifecycleHooks(hooks))
*/
package observability
