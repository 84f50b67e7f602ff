/*
Package observability turns engine lifecycle events into Prometheus metrics and
structured audit logs.

Both are plain domain.LifecycleHooks, so they compose with each other and with
caller supplied hooks through LifecycleHooks.Merge.
*/
package observability
