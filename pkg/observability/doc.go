/*
Package observability exposes the Prometheus metrics of the dialogue engine.

A nil *Metrics is valid and records nothing, so components can take one as an
optional dependency.
*/
package observability
