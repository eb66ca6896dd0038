/*
Package observability exposes Prometheus metrics for calculations, imports
and HTTP traffic.

Metrics live on a private registry so that several servers (or tests) in the
same process do not collide; Handler serves it.
*/
package observability
