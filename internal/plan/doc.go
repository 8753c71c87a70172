// Package plan turns a resolved configuration and a requested selection of
// target or group names into an executable plan: the pruned dependency
// graph, its layered topological order, and one build invocation descriptor
// per selected target. Construction fails fast on unknown names and cycles;
// nothing in this package performs IO.
package plan
