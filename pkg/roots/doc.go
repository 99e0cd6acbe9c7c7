// Package roots registers garbage collection roots for store paths.
//
// A root is a two-hop symlink chain:
//
//	<root_dir>/<name>                                 -> <store_path>
//	<state_dir>/gcroots/per-user/<user>/<id>-<name>   -> <root_dir>/<name>
//
// The collector only scans the per-user directory. Because the second hop
// points into the project's own root directory, deleting that directory
// invalidates every root of the project at once without touching the
// collector's namespace.
//
// Replacing a root removes the old link and creates the new one with two
// separate calls. A collector sweep running in that gap can see the store
// path as unreferenced. Callers that need more must keep registration and
// collection from running at the same time.
//
// Recoverable failures are returned as *errors.Error values for which
// errors.IsAddRootError reports true. An environment that can never work
// (no user, a per-user path that is not a directory) panics with a
// *MisconfigurationError instead.
package roots
