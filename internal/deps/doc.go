// Package deps locates the external programs bitgraph shells out to.
//
// Lookup prefers copies shipped next to the bitgraph executable or in the
// working directory (and their lib/ subdirectories) over fixed system
// directories, and only then asks the platform PATH search utility. This lets
// a bundled ffprobe win over whatever the system has installed.
package deps
