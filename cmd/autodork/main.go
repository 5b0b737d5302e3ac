// Package main provides the entry point for the autodork CLI.
//
// autodork runs a list of search dorks through a pool of validated public
// proxies, rotating proxies and User-Agent headers between attempts, and
// saves the top result URLs of each dork to its own file.
//
// Usage:
//
//	autodork
//	autodork -v --dorks queries.txt --results out
//	autodork history "site:example.com"
//
// See --help for all available options.
package main

// main is the entry point for autodork.
func main() {
	Execute()
}
