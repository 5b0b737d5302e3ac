// Package results persists the result URLs of each dork to its own file.
//
// Each dork maps to "<name>_results.txt" inside the results directory,
// where name is the dork made safe for use as a file name. Dorks that
// needed sanitizing get a short hash suffix so two different dorks never
// share a file.
package results
