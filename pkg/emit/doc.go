// Package emit turns assembled chunks into the build's artifact set and
// writes it to the output directory.
//
// Assembly is pure: each chunk yields a script bundle of its script
// modules, a stylesheet of its extracted style modules, and one file per
// asset module, optionally followed by minification, source maps, the
// entry HTML document and a stats report. Writing is all or nothing: the
// set is staged in a sibling directory and swapped in once complete.
package emit
