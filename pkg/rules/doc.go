// Package rules classifies source files into transform chains.
//
// Rules come from the `rules` configuration list and are evaluated in the
// order they are declared. The first rule whose test pattern matches the
// file's path, and whose exclude pattern does not, wins. Specificity plays
// no part: a broad rule declared early shadows a narrow one declared later.
//
//	[[rules]]
//	name = "typescript"
//	test = '\.tsx?$'
//	exclude = 'node_modules'
//	use = ["typescript"]
//
//	[[rules]]
//	name = "images"
//	test = '\.png$'
//	type = "asset/resource"
//
// A match is either an explicit chain (MatchKindRule) or a pass-through
// copy (MatchKindAsset). Asset matches come from rules typed
// asset/resource or, when no rule matches, from the declared static asset
// extensions. Anything else fails with NO_MATCHING_RULE.
package rules
