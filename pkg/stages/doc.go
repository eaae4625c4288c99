// Package stages defines the transform stage contract and kiln's built-in
// reference stages.
//
// A stage is a pure content transform: it receives a file's current
// content plus the options configured for it in a rule's `use` list and
// returns new content, the import specifiers it discovered and any
// diagnostics. Stages never touch the filesystem; specifier resolution is
// done by the graph builder.
//
// # Built-in stages
//
//   - script (aliases babel, typescript) - discovers import/require specifiers
//   - css - discovers @import and url() references
//   - less, sass - strip line comments, discover @import/@use references
//   - style-inject - wraps CSS in a script that appends a <style> element
//   - extract-css - routes the module to the chunk's extracted stylesheet
//   - csv, xml, json - turn data files into script modules
//   - raw - pass-through
//
// Stages are looked up by name through a Registry; configuration that
// references an unknown name fails with STAGE_NOT_FOUND.
package stages
