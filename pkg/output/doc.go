// Package output renders build and check reports.
//
// Three formats are supported: terminal (styled with lipgloss), text
// (plain lines, used when piped or NO_COLOR is set) and json. FormatAuto
// picks terminal or text from the writer's capabilities.
package output
