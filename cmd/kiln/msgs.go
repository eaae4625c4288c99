package kiln

import (
	"embed"
	"io/fs"
	"strings"
)

// Short messages (one-liners)
const (
	MsgRootShort       = "Rule-based asset build orchestrator"
	MsgBuildShort      = "Build the project's artifacts"
	MsgCheckShort      = "Run lint and type checks only"
	MsgConfigShort     = "Print the effective configuration"
	MsgTopicsShort     = "Display available documentation topics"
	MsgTopicsLong      = "Display a list of all available help topics, or one topic when named."
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate man pages"

	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig     = "Configuration file (default: kiln.toml in the project root)"
	MsgFlagRoot       = "Project root (default: current directory)"
	MsgFlagFormat     = "Output format: auto, term, text or json"
	MsgFlagMode       = "Build mode: development or production"
	MsgFlagOut        = "Output directory"
	MsgFlagDryRun     = "Build without writing artifacts"
	MsgFlagAnalyze    = "Write a stats.json report"
	MsgFlagNoMinify   = "Disable minification"
	MsgFlagSourceMaps = "Emit source maps"

	MsgErrLoadConfig = "failed to load configuration: %w"
	MsgErrNoCommand  = "no command specified"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/build-long.txt
	msgBuildLongRaw string
	MsgBuildLong    = strings.TrimSpace(msgBuildLongRaw)

	//go:embed msgs/build-example.txt
	msgBuildExampleRaw string
	MsgBuildExample    = strings.TrimRight(msgBuildExampleRaw, "\n")

	//go:embed msgs/check-long.txt
	msgCheckLongRaw string
	MsgCheckLong    = strings.TrimSpace(msgCheckLongRaw)

	//go:embed msgs/config-long.txt
	msgConfigLongRaw string
	MsgConfigLong    = strings.TrimSpace(msgConfigLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)

//go:embed topics/*.md
var topicsFS embed.FS

// helpTopics returns the embedded topics directory
func helpTopics() fs.FS {
	sub, err := fs.Sub(topicsFS, "topics")
	if err != nil {
		panic(err)
	}
	return sub
}
