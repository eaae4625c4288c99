package kiln

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/kiln/internal/version"
	"github.com/arthur-debert/kiln/pkg/build"
	"github.com/arthur-debert/kiln/pkg/cobrax/topics"
	"github.com/arthur-debert/kiln/pkg/config"
	"github.com/arthur-debert/kiln/pkg/logging"
	"github.com/arthur-debert/kiln/pkg/output"
)

// ErrFailed is returned by commands whose report has already been
// rendered but whose outcome is a failure. Callers exit non-zero without
// printing it again.
var ErrFailed = errors.New("kiln: command failed")

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	verbosity  int
	configFile string
	root       string
	format     string
}

// buildFlags are the flags of the build command
type buildFlags struct {
	mode       string
	out        string
	dryRun     bool
	analyze    bool
	noMinify   bool
	sourceMaps bool
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "kiln",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLoggerWithOutput(g.verbosity, cmd.ErrOrStderr())
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&g.root, "root", "", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&g.format, "format", "auto", MsgFlagFormat)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newBuildCmd(g))
	rootCmd.AddCommand(newCheckCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	opts := topics.Options{
		Extensions: []string{".md"},
		Renderer:   topics.NewGlamourRenderer(),
	}
	if _, err := topics.InitializeWithOptions(rootCmd, helpTopics(), opts); err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

// loadConfig loads the effective configuration with overrides applied on
// top of the project file and the environment
func loadConfig(g *globalFlags, overrides map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Root:      g.root,
		File:      g.configFile,
		Overrides: overrides,
	})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	return cfg, nil
}

// newRenderer creates the renderer selected by --format for w
func newRenderer(g *globalFlags, w io.Writer) (output.Renderer, error) {
	format, err := output.ParseFormat(g.format)
	if err != nil {
		return nil, err
	}
	return output.NewRenderer(format, w)
}

// overrides maps the build flags that were set to configuration keys
func (b *buildFlags) overrides(cmd *cobra.Command, entries []string) map[string]interface{} {
	o := map[string]interface{}{}
	flags := cmd.Flags()
	if flags.Changed("mode") {
		o["mode"] = b.mode
	}
	if flags.Changed("out") {
		o["output.dir"] = b.out
	}
	if flags.Changed("analyze") {
		o["analyze"] = b.analyze
	}
	if flags.Changed("no-minify") && b.noMinify {
		o["minify"] = false
	}
	if flags.Changed("source-maps") {
		o["source_maps"] = b.sourceMaps
	}
	if len(entries) > 0 {
		o["entry"] = entries
	}
	return o
}

func newBuildCmd(g *globalFlags) *cobra.Command {
	b := &buildFlags{}

	cmd := &cobra.Command{
		Use:     "build [entries...]",
		Short:   MsgBuildShort,
		Long:    MsgBuildLong,
		Example: MsgBuildExample,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(g, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(g, b.overrides(cmd, args))
			if err != nil {
				return err
			}

			res, err := build.Build(commandContext(cmd), cfg, build.Options{DryRun: b.dryRun})
			if rerr := renderer.Render(output.NewBuildReport(res, b.dryRun)); rerr != nil {
				return rerr
			}
			if err != nil {
				log.Debug().Err(err).Msg("Build aborted")
				return ErrFailed
			}
			if res.Failed {
				return ErrFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&b.mode, "mode", "m", "", MsgFlagMode)
	cmd.Flags().StringVarP(&b.out, "out", "o", "", MsgFlagOut)
	cmd.Flags().BoolVarP(&b.dryRun, "dry-run", "n", false, MsgFlagDryRun)
	cmd.Flags().BoolVar(&b.analyze, "analyze", false, MsgFlagAnalyze)
	cmd.Flags().BoolVar(&b.noMinify, "no-minify", false, MsgFlagNoMinify)
	cmd.Flags().BoolVar(&b.sourceMaps, "source-maps", false, MsgFlagSourceMaps)

	return cmd
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   MsgCheckShort,
		Long:    MsgCheckLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := newRenderer(g, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(g, nil)
			if err != nil {
				return err
			}

			res, err := build.Check(commandContext(cmd), cfg, build.Options{})
			if err != nil {
				if rerr := renderer.RenderError(err); rerr != nil {
					return rerr
				}
				return ErrFailed
			}
			report := output.NewCheckReport(res.Diagnostics, res.Stats, res.Duration)
			if err := renderer.Render(report); err != nil {
				return err
			}
			if res.Failed() {
				return ErrFailed
			}
			return nil
		},
	}
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, nil)
			if err != nil {
				return err
			}
			data, err := config.MarshalTOML(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "topics [topic]",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		GroupID: "misc",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helpCmd, _, err := cmd.Root().Find([]string{"help"})
			if err != nil || helpCmd.Run == nil {
				return fmt.Errorf("help command not found")
			}
			helpCmd.SetOut(cmd.OutOrStdout())
			name := "topics"
			if len(args) == 1 {
				name = args[0]
			}
			helpCmd.Run(helpCmd, []string{name})
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kiln %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}
}

// GenCompletion writes the completion script for shell
func GenCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unknown shell: %s", shell)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
