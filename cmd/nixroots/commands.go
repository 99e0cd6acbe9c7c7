package nixroots

import (
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/nixroots/internal/version"
	"github.com/arthur-debert/nixroots/pkg/config"
	"github.com/arthur-debert/nixroots/pkg/filesystem"
	"github.com/arthur-debert/nixroots/pkg/logging"
	"github.com/arthur-debert/nixroots/pkg/project"
	"github.com/arthur-debert/nixroots/pkg/roots"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity   int
	configPath  string
	projectFile string
	rootDir     string
	projectID   string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "nixroots",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVar(&opts.configPath, "config", "", MsgFlagConfig)
	flags.StringVarP(&opts.projectFile, "project", "p", "", MsgFlagProject)
	flags.StringVar(&opts.rootDir, "root-dir", "", MsgFlagRootDir)
	flags.StringVar(&opts.projectID, "id", "", MsgFlagID)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newRemoveCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// openRoots loads the configuration and builds the registrar for the
// selected project. The project's root directory is only created when
// create is set; reading commands treat a missing directory as empty.
func openRoots(opts *globalOptions, create bool) (*roots.Roots, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}

	fs := filesystem.NewOS()

	if opts.rootDir != "" || opts.projectID != "" {
		if opts.rootDir == "" || opts.projectID == "" {
			return nil, fmt.Errorf(MsgErrRootDirNeedID)
		}
		// The collector link targets this directory, so it must be absolute
		rootDir, err := filepath.Abs(opts.rootDir)
		if err != nil {
			return nil, err
		}
		return roots.New(rootDir, opts.projectID, cfg.Environment(), fs), nil
	}

	projectFile := opts.projectFile
	if projectFile == "" {
		projectFile = cfg.Project.File
	}

	p, err := project.New(projectFile, cfg.Project.CacheDir, fs)
	if err != nil {
		return nil, fmt.Errorf(MsgErrOpenProject, err)
	}

	log.Debug().
		Str("project", p.File()).
		Str("id", p.ID()).
		Msg("Using project")

	if !create {
		return roots.New(p.RootDir(), p.ID(), cfg.Environment(), fs), nil
	}
	return roots.FromProject(p, cfg.Environment(), fs)
}

func newAddCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "add NAME STORE_PATH",
		Short:   MsgAddShort,
		Long:    MsgAddLong,
		Example: MsgAddExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRoots(opts, true)
			if err != nil {
				return err
			}

			done := logging.LogOperationStart(logging.GetLogger("cli"), "add")
			defer done()

			path, err := r.Add(args[0], args[1])
			if err != nil {
				return fmt.Errorf(MsgErrAddRoot, args[0], err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "remove NAME",
		Aliases:           []string{"rm"},
		Short:             MsgRemoveShort,
		GroupID:           "core",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: rootNamesCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRoots(opts, false)
			if err != nil {
				return err
			}

			if err := r.Remove(args[0]); err != nil {
				return fmt.Errorf(MsgErrRemoveRoot, args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), MsgRootRemoved, args[0])
			return nil
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "status NAME",
		Short:             MsgStatusShort,
		GroupID:           "core",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: rootNamesCompletion(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRoots(opts, false)
			if err != nil {
				return err
			}

			root, err := r.Status(args[0])
			if err != nil {
				return err
			}

			return renderStatus(cmd.OutOrStdout(), root, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, MsgFlagOutput)
	return cmd
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   MsgListShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRoots(opts, false)
			if err != nil {
				return err
			}

			list, err := r.List()
			if err != nil {
				return fmt.Errorf(MsgErrListRoots, err)
			}

			return renderList(cmd.OutOrStdout(), list, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, MsgFlagOutput)
	return cmd
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				fmt.Fprint(cmd.OutOrStdout(), config.DefaultConfigContent())
				return nil
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf(MsgErrLoadConfig, err)
			}

			out, err := config.Render(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersion, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// rootNamesCompletion completes the names of the project's roots
func rootNamesCompletion(opts *globalOptions) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) (names []string, directive cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		// An unusable collector layout must not crash the shell's completion
		defer func() {
			if rec := recover(); rec != nil {
				if _, ok := rec.(*roots.MisconfigurationError); !ok {
					panic(rec)
				}
				log.Debug().Interface("panic", rec).Msg("Completion skipped")
				names, directive = nil, cobra.ShellCompDirectiveError
			}
		}()

		r, err := openRoots(opts, false)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		list, err := r.List()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		names = make([]string, 0, len(list))
		for _, root := range list {
			names = append(names, root.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
