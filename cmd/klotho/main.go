package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jeanhaley32/klotho/internal/agent"
	"github.com/jeanhaley32/klotho/internal/build"
	"github.com/jeanhaley32/klotho/internal/constants"
	"github.com/jeanhaley32/klotho/internal/container"
	"github.com/jeanhaley32/klotho/internal/embedded"
	"github.com/jeanhaley32/klotho/internal/platform"
	"github.com/jeanhaley32/klotho/internal/repo"
	"github.com/jeanhaley32/klotho/internal/session"
	"github.com/jeanhaley32/klotho/internal/terminal"
)

var version = "0.4.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "klotho",
		Short:         "Run AI agents in isolated containers with persistent Zellij sessions",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newStartCmd(),
		newStopCmd(),
		newRestartCmd(),
		newLsCmd(),
		newRmCmd(),
		newBuildCmd(),
		newRebuildCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	runtime string
	verbose bool
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("runtime", constants.DefaultRuntime, "Container runtime: auto, podman or docker")
	flags.BoolP("verbose", "v", false, "Log runtime commands and build steps")
}

func readGlobalFlags(flags *pflag.FlagSet) (globalOptions, error) {
	runtime, err := flags.GetString("runtime")
	if err != nil {
		return globalOptions{}, fmt.Errorf("invalid runtime flag: %w", err)
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return globalOptions{}, fmt.Errorf("invalid verbose flag: %w", err)
	}
	return globalOptions{runtime: runtime, verbose: verbose}, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// app holds the collaborators a command needs, built once per invocation.
type app struct {
	resolver *agent.Resolver
	builder  *build.Builder
	prompter *terminal.Prompter
	manager  *session.Manager
}

func newApp(cmd *cobra.Command) (*app, error) {
	if !platform.IsSupported() {
		return nil, fmt.Errorf("unsupported platform: %s", platform.Detect())
	}

	opts, err := readGlobalFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}
	log := newLogger(opts.verbose)
	env := platform.NewOSEnvironment()

	engine, err := container.DetectEngine(env, opts.runtime, log)
	if err != nil {
		return nil, err
	}
	runtime := container.NewCLI(engine, log)

	locator := repo.NewLocator(env)
	resolver := agent.NewResolver(agentsTree(locator, log), env)
	prompter := terminal.NewStdPrompter()

	builder := build.NewBuilder(build.Options{
		Engine:  engine,
		Configs: resolver,
		Locator: locator,
		Out:     os.Stderr,
		Animate: terminal.IsTerminalWriter(os.Stderr),
		Log:     log,
	})

	manager := session.NewManager(session.Options{
		Runtime:  runtime,
		Naming:   session.NewNaming(),
		Configs:  resolver,
		Builder:  builder,
		Attacher: container.NewAttacher(engine),
		Prompter: prompter,
		Env:      env,
		Out:      cmd.OutOrStdout(),
		Log:      log,
	})

	return &app{
		resolver: resolver,
		builder:  builder,
		prompter: prompter,
		manager:  manager,
	}, nil
}

// agentsTree returns the checkout's config/agents when running from one,
// otherwise the configs compiled into the binary.
func agentsTree(locator repo.Locator, log *slog.Logger) fs.FS {
	if root, ok := locator.FindRoot(); ok {
		dir := filepath.Join(root, filepath.FromSlash(repo.AgentsDir))
		log.Debug("using repository agent configs", "dir", dir)
		return os.DirFS(dir)
	}
	return embedded.Agents()
}

func sessionName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return constants.DefaultSessionName
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [paths...]",
		Short: "Create a new session or attach to an existing one",
		Long: "Create a new session or attach to an existing one.\n\n" +
			"Project paths are mounted at /workspace (or /workspace1..N for several);\n" +
			"without paths the current directory is mounted.",
		RunE: runStart,
	}

	cmd.Flags().StringP("agent", "a", "", "Agent to use (prompts if not specified)")
	cmd.Flags().StringP("name", "n", constants.DefaultSessionName, "Session name")
	cmd.Flags().StringSlice("link", []string{}, "Extra host directories mounted at the same path (can be specified multiple times)")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	agentID, err := cmd.Flags().GetString("agent")
	if err != nil {
		return fmt.Errorf("invalid agent flag: %w", err)
	}
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return fmt.Errorf("invalid name flag: %w", err)
	}
	links, err := cmd.Flags().GetStringSlice("link")
	if err != nil {
		return fmt.Errorf("invalid link flag: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	return a.manager.Start(cmd.Context(), session.StartOptions{
		Agent:      agentID,
		Name:       name,
		Paths:      args,
		LinkedDirs: links,
	})
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [name]",
		Short: "Stop a running session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStop,
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	return a.manager.Stop(cmd.Context(), sessionName(args))
}

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart [name]",
		Short: "Start a stopped session and reattach",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRestart,
	}
}

func runRestart(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	return a.manager.Restart(cmd.Context(), sessionName(args))
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm [name]",
		Short: "Remove a stopped session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRm,
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runRm(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("invalid force flag: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	return a.manager.Remove(cmd.Context(), sessionName(args), force)
}

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all sessions with status",
		Args:    cobra.NoArgs,
		RunE:    runLs,
	}

	cmd.Flags().String("format", formatTable, "Output format: table, json or yaml")

	return cmd
}

func runLs(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("invalid format flag: %w", err)
	}
	if !validFormat(format) {
		return fmt.Errorf("invalid format '%s' - must be 'table', 'json', or 'yaml'", format)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	sessions, err := a.manager.List(cmd.Context())
	if err != nil {
		return err
	}
	return writeSessions(cmd.OutOrStdout(), format, sessions)
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [agents...]",
		Short: "Build agent container images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, false)
		},
	}

	cmd.Flags().Bool("all", false, "Build all agents")
	cmd.Flags().Bool("no-cache", false, "Build without the layer cache")

	return cmd
}

func newRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild [agents...]",
		Short: "Rebuild agent container images without cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, true)
		},
	}

	cmd.Flags().Bool("all", false, "Rebuild all agents")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, noCache bool) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("invalid all flag: %w", err)
	}
	if !noCache && cmd.Flags().Lookup("no-cache") != nil {
		if noCache, err = cmd.Flags().GetBool("no-cache"); err != nil {
			return fmt.Errorf("invalid no-cache flag: %w", err)
		}
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	agents, err := selectBuildAgents(a, args, all)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Fprintln(os.Stderr, warnStyle.Render("No agents selected"))
		return nil
	}

	for _, id := range agents {
		if _, err := a.builder.Build(cmd.Context(), id, noCache); err != nil {
			return err
		}
	}
	return nil
}

// selectBuildAgents returns the named agents, every agent, or the user's
// interactive selection.
func selectBuildAgents(a *app, args []string, all bool) ([]string, error) {
	if len(args) > 0 && !all {
		return args, nil
	}

	available, err := a.resolver.Agents()
	if err != nil {
		return nil, err
	}
	if all {
		return available, nil
	}
	if len(available) == 0 {
		return nil, fmt.Errorf("%w: no agents found", agent.ErrAgentNotFound)
	}

	indices, err := a.prompter.ChooseMany("Select agents to build", available)
	if err != nil {
		return nil, fmt.Errorf("failed to select agents: %w", err)
	}
	selected := make([]string, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, available[i])
	}
	return selected, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "klotho version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", platform.Detect())
		},
	}
}
