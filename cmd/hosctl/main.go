package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/hle/am"
	"github.com/wippyai/hle/budget"
	"github.com/wippyai/hle/config"
	"github.com/wippyai/hle/guest"
	"github.com/wippyai/hle/ipc"
	"github.com/wippyai/hle/revision"
	"github.com/wippyai/hle/service"
	"github.com/wippyai/hle/session"
	"github.com/wippyai/hle/system"
	"github.com/wippyai/hle/trace"
)

type options struct {
	configPath  string
	firmware    string
	command     string
	data        string
	wasmFile    string
	funcName    string
	traceFile   string
	pid         uint64
	docked      bool
	list        bool
	showBudget  bool
	interactive bool
	watch       bool
	debug       bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("hosctl", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to hle.yaml (default: ./hle.yaml if present)")
	flagSet.StringVar(&opts.firmware, "firmware", "", "firmware revision override, e.g. 6.0.0")
	flagSet.BoolVar(&opts.docked, "docked", false, "start docked")
	flagSet.Uint64Var(&opts.pid, "pid", 0x51, "process id of the session")
	flagSet.StringVar(&opts.command, "cmd", "", "command to call, by id or name")
	flagSet.StringVar(&opts.data, "data", "", "hex input payload for --cmd")
	flagSet.BoolVar(&opts.list, "list", false, "list commands and exit")
	flagSet.BoolVar(&opts.showBudget, "budget", false, "print the mixer resource budget and exit")
	flagSet.StringVar(&opts.wasmFile, "wasm", "", "run a WASM guest importing the hle module")
	flagSet.StringVar(&opts.funcName, "func", "run", "guest export to call with --wasm")
	flagSet.StringVar(&opts.traceFile, "dump-trace", "", "print a CBOR call trace and exit")
	flagSet.BoolVarP(&opts.interactive, "interactive", "i", false, "interactive console")
	flagSet.BoolVar(&opts.watch, "watch", false, "reload the config file on change")
	flagSet.BoolVar(&opts.debug, "debug", false, "development logging")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	switch {
	case opts.showBudget:
		printBudget()
		return nil
	case opts.traceFile != "":
		return dumpTrace(opts.traceFile)
	}

	cfgManager := config.New(opts.configPath)
	if err := cfgManager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := cfgManager.Current()

	logger, err := newLogger(cfg.Log.Level, opts.debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	installLogger(logger)

	var sysOpts []system.Option
	if opts.firmware != "" {
		rev, err := revision.Parse(opts.firmware)
		if err != nil {
			return err
		}
		cfg.FirmwareRevision = rev
		sysOpts = append(sysOpts, system.WithFirmware(rev))
	}
	if flagSet.Changed("docked") {
		cfgManager.SetDocked(opts.docked)
	}

	if opts.list {
		printCommands(cfg.FirmwareRevision)
		return nil
	}

	sys, err := system.FromConfig(cfgManager, sysOpts...)
	if err != nil {
		return err
	}
	defer sys.Close()
	if opts.watch {
		cfgManager.Watch()
	}

	sess, err := sys.Connect(opts.pid)
	if err != nil {
		return err
	}

	ctx := context.Background()
	switch {
	case opts.interactive:
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(sys, sess, cfgManager)
	case opts.wasmFile != "":
		return runGuest(ctx, sess, opts.wasmFile, opts.funcName)
	case opts.command != "":
		return callOnce(ctx, sess, opts.command, opts.data)
	default:
		flagSet.PrintDefaults()
		return nil
	}
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func installLogger(l *zap.Logger) {
	service.SetLogger(l.Named("service"))
	session.SetLogger(l.Named("session"))
	am.SetLogger(l.Named("am"))
	guest.SetLogger(l.Named("guest"))
	config.SetLogger(l.Named("config"))
	system.SetLogger(l.Named("system"))
}

func callOnce(ctx context.Context, sess *session.State, command, data string) error {
	cmd, err := commandID(command, sess.Revision())
	if err != nil {
		return err
	}
	input, err := hex.DecodeString(strings.ReplaceAll(data, " ", ""))
	if err != nil {
		return fmt.Errorf("--data: %w", err)
	}

	resp, err := sess.Dispatch(ctx, ipc.Request{Command: cmd, Data: input})
	if err != nil {
		return err
	}
	name := am.CommandName(cmd, sess.Revision())
	if name == "" {
		name = fmt.Sprintf("cmd#%d", cmd)
	}
	fmt.Printf("%s: %s\n", name, describe(cmd, resp))
	return nil
}

func runGuest(ctx context.Context, sess *session.State, path, funcName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := guest.NewHost(sess).Instantiate(ctx, rt); err != nil {
		return err
	}
	mod, err := rt.Instantiate(ctx, data)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return fmt.Errorf("guest has no export %q", funcName)
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	fmt.Printf("Result: %v\n", results)
	return nil
}

func printCommands(rev revision.Revision) {
	fmt.Printf("%s at firmware %s\n\n", am.ServiceName, rev)
	for _, d := range am.Commands() {
		mark := " "
		if d.MinRevision > rev {
			mark = "-"
		}
		fmt.Printf("%s %3d  %-40s %s+\n", mark, d.ID, d.Name, d.MinRevision)
	}
}

func printBudget() {
	fmt.Printf("sample rate            %d Hz\n", budget.TargetSampleRate)
	fmt.Printf("frame samples          %d\n", budget.TargetSampleCount)
	fmt.Printf("frame period           %s\n", budget.FramePeriod())
	fmt.Printf("update budget          %s (%s per session, %d sessions)\n",
		budget.GlobalUpdateBudget(), budget.PerSessionUpdateBudget(), budget.SessionCountMax)
	fmt.Printf("channels               %d\n", budget.ChannelCountMax)
	fmt.Printf("mix buffers            %d\n", budget.MixBufferCountMax)
	fmt.Printf("wave buffers per voice %d\n", budget.VoiceWaveBufferCount)
	fmt.Printf("voice priority         %d (highest) .. %d (lowest)\n", budget.VoiceHighestPriority, budget.VoiceLowestPriority)
	fmt.Printf("buffer alignment       0x%x\n", budget.BufferAlignment)
	fmt.Printf("work buffer alignment  0x%x\n", budget.WorkBufferAlignment)
	fmt.Printf("downmix 5.1 -> stereo  %v\n", budget.DefaultSurroundToStereo())
}

func dumpTrace(path string) error {
	recs, err := trace.ReadFile(path)
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Println(r)
	}
	return nil
}
