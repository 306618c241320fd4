package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
	"go.uber.org/zap"

	"passeq/internal/artifact"
	"passeq/internal/config"
	"passeq/internal/logging"
	"passeq/internal/model"
	"passeq/internal/passfile"
	"passeq/internal/sequence"
	"passeq/internal/tui"
	"passeq/internal/watch"
	"passeq/internal/web"
)

func checkUpdate(currentVer string, explicit bool) {
	githubTag := &latest.GithubTag{
		Owner:      "passeq",
		Repository: "passeq",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/passeq/passeq/releases")
	} else if explicit {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: passeq [options] [command args...]\n\n")
	fmt.Fprintf(os.Stderr, "passeq edits the pass sequence of a text analyzer: the ordered,\n")
	fmt.Fprintf(os.Stderr, "folder-grouped list in spec/analyzer.seq. Pass output files follow\n")
	fmt.Fprintf(os.Stderr, "their passes when the order changes.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	pflag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  list                              print the sequence\n")
	fmt.Fprintf(os.Stderr, "  move <type> <name> up|down        move a pass or folder\n")
	fmt.Fprintf(os.Stderr, "  rename <type> <name> <new>        rename (folders rename their end)\n")
	fmt.Fprintf(os.Stderr, "  duplicate <type> <name> <new>     copy a pass file\n")
	fmt.Fprintf(os.Stderr, "  insert <row> <file|dir>           insert pass files after row (1-based)\n")
	fmt.Fprintf(os.Stderr, "  new-pass <type> <name> <new> [rules|code|decl]\n")
	fmt.Fprintf(os.Stderr, "  new-folder <type> <name> <new>\n")
	fmt.Fprintf(os.Stderr, "  delete <type> <name> [boundary]   delete a pass or folder\n")
	fmt.Fprintf(os.Stderr, "  activate|deactivate <type> <name>\n")
	fmt.Fprintf(os.Stderr, "  set-type <type> <name> <newtype>\n")
	fmt.Fprintf(os.Stderr, "  touch                             create missing trace files\n")
	fmt.Fprintf(os.Stderr, "  init                              write a default %s\n", config.FileName)
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  passeq                            # Start TUI mode\n")
	fmt.Fprintf(os.Stderr, "  passeq -d ~/analyzers/parse -r    # Print a report\n")
	fmt.Fprintf(os.Stderr, "  passeq move folder names down     # Move a folder one step\n")
	fmt.Fprintf(os.Stderr, "  passeq --web                      # Browser view\n")
}

func main() {
	pflag.Usage = usage

	dirFlag := pflag.StringP("dir", "d", ".", "Analyzer directory (holds spec/ and input/)")
	configFlag := pflag.StringP("config", "c", "", "Config file (default <dir>/"+config.FileName+")")
	jsonFlag := pflag.BoolP("json", "j", false, "Output the sequence as JSON")
	reportFlag := pflag.BoolP("report", "r", false, "Print the sequence as a text report")
	outputFlag := pflag.StringP("output", "o", "", "Save report to the specified file (combined with --report)")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include pass files and orphans in the report")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode")
	noWatchFlag := pflag.Bool("no-watch", false, "Do not reload when the sequence changes on disk")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("passeq version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version, true)
		return
	}

	args := pflag.Args()
	if len(args) > 0 && args[0] == "init" {
		if err := config.Init(*dirFlag); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", config.FileName)
		return
	}

	cfg, err := loadConfig(*dirFlag, *configFlag)
	if err != nil {
		fail(err)
	}
	log, err := logging.New(cfg.Project.Logging.Level, cfg.LogOutput())
	if err != nil {
		fail(err)
	}
	syncLog = log.Sync
	defer log.Sync()

	seq, err := sequence.Load(sequence.Options{
		SpecDir:    cfg.SpecDir(),
		FileName:   cfg.Project.SequenceFile,
		Extensions: cfg.Project.PassExtensions,
		Author:     cfg.Project.Author,
		Artifacts:  artifact.LogDir{Dir: cfg.LogDir()},
		Logger:     log,
	})
	if err != nil {
		fail(err)
	}

	switch {
	case len(args) > 0:
		if err := runCommand(seq, args, os.Stdout); err != nil {
			fail(err)
		}
	case *webFlag:
		if err := web.NewServer(seq, log).ListenAndServe(cfg.WebAddr()); err != nil {
			fail(err)
		}
	case *reportFlag:
		runReportMode(seq, *outputFlag, *verboseFlag)
	case *jsonFlag:
		runJsonMode(seq)
	default:
		runTuiMode(seq, log, !*noWatchFlag, cfg.Project.PassExtensions)
	}
}

func loadConfig(dir, path string) (*config.Config, error) {
	if path == "" {
		return config.NewConfig(dir)
	}
	return config.Load(dir, path)
}

// syncLog flushes the active logger. os.Exit skips deferred calls, so fail
// runs it explicitly.
var syncLog = func() error { return nil }

func fail(err error) {
	os.Exit(reportFailure(os.Stderr, err))
}

// reportFailure prints err, flushes the log and returns the exit status.
func reportFailure(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	_ = syncLog()
	return 1
}

var errUsage = errors.New("wrong number of arguments (see passeq --help)")

// runCommand applies one edit given on the command line and prints the
// resulting sequence.
func runCommand(seq *sequence.Sequence, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("%s: %w", cmd, errUsage)
		}
		return nil
	}

	var err error
	switch cmd {
	case "list":
	case "move":
		if err = need(3); err != nil {
			return err
		}
		dir, perr := sequence.ParseDirection(rest[2])
		if perr != nil {
			return perr
		}
		err = seq.Move(rest[0], rest[1], dir)
	case "rename":
		if err = need(3); err != nil {
			return err
		}
		err = seq.Rename(rest[0], rest[1], rest[2])
	case "duplicate":
		if err = need(3); err != nil {
			return err
		}
		err = seq.Duplicate(rest[0], rest[1], rest[2])
	case "insert":
		if err = need(2); err != nil {
			return err
		}
		row, perr := strconv.Atoi(rest[0])
		if perr != nil {
			return fmt.Errorf("insert: row %q: %w", rest[0], perr)
		}
		_, err = seq.Insert(row-1, rest[1])
	case "new-pass":
		if err = need(3); err != nil {
			return err
		}
		kind := passfile.Rules
		if len(rest) > 3 {
			if kind, err = passfile.ParseKind(rest[3]); err != nil {
				return err
			}
		}
		err = seq.InsertNewPass(rest[0], rest[1], rest[2], kind)
	case "new-folder":
		if err = need(3); err != nil {
			return err
		}
		err = seq.InsertNewFolder(rest[0], rest[1], rest[2])
	case "delete":
		if err = need(2); err != nil {
			return err
		}
		mode := sequence.DeleteRegion
		if len(rest) > 2 && rest[2] == "boundary" {
			mode = sequence.DeleteBoundary
		}
		err = seq.Delete(rest[0], rest[1], mode)
	case "activate", "deactivate":
		if err = need(2); err != nil {
			return err
		}
		err = seq.SetActive(rest[0], rest[1], cmd == "activate")
	case "set-type":
		if err = need(3); err != nil {
			return err
		}
		err = seq.SetType(rest[0], rest[1], rest[2])
	case "touch":
		err = seq.TouchTraceArtifacts()
	default:
		return fmt.Errorf("unknown command %q (see passeq --help)", cmd)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(out, sequence.Report(seq, false))
	return nil
}

func runReportMode(seq *sequence.Sequence, outputFile string, verbose bool) {
	report := sequence.Report(seq, verbose)

	if outputFile != "" {
		err := os.WriteFile(outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report to %s: %v\n", outputFile, err)
			os.Exit(1)
		}
		fmt.Printf("Report saved to %s\n", outputFile)
	} else {
		fmt.Println(report)
	}
}

func runJsonMode(seq *sequence.Sequence) {
	out := struct {
		Path    string           `json:"path"`
		Records []*model.Record  `json:"records"`
		Summary sequence.Summary `json:"summary"`
		Version string           `json:"version"`
	}{
		Path:    seq.SequencePath(),
		Records: seq.Records(),
		Summary: seq.Summarize(),
		Version: model.Version,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fail(err)
	}
}

func runTuiMode(seq *sequence.Sequence, log *zap.Logger, watchFiles bool, exts []string) {
	var changes <-chan watch.Event
	if watchFiles {
		w, err := watch.New(seq.SpecDir(),
			watch.WithLogger(log),
			watch.WithFilter(watch.MatchFiles([]string{model.BaseName(seq.SequencePath())}, exts)))
		if err == nil {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if err := w.Start(ctx); err != nil {
				log.Warn("not watching spec directory", zap.Error(err))
			} else {
				defer w.Stop()
				changes = w.Events()
			}
		}
	}

	m := tui.InitialModel(seq, changes, log)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
