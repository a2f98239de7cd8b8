package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nikbrunner/anchors/internal/anchors"
	"github.com/nikbrunner/anchors/internal/culler"
	"github.com/nikbrunner/anchors/internal/exporter"
	"github.com/nikbrunner/anchors/internal/host"
	"github.com/nikbrunner/anchors/internal/importer"
	"github.com/nikbrunner/anchors/internal/model"
	"github.com/nikbrunner/anchors/internal/picker"
	"github.com/nikbrunner/anchors/internal/resolve"
	"github.com/nikbrunner/anchors/internal/search"
	"github.com/nikbrunner/anchors/internal/server"
	"github.com/nikbrunner/anchors/internal/storage"
	"github.com/nikbrunner/anchors/internal/tui"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "--help", "-h":
			printHelp()
			return
		case "ls", "list":
			runList(len(os.Args) >= 3 && os.Args[2] == "--json")
			return
		case "add":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: anchors add <uuid> [label]\n")
				os.Exit(1)
			}
			runAdd(os.Args[2], strings.Join(os.Args[3:], " "))
			return
		case "drop":
			var path string
			if len(os.Args) >= 3 {
				path = os.Args[2]
			}
			runDrop(path)
			return
		case "rm":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: anchors rm <n>\n")
				os.Exit(1)
			}
			runRemove(os.Args[2])
			return
		case "copy":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: anchors copy <n>\n")
				os.Exit(1)
			}
			runCopy(os.Args[2])
			return
		case "find":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: anchors find <query>\n")
				os.Exit(1)
			}
			runFind(strings.Join(os.Args[2:], " "))
			return
		case "import":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: anchors import <file.html>\n")
				os.Exit(1)
			}
			runImport(os.Args[2])
			return
		case "export":
			var outputPath string
			if len(os.Args) >= 3 {
				outputPath = os.Args[2]
			}
			runExport(outputPath)
			return
		case "check":
			runCheck()
			return
		case "serve":
			runServe()
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command %q. Run 'anchors help'.\n", os.Args[1])
			os.Exit(1)
		}
	}

	// No args - run full TUI
	runTUI()
}

func printHelp() {
	help := `anchors - pinned document references for your world

Usage:
  anchors                   Open interactive TUI
  anchors ls [--json]       List anchors
  anchors add <uuid> [label]
                            Anchor a document by identifier
  anchors drop [file]       Anchor drag data (JSON or HTML) from file or stdin
  anchors rm <n>            Remove anchor n
  anchors copy <n>          Copy the @UUID[...] reference of anchor n
  anchors find <query>      Fuzzy search world documents → select → anchor
  anchors import <file>     Import anchors from a journal HTML page
  anchors export [path]     Export anchors to HTML
  anchors check             Report anchors whose document is gone
  anchors serve             Serve the anchor API over HTTP
  anchors help              Show this help

TUI Keybindings:
  Navigation:
    j/k         Move down/up
    gg/G        Jump to top/bottom

  Actions:
    l/o/Enter   Open the anchored document
    y           Copy @UUID reference to clipboard
    /           Filter anchors
    r           Reload from storage

  Editing:
    a           Add by identifier (optional label)
    p           Anchor clipboard contents
    d           Delete anchor

  Other:
    ?           Show help overlay
    q           Quit

Configuration:
  ~/.config/anchors/config.json
  ANCHORS_USER, ANCHORS_BACKEND, ANCHORS_DATA_DIR, ANCHORS_WORLD,
  ANCHORS_ADDR, ANCHORS_LOG_LEVEL (also read from ./.env)
`
	fmt.Print(help)
}

// session bundles everything a command needs to work on the user's anchors.
type session struct {
	cfg      *storage.Config
	logger   *slog.Logger
	world    *host.World
	resolver *resolve.Resolver
	registry *anchors.Registry
	pad      *anchors.Pad
	close    func()
}

// openSession loads configuration, storage and the world. Logs go to logOut.
func openSession(logOut io.Writer, notifier anchors.Notifier) (*session, error) {
	configPath, err := storage.DefaultConfigFilePath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv(".env")

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	store, closeStore, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	world, err := host.LoadWorld(cfg.WorldPath())
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("loading world %s: %w", cfg.WorldPath(), err)
	}
	logger.Debug("world loaded", "path", cfg.WorldPath(), "documents", len(world.Documents()))

	resolver := resolve.New(resolve.Config{
		Collections: world,
		Documents:   world,
		Logger:      logger,
	})
	registry := anchors.NewRegistry(store, logger)

	if notifier == nil {
		notifier = consoleNotifier()
	}
	pad := anchors.NewPad(anchors.PadParams{
		Resolver:  resolver,
		Manager:   registry.For(cfg.User),
		Documents: world,
		Notifier:  notifier,
		Logger:    logger,
	})

	return &session{
		cfg:      cfg,
		logger:   logger,
		world:    world,
		resolver: resolver,
		registry: registry,
		pad:      pad,
		close: func() {
			registry.Close()
			if err := closeStore(); err != nil {
				logger.Error("closing storage", "error", err)
			}
		},
	}, nil
}

// mustOpenSession opens a session for a one-shot command or exits.
func mustOpenSession() *session {
	s, err := openSession(os.Stderr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error %v\n", err)
		os.Exit(1)
	}
	return s
}

// consoleNotifier prints pad notices for one-shot commands.
func consoleNotifier() anchors.Notifier {
	return anchors.NoticeFunc(func(n anchors.Notice) {
		switch n.Level {
		case anchors.LevelInfo:
			fmt.Println(n.Message)
		case anchors.LevelWarn:
			fmt.Fprintf(os.Stderr, "Warning: %s\n", n.Message)
		default:
			fmt.Fprintf(os.Stderr, "Error: %s\n", n.Message)
		}
	})
}

// parsePosition turns a 1-based position from the command line into an index.
func parsePosition(arg string) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		fmt.Fprintf(os.Stderr, "Error: %q is not a valid position\n", arg)
		os.Exit(1)
	}
	return n - 1
}

// runTUI runs the full interactive TUI.
func runTUI() {
	configDir, err := storage.DefaultDataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting data dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data dir: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(filepath.Join(configDir, "anchors.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	status := tui.NewStatus()
	s, err := openSession(logFile, status)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error %v\n", err)
		os.Exit(1)
	}
	defer s.close()

	app := tui.NewApp(tui.AppParams{Pad: s.pad, Status: status})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// runList prints the anchor list.
func runList(asJSON bool) {
	s := mustOpenSession()
	defer s.close()

	list, err := s.pad.Entries(context.Background())
	if err != nil {
		os.Exit(1)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(list); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding anchors: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(list) == 0 {
		fmt.Println("No anchors yet. Drop a document or run 'anchors add <uuid>'.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Label", "Identifier")
	for i, e := range list {
		t.Row(strconv.Itoa(i+1), e.Label, e.Identifier)
	}
	fmt.Println(t)
}

// runAdd anchors a typed identifier.
func runAdd(identifier, label string) {
	s := mustOpenSession()
	defer s.close()

	if _, err := s.pad.AddManual(context.Background(), identifier, label); err != nil {
		os.Exit(1)
	}
}

// runDrop anchors drag data read from a file, or stdin when path is "" or "-".
func runDrop(path string) {
	var (
		body []byte
		err  error
	)
	if path == "" || path == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading drop data: %v\n", err)
		os.Exit(1)
	}

	s := mustOpenSession()
	defer s.close()

	if _, err := s.pad.Drop(context.Background(), contentTypeFor(path), body); err != nil {
		os.Exit(1)
	}
}

// contentTypeFor guesses the drop content type from a file extension.
// An empty result lets the drop decoder sniff the body.
func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	default:
		return ""
	}
}

// runRemove deletes the anchor at a 1-based position.
func runRemove(arg string) {
	index := parsePosition(arg)

	s := mustOpenSession()
	defer s.close()

	list, err := s.pad.Entries(context.Background())
	if err != nil {
		os.Exit(1)
	}
	if _, err := s.pad.Delete(context.Background(), index); err != nil {
		os.Exit(1)
	}
	fmt.Printf("Removed: %s\n", list[index].Label)
}

// runCopy copies the enricher of the anchor at a 1-based position.
func runCopy(arg string) {
	index := parsePosition(arg)

	s := mustOpenSession()
	defer s.close()

	enricher, err := s.pad.Enricher(context.Background(), index)
	if err != nil {
		os.Exit(1)
	}

	fmt.Println(enricher)
	if err := clipboard.WriteAll(enricher); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: clipboard unavailable: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Copied to clipboard")
}

// runFind searches world documents and anchors the chosen one.
func runFind(query string) {
	s := mustOpenSession()
	defer s.close()

	results := search.FuzzySearchDocuments(s.world.Documents(), query)
	if len(results) == 0 {
		fmt.Printf("No documents found for '%s'\n", query)
		os.Exit(0)
	}

	var selected model.Document
	if len(results) == 1 {
		// Single result - select it directly
		selected = results[0].Document
	} else {
		p := picker.New(picker.FromDocuments(results), query, "anchor")
		program := tea.NewProgram(p)
		finalModel, err := program.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running picker: %v\n", err)
			os.Exit(1)
		}

		finalPicker := finalModel.(picker.Picker)
		i, ok := finalPicker.Selected()
		if finalPicker.Cancelled() || !ok {
			os.Exit(0)
		}
		selected = results[i].Document
	}

	drop := resolve.DropData{UUID: selected.Identifier(), Name: selected.Name}
	if _, err := s.pad.DropData(context.Background(), drop); err != nil {
		os.Exit(1)
	}
}

// runImport handles the import subcommand.
func runImport(filePath string) {
	file, err := os.Open(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	drops, err := importer.ParseJournalHTML(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing HTML: %v\n", err)
		os.Exit(1)
	}

	s, err := openSession(os.Stderr, anchors.LogNotifier{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error %v\n", err)
		os.Exit(1)
	}
	defer s.close()

	added, skipped, err := s.pad.Import(context.Background(), drops)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing anchors: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d anchors", added)
	if skipped > 0 {
		fmt.Printf(" (%d duplicates or unresolved skipped)", skipped)
	}
	fmt.Println()
}

// runExport handles the export subcommand.
func runExport(outputPath string) {
	s := mustOpenSession()
	defer s.close()

	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath(s.cfg.User)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting default export path: %v\n", err)
			os.Exit(1)
		}
	}

	list, err := s.pad.Entries(context.Background())
	if err != nil {
		os.Exit(1)
	}

	html := exporter.ExportHTML(list, fmt.Sprintf("Anchors of %s", s.cfg.User))
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d anchors to %s\n", len(list), outputPath)
}

// runCheck reports anchors that no longer point at a document.
func runCheck() {
	s := mustOpenSession()
	defer s.close()

	list, err := s.pad.Entries(context.Background())
	if err != nil {
		os.Exit(1)
	}
	if len(list) == 0 {
		fmt.Println("No anchors to check.")
		return
	}

	results := culler.CheckAnchors(context.Background(), s.world, list, 8, 5*time.Second, func(completed, total int) {
		fmt.Fprintf(os.Stderr, "\rChecking %d/%d", completed, total)
	})
	fmt.Fprintln(os.Stderr)

	for _, r := range results {
		switch {
		case r.Status == culler.Dangling:
			fmt.Printf("%3d. %s  %s  (dangling)\n", r.Index+1, r.Entry.Label, r.Entry.Identifier)
		case r.Status == culler.Unreachable:
			fmt.Printf("%3d. %s  %s  (unreachable: %s)\n", r.Index+1, r.Entry.Label, r.Entry.Identifier, r.Error)
		case r.Renamed():
			fmt.Printf("%3d. %s  %s  (now %q)\n", r.Index+1, r.Entry.Label, r.Entry.Identifier, r.Name)
		}
	}

	live, dangling, unreachable := culler.Summary(results)
	fmt.Printf("%d live, %d dangling, %d unreachable\n", live, dangling, unreachable)
}

// runServe serves the HTTP API until interrupted.
func runServe() {
	s := mustOpenSession()
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Registry:  s.registry,
		Resolver:  s.resolver,
		Documents: s.world,
		Logger:    s.logger,
	})
	if err := srv.ListenAndServe(ctx, s.cfg.ListenAddr); err != nil {
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		os.Exit(1)
	}
}
