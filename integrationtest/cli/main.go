// Package main provides an interactive CLI for exercising the
// suggestion engine against a real generation backend: type text,
// watch ghost text appear, accept or reject it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rickchristie/ghost"
	"github.com/rickchristie/ghost/events"
	"github.com/rickchristie/ghost/fetchers"
	"github.com/rickchristie/ghost/subscribers"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr,
			"%sError: %v%s\n",
			colorRed, err, colorReset)
		os.Exit(1)
	}
}

func run() error {
	// Create log directory and file
	logDir := ".logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf(
			"failed to create log directory: %w", err)
	}

	logFile, err := os.Create(
		filepath.Join(logDir, "cli_ghost.log"))
	if err != nil {
		return fmt.Errorf(
			"failed to create log file: %w", err)
	}
	defer logFile.Close()

	fetcher, backend, err := buildFetcher()
	if err != nil {
		return err
	}

	registry := events.NewRegistry()
	unsubscribe := registry.Subscribe(
		subscribers.NewLoggerWithWriter(logFile))
	defer unsubscribe()

	params := ghost.DefaultParams()
	params.DebounceMs = 400
	cfg, err := ghost.NewConfig(params)
	if err != nil {
		return err
	}

	coord := ghost.NewCoordinator(
		fetcher,
		ghost.WithConfig(cfg),
		ghost.WithDispatcher(registry),
	)

	doc := newBufferDocument()
	surface := coord.NewSurface(doc,
		ghost.WithPresenter(&terminalPresenter{doc: doc}))
	defer surface.Close()

	fmt.Printf("%s%sGhost Text Demo%s\n",
		colorBold, colorYellow, colorReset)
	fmt.Printf("%s%s%s\n",
		colorYellow, strings.Repeat("=", 15), colorReset)
	fmt.Printf("%sBackend: %s%s\n",
		colorDim, backend, colorReset)
	fmt.Printf(
		"%sType to extend the document. Suggestions "+
			"appear dimmed after a short pause.%s\n",
		colorDim, colorReset)
	fmt.Printf(
		"%sCommands: :a accept, :r reject, :show print "+
			"document, :safe toggle safe mode, :plan N, "+
			":off/:on, :q quit.%s\n",
		colorDim, colorReset)
	fmt.Println()

	rl, err := readline.New(
		colorCyan + "> " + colorReset)
	if err != nil {
		return fmt.Errorf(
			"failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				fmt.Printf("\n%sGoodbye!%s\n",
					colorGreen, colorReset)
				return nil
			}
			return fmt.Errorf(
				"failed to read input: %w", err)
		}

		if strings.HasPrefix(input, ":") {
			if quit := handleCommand(
				input, surface, doc, cfg); quit {
				fmt.Printf("%sGoodbye!%s\n",
					colorGreen, colorReset)
				return nil
			}
			continue
		}

		doc.Append(input)
		surface.HandleChange()

		// Give the debounce and the fetch a moment so the
		// suggestion can render before the next prompt.
		waitForSettle(surface, cfg)
	}
}

// buildFetcher picks the generation backend from the environment:
// GHOST_GENERATION_URL for the HTTP envelope endpoint, then
// GHOST_TEST_OPENAI_KEY for a direct model call.
func buildFetcher() (ghost.Fetcher, string, error) {
	if url := os.Getenv("GHOST_GENERATION_URL"); url != "" {
		provider := os.Getenv("GHOST_GENERATION_PROVIDER")
		model := os.Getenv("GHOST_GENERATION_MODEL")
		return fetchers.NewHTTP(url, provider, model),
			"http " + url, nil
	}

	if key := os.Getenv("GHOST_TEST_OPENAI_KEY"); key != "" {
		llm, err := openai.New(openai.WithToken(key))
		if err != nil {
			return nil, "", fmt.Errorf(
				"failed to create model: %w", err)
		}
		model := os.Getenv("GHOST_GENERATION_MODEL")
		if model == "" {
			model = "gpt-4o-mini"
		}
		return fetchers.NewModel(llm).WithModelName(model),
			"openai " + model, nil
	}

	fmt.Fprintf(os.Stderr,
		"%sWARNING: no GHOST_GENERATION_URL or "+
			"GHOST_TEST_OPENAI_KEY set; using canned "+
			"suggestions.%s\n\n",
		colorYellow, colorReset)
	return &cannedFetcher{}, "canned", nil
}

// handleCommand runs one colon command, reporting whether to quit.
func handleCommand(
	input string,
	surface *ghost.Surface,
	doc *bufferDocument,
	cfg *ghost.Config,
) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case ":q":
		return true
	case ":a":
		if surface.Accept() {
			fmt.Printf("%sAccepted.%s\n",
				colorGreen, colorReset)
		} else {
			fmt.Printf("%sNothing to accept.%s\n",
				colorDim, colorReset)
		}
	case ":r":
		if surface.Reject() {
			fmt.Printf("%sRejected.%s\n",
				colorYellow, colorReset)
		} else {
			fmt.Printf("%sNothing to reject.%s\n",
				colorDim, colorReset)
		}
	case ":show":
		fmt.Printf("%s%s%s\n",
			colorBold, doc.Text(), colorReset)
	case ":safe":
		next := !cfg.Snapshot().SafeMode
		cfg.SetSafeMode(next)
		fmt.Printf("%sSafe mode: %v%s\n",
			colorDim, next, colorReset)
	case ":plan":
		if len(fields) < 2 {
			fmt.Printf("%sUsage: :plan N%s\n",
				colorRed, colorReset)
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Printf("%sUsage: :plan N%s\n",
				colorRed, colorReset)
			break
		}
		cfg.SetPlanCount(n)
		fmt.Printf("%sPlan count: %d%s\n",
			colorDim, cfg.Snapshot().PlanCount, colorReset)
	case ":off":
		cfg.SetEnabled(false)
		fmt.Printf("%sSuggestions off.%s\n",
			colorDim, colorReset)
	case ":on":
		cfg.SetEnabled(true)
		fmt.Printf("%sSuggestions on.%s\n",
			colorDim, colorReset)
	default:
		fmt.Printf("%sUnknown command: %s%s\n",
			colorRed, fields[0], colorReset)
	}
	return false
}

// waitForSettle blocks until the scheduled fetch settles or a deadline
// passes, so the suggestion renders before the next prompt.
func waitForSettle(surface *ghost.Surface, cfg *ghost.Config) {
	time.Sleep(cfg.Snapshot().Debounce() + 50*time.Millisecond)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if !surface.View().Loading {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// bufferDocument implements ghost.Document over a growing text buffer
// with the cursor pinned at the end.
type bufferDocument struct {
	mu   sync.Mutex
	text []rune
}

func newBufferDocument() *bufferDocument {
	return &bufferDocument{}
}

// Append adds typed text plus a trailing space at the end.
func (d *bufferDocument) Append(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.text) > 0 {
		d.text = append(d.text, ' ')
	}
	d.text = append(d.text, []rune(s)...)
}

func (d *bufferDocument) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.text)
}

func (d *bufferDocument) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.text)
}

func (d *bufferDocument) TextBefore(pos, max int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos > len(d.text) {
		pos = len(d.text)
	}
	start := pos - max
	if start < 0 {
		start = 0
	}
	return string(d.text[start:pos])
}

func (d *bufferDocument) Selection() (from, to int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.text), len(d.text)
}

func (d *bufferDocument) BlockStart(pos int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos > len(d.text) {
		pos = len(d.text)
	}
	for i := pos - 1; i >= 0; i-- {
		if d.text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func (d *bufferDocument) Insert(pos int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pos > len(d.text) {
		pos = len(d.text)
	}
	runes := []rune(text)
	out := make([]rune, 0, len(d.text)+len(runes))
	out = append(out, d.text[:pos]...)
	out = append(out, runes...)
	out = append(out, d.text[pos:]...)
	d.text = out
}

// terminalPresenter prints the suggestion state beneath the prompt.
type terminalPresenter struct {
	doc *bufferDocument
}

func (p *terminalPresenter) Render(view ghost.View) {
	switch {
	case view.Loading:
		fmt.Printf("%s  ...thinking%s\n",
			colorDim, colorReset)
	case view.Visible:
		tail := p.doc.TextBefore(view.AnchorPos, 30)
		fmt.Printf("%s  %s%s%s%s%s\n",
			colorDim, tail, colorReset,
			colorDim+colorBold, view.Text, colorReset)
		for i, step := range view.Plan {
			fmt.Printf("%s    plan %d: %s%s\n",
				colorDim, i+1, step, colorReset)
		}
		fmt.Printf(
			"%s  (:a to accept, :r to reject)%s\n",
			colorDim, colorReset)
	}
}

// cannedFetcher cycles through a few stock continuations so the demo
// works without any backend.
type cannedFetcher struct {
	mu sync.Mutex
	n  int
}

var cannedSuggestions = []ghost.Suggestion{
	{
		Completion: " and the morning light spread slowly across the valley.",
		Plan:       []string{"describe the valley", "introduce a traveler"},
	},
	{
		Completion: " though nobody could say exactly why.",
		Plan:       []string{"reveal the reason", "change the scene"},
	},
	{
		Completion: " which was precisely what everyone had feared.",
		Plan:       []string{"show the reaction", "jump forward in time"},
	},
}

func (f *cannedFetcher) Fetch(
	ctx context.Context,
	req ghost.FetchRequest,
) (*ghost.Suggestion, error) {
	// Simulate network latency.
	select {
	case <-time.After(300 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	sugg := cannedSuggestions[f.n%len(cannedSuggestions)]
	f.n++
	f.mu.Unlock()
	return &sugg, nil
}
