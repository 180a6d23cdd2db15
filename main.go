// xckit — Xcode string catalog kit: bulk AI translation of .xcstrings
// catalogs and JSON fan-out specifications.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/minios-linux/xckit/config"
	"github.com/minios-linux/xckit/finder"
	"github.com/minios-linux/xckit/i18n"
	"github.com/minios-linux/xckit/langname"
	"github.com/minios-linux/xckit/settings"
	"github.com/minios-linux/xckit/translate"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xckit",
		Short: "Xcode string catalog kit: AI translation for .xcstrings and JSON specs",
		Long: `xckit — bulk AI translation of localized app resources.

Translates Xcode string catalogs (.xcstrings) and JSON fan-out
specifications through an OpenAI-compatible chat endpoint, and re-evaluates
catalog entries marked needs-review.

Commands:
  translate       Translate untranslated entries of catalogs or JSON specs
  translate-text  Translate a single string into each requested language
  review          Re-evaluate catalog entries marked needs-review

The API key is read from --api-key, the OPENAI_API_KEY environment variable
(a .env file in the working directory is honored), or the credential store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTranslateCmd(),
		newTranslateTextCmd(),
		newReviewCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xckit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Provider flags shared by translate, translate-text, and review
// ---------------------------------------------------------------------------

type providerFlags struct {
	provider string
	apiKey   string
	model    string
	baseURL  string
	proxy    string
	timeout  time.Duration
}

func (pf *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&pf.provider, "provider", "openai", "Provider id (credential store key)")
	cmd.Flags().StringVar(&pf.model, "model", "", "Model name (default "+translate.DefaultModel+")")
	cmd.Flags().StringVar(&pf.apiKey, "api-key", "", "API key (or "+config.EnvAPIKey+" env var)")
	cmd.Flags().StringVar(&pf.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	cmd.Flags().StringVar(&pf.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().DurationVar(&pf.timeout, "timeout", 0, "Request timeout (0 = default)")

	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1-mini"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveProvider builds the chat provider from flags, config file, and the
// credential store.
func (pf *providerFlags) resolveProvider(cfg *config.File, verbose bool) (*translate.ChatProvider, error) {
	model := pf.model
	baseURL := pf.baseURL
	proxy := pf.proxy
	timeout := pf.timeout

	if cfg != nil {
		if model == "" {
			model = cfg.Provider.Model
		}
		if baseURL == "" {
			baseURL = cfg.Provider.BaseURL
		}
		if proxy == "" {
			proxy = cfg.Provider.Proxy
		}
		if timeout == 0 {
			// Validated at load time.
			timeout, _ = cfg.ProviderTimeout()
		}
	}

	key := pf.apiKey
	if key == "" {
		key = config.APIKeyFromEnv()
	}
	if key == "" {
		key = settings.GetAPIKey(pf.provider)
	}
	// Local endpoints (Ollama and friends) run without a key.
	if key == "" && baseURL == "" {
		return nil, fmt.Errorf("no API key configured: pass --api-key, set %s, or store one in %s",
			config.EnvAPIKey, settings.FilePath())
	}

	return translate.NewChatProvider(translate.ProviderConfig{
		BaseURL: baseURL,
		APIKey:  key,
		Model:   model,
		Proxy:   proxy,
		Timeout: timeout,
		Verbose: verbose,
		Log:     logInfo,
	}), nil
}

// ---------------------------------------------------------------------------
// Shared run plumbing
// ---------------------------------------------------------------------------

// signalContext returns a context cancelled on SIGINT.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("%s", i18n.T("Interrupted, saving progress..."))
		cancel()
	}()

	return ctx, cancel
}

// confirmMassTranslation prompts before a large run. Default is yes; EOF
// with no answer counts as yes so redirected input proceeds.
func confirmMassTranslation(entries int) bool {
	fmt.Fprintf(os.Stderr, "About to translate %d entries. Continue? [Y/n] ", entries)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

func engineCallbacks(verbose bool) (onLog, onError func(string, ...any), onProgress func(string, int, int)) {
	onLog = func(format string, args ...any) {
		logInfo(format, args...)
	}
	onError = func(format string, args ...any) {
		logError(format, args...)
	}
	if verbose {
		onProgress = func(lang string, done, total int) {
			logInfo("  %s: %d/%d", lang, done, total)
		}
	}
	return onLog, onError, onProgress
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var (
		pf          providerFlags
		langs       []string
		onlyFiles   []string
		overwrite   bool
		needsReview bool
		skipConfirm bool
		dryRun      bool
		concurrent  int
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "translate <path>",
		Short: "Translate untranslated entries of catalogs or JSON specs",
		Long: `Translate untranslated entries at a path.

The path may be a single file or a directory. String catalogs
(.xcstrings) are translated entry by entry with a bounded worker pool;
JSON specifications fan whole files across their target-locale folders.

Examples:
  # Translate every catalog under the current directory in place
  xckit translate . --overwrite

  # Translate one catalog into French and German only
  xckit translate App/Localizable.xcstrings --lang fr --lang de

  # Run a JSON fan-out specification
  xckit translate site/translation.json --only-files app.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args[0], translateRunArgs{
				pf: pf, langs: langs, onlyFiles: onlyFiles,
				overwrite: overwrite, needsReview: needsReview,
				skipConfirm: skipConfirm, dryRun: dryRun,
				concurrent: concurrent, verbose: verbose,
			})
		},
	}

	pf.register(cmd)
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Target languages (repeatable; default: all in the file)")
	cmd.Flags().StringSliceVar(&onlyFiles, "only-files", nil, "JSON specs: only these file basenames")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Write results to the input file instead of a .loc sibling")
	cmd.Flags().BoolVar(&needsReview, "needs-review", false, "Mark fresh translations for review")
	cmd.Flags().BoolVar(&skipConfirm, "skip-confirm", false, "Skip the mass-translation confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be translated without calling the provider")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "Maximum concurrent provider calls (default 10)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging")

	return cmd
}

type translateRunArgs struct {
	pf          providerFlags
	langs       []string
	onlyFiles   []string
	overwrite   bool
	needsReview bool
	skipConfirm bool
	dryRun      bool
	concurrent  int
	verbose     bool
}

func runTranslate(path string, a translateRunArgs) error {
	config.LoadEnv(".")
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	typ, err := finder.DetectType(path)
	if err != nil {
		return err
	}

	files, err := finder.Find(path, typ)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logWarning(i18n.T("No translatable files found at %s"), path)
		return nil
	}

	langs := a.langs
	if len(langs) == 0 && cfg != nil {
		langs = cfg.Languages
	}
	needsReview := a.needsReview
	if cfg != nil && cfg.NeedsReview {
		needsReview = true
	}
	concurrent := a.concurrent
	if concurrent == 0 && cfg != nil {
		concurrent = cfg.Concurrent
	}

	if a.dryRun {
		return dryRunTranslate(files, typ, langs)
	}

	prov, err := a.pf.resolveProvider(cfg, a.verbose)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	onLog, onError, onProgress := engineCallbacks(a.verbose)
	opts := translate.Options{
		Provider:                       prov,
		TargetLanguages:                langs,
		MaxConcurrent:                  concurrent,
		Overwrite:                      a.overwrite,
		SetNeedsReviewAfterTranslating: needsReview,
		SkipConfirmation:               a.skipConfirm,
		Confirm:                        confirmMassTranslation,
		OnlyFiles:                      a.onlyFiles,
		Verbose:                        a.verbose,
		OnLog:                          onLog,
		OnError:                        onError,
		OnProgress:                     onProgress,
	}

	start := time.Now()
	total := 0

	for _, file := range files {
		logInfo("Translating %s", file)

		var count int
		switch typ {
		case finder.JSONSpecification:
			count, err = translate.TranslateSpecification(ctx, file, opts)
		default:
			count, err = translate.TranslateCatalog(ctx, file, opts)
		}

		if errors.Is(err, translate.ErrCanceled) {
			fmt.Fprintln(os.Stderr, i18n.T("Translation canceled"))
			os.Exit(0)
		}
		if err != nil {
			if ctx.Err() != nil {
				logWarning("Translation interrupted, partial progress saved")
				os.Exit(0)
			}
			return err
		}
		total += count
	}

	logSuccess("Translated %d key(s) in %s", total, time.Since(start).Round(10*time.Millisecond))
	return nil
}

func dryRunTranslate(files []string, typ finder.FileType, langs []string) error {
	for _, file := range files {
		if typ == finder.JSONSpecification {
			logInfo("%s: JSON specification (whole-file fan-out)", file)
			continue
		}
		pending, err := translate.PendingEntries(file, langs)
		if err != nil {
			return err
		}
		logInfo("%s: %d entries to translate", file, pending)
	}
	return nil
}

// ---------------------------------------------------------------------------
// translate-text
// ---------------------------------------------------------------------------

func newTranslateTextCmd() *cobra.Command {
	var (
		pf      providerFlags
		langs   []string
		source  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "translate-text <text>",
		Short: "Translate a single string into each requested language",
		Long: `Translate one literal string and print a "language: translation"
line per target language.

Example:
  xckit translate-text "Save changes?" --lang fr --lang de --lang ja`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslateText(args[0], source, langs, pf, verbose)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Target languages (repeatable, required)")
	cmd.Flags().StringVar(&source, "source", "en", "Source language")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging")
	_ = cmd.MarkFlagRequired("lang")

	return cmd
}

func runTranslateText(text, source string, langs []string, pf providerFlags, verbose bool) error {
	config.LoadEnv(".")
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	prov, err := pf.resolveProvider(cfg, verbose)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, lang := range langs {
		out, err := prov.Translate(ctx, translate.Request{
			Text:           text,
			SourceLanguage: source,
			TargetLanguage: lang,
		})
		if err != nil {
			if ctx.Err() != nil {
				os.Exit(0)
			}
			logError("%s (%s): %v", lang, langname.English(lang), err)
			continue
		}
		fmt.Printf("%s: %s\n", lang, out)
	}
	return nil
}

// ---------------------------------------------------------------------------
// review
// ---------------------------------------------------------------------------

func newReviewCmd() *cobra.Command {
	var (
		pf          providerFlags
		langs       []string
		overwrite   bool
		skipConfirm bool
		concurrent  int
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "review <path>",
		Short: "Re-evaluate catalog entries marked needs-review",
		Long: `Re-evaluate existing translations marked needs-review.

Each entry is judged by the provider; approved entries flip back to the
translated state, rejected entries keep needs-review and the reason is
logged. Only string catalogs are reviewed.

Example:
  xckit review App/Localizable.xcstrings --overwrite --lang fr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(args[0], reviewRunArgs{
				pf: pf, langs: langs, overwrite: overwrite,
				skipConfirm: skipConfirm, concurrent: concurrent, verbose: verbose,
			})
		},
	}

	pf.register(cmd)
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "Languages to review (repeatable; default: all)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Write results to the input file instead of a .loc sibling")
	cmd.Flags().BoolVar(&skipConfirm, "skip-confirm", false, "Skip confirmations")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "Maximum concurrent provider calls (default 10)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging")

	return cmd
}

type reviewRunArgs struct {
	pf          providerFlags
	langs       []string
	overwrite   bool
	skipConfirm bool
	concurrent  int
	verbose     bool
}

func runReview(path string, a reviewRunArgs) error {
	config.LoadEnv(".")
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	// Review applies to string catalogs only, whatever the path looks like.
	files, err := finder.Find(path, finder.StringCatalog)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logWarning(i18n.T("No translatable files found at %s"), path)
		return nil
	}

	prov, err := a.pf.resolveProvider(cfg, a.verbose)
	if err != nil {
		return err
	}

	concurrent := a.concurrent
	if concurrent == 0 && cfg != nil {
		concurrent = cfg.Concurrent
	}

	ctx, cancel := signalContext()
	defer cancel()

	onLog, onError, onProgress := engineCallbacks(a.verbose)
	opts := translate.Options{
		Provider:         prov,
		TargetLanguages:  a.langs,
		MaxConcurrent:    concurrent,
		Overwrite:        a.overwrite,
		SkipConfirmation: a.skipConfirm,
		Verbose:          a.verbose,
		OnLog:            onLog,
		OnError:          onError,
		OnProgress:       onProgress,
	}

	start := time.Now()
	total := 0

	for _, file := range files {
		logInfo("Reviewing %s", file)

		count, err := translate.EvaluateCatalog(ctx, file, opts)
		if err != nil {
			if ctx.Err() != nil {
				logWarning("Review interrupted, partial progress saved")
				os.Exit(0)
			}
			return err
		}
		total += count
	}

	logSuccess("Reviewed %d key(s) in %s", total, time.Since(start).Round(10*time.Millisecond))
	return nil
}
