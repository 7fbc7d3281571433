package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/client"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/i18n"
	"github.com/fastygo/taskboard/internal/infrastructure/prefs"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/usecase"
	"github.com/fastygo/taskboard/usecase/board"
	"github.com/fastygo/taskboard/usecase/uistate"
)

const (
	sourceAPI   = "api"
	sourceDummy = "dummy"
)

// Options lets callers replace the pieces that touch the outside world.
type Options struct {
	Out io.Writer
	Err io.Writer
	// Collection replaces the HTTP client selected by --source.
	Collection usecase.Collection
	// Prefs replaces the bbolt preference file.
	Prefs uistate.PreferenceStore
	// Now fixes the clock used for relative dates.
	Now func() time.Time
}

type rootFlags struct {
	api     string
	source  string
	author  string
	lang    string
	prefs   string
	verbose bool
}

type app struct {
	opts  Options
	flags rootFlags

	cfg    *config.Config
	logger *zap.Logger
	tr     *i18n.Translator
	ui     *uistate.Store
	view   *renderer

	collection usecase.Collection
	cache      *board.Cache
	components *lifecycle.Manager
}

// Execute runs the kanban command line with the process arguments.
func Execute(ctx context.Context) error {
	return Run(ctx, os.Args[1:], Options{})
}

// Run executes one command line against opts.
func Run(ctx context.Context, args []string, opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &app{opts: opts}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kanban",
		Short:         "Kanban board for the task collection",
		Long:          `kanban lists, filters and edits the tasks of a task collection. Changes show up at once and are undone if the collection refuses them.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.api, "api", "", "collection base URL (default $KANBAN_API_URL)")
	pf.StringVar(&a.flags.source, "source", "", "task source: api or dummy (default $KANBAN_SOURCE)")
	pf.StringVar(&a.flags.author, "author", "", "comment author (default $KANBAN_AUTHOR)")
	pf.StringVar(&a.flags.lang, "lang", "", "output language: en or fr")
	pf.StringVar(&a.flags.prefs, "prefs", "", "preferences file (default $KANBAN_PREFS_PATH)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.listCmd(),
		a.boardCmd(),
		a.showCmd(),
		a.addCmd(),
		a.editCmd(),
		a.moveCmd(),
		a.rmCmd(),
		a.commentCmd(),
		a.teamCmd(),
		a.statsCmd(),
		a.calendarCmd(),
		a.watchCmd(),
		a.prefsCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.applyFlags()

	level := "warn"
	if a.flags.verbose {
		level = "debug"
	}
	a.logger, err = logger.New(logger.Config{Level: level, Encoding: "console", Output: a.opts.Err})
	if err != nil {
		return err
	}
	a.components = lifecycle.New(5*time.Second, a.logger)

	store := a.opts.Prefs
	if store == nil {
		bolt, err := prefs.Open(cfg.Client.PrefsPath)
		if err != nil {
			a.logger.Warn("preferences unavailable", zap.String("path", cfg.Client.PrefsPath), zap.Error(err))
		} else {
			a.components.Register("preferences", func(context.Context) error { return bolt.Close() })
			store = bolt
		}
	}
	a.ui = uistate.New(store, a.logger)

	lang := a.ui.State().Language
	if cfg.Client.Language != "" {
		if lang, err = uistate.MatchLanguage(cfg.Client.Language); err != nil {
			return err
		}
	}
	a.tr, err = i18n.New(lang)
	if err != nil {
		return err
	}

	a.view = newRenderer(a.opts.Out, a.ui.State().Theme, a.tr, a.opts.Now)
	return nil
}

// applyFlags lets explicit flags win over the environment.
func (a *app) applyFlags() {
	c := &a.cfg.Client
	if a.flags.api != "" {
		c.APIURL = a.flags.api
	}
	if a.flags.source != "" {
		c.Source = a.flags.source
	}
	if a.flags.author != "" {
		c.Author = a.flags.author
	}
	if a.flags.lang != "" {
		c.Language = a.flags.lang
	}
	if a.flags.prefs != "" {
		c.PrefsPath = a.flags.prefs
	}
}

// board returns the cache, loaded once from the collection.
func (a *app) board(ctx context.Context) (*board.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	collection, err := a.remote()
	if err != nil {
		return nil, err
	}
	cache := board.New(collection, a.logger)
	if err := cache.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", a.tr.T("failedToLoad"), err)
	}
	a.cache = cache
	return cache, nil
}

func (a *app) remote() (usecase.Collection, error) {
	if a.collection != nil {
		return a.collection, nil
	}
	if a.opts.Collection != nil {
		a.collection = a.opts.Collection
		return a.collection, nil
	}
	cfg := client.Config{BaseURL: a.cfg.Client.APIURL, Timeout: a.cfg.Client.Timeout}
	switch a.cfg.Client.Source {
	case sourceAPI, "":
		a.collection = client.New(cfg, a.logger)
	case sourceDummy:
		cfg.BaseURL = client.DummyJSONURL
		a.collection = client.NewDummySource(cfg, a.logger)
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", a.cfg.Client.Source, sourceAPI, sourceDummy)
	}
	return a.collection, nil
}

func (a *app) close() {
	if a.components != nil {
		_ = a.components.Shutdown(context.Background())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
