// Command scripture is the CLI for the versioned local scripture store.
// It provisions bundled translation databases, reads books and chapters,
// switches the active translation, and manages personal reading state.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/everhopes/scripture/core/cache"
	"github.com/everhopes/scripture/core/canon"
	"github.com/everhopes/scripture/core/registry"
	"github.com/everhopes/scripture/core/sqlite"
	"github.com/everhopes/scripture/internal/config"
	"github.com/everhopes/scripture/internal/logging"
	"github.com/everhopes/scripture/internal/overlay"
	"github.com/everhopes/scripture/internal/provision"
	"github.com/everhopes/scripture/internal/reader"
	"github.com/everhopes/scripture/internal/switcher"
)

const version = "0.1.0"

// CLI defines the command-line interface for scripture.
var CLI struct {
	// Global flags
	Config   string `name:"config" short:"c" default:"config.yaml" help:"Configuration file path" type:"path"`
	DataDir  string `name:"data-dir" help:"Override the data directory"`
	AssetDir string `name:"asset-dir" help:"Override the packaged asset directory"`
	LogLevel string `name:"log-level" help:"Override the log level (debug, info, warn, error)"`

	Versions  VersionsCmd  `cmd:"" help:"List bundled translations"`
	Use       UseCmd       `cmd:"" help:"Switch the active translation"`
	Books     BooksCmd     `cmd:"" help:"List the books of the active translation"`
	Read      ReadCmd      `cmd:"" help:"Read one chapter"`
	Highlight HighlightCmd `cmd:"" help:"Toggle or list verse highlights"`
	History   HistoryCmd   `cmd:"" help:"Show recently visited chapters"`
	Provision ProvisionCmd `cmd:"" help:"Materialize translation databases up front"`
	Info      InfoCmd      `cmd:"" help:"Show storage and driver information"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// loadConfig applies global flag overrides on top of the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.DataDir != "" {
		cfg.Storage.DataDir = CLI.DataDir
	}
	if CLI.AssetDir != "" {
		cfg.Storage.AssetDir = CLI.AssetDir
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}

	logging.InitLogger(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))
	return cfg, nil
}

// openSession builds the full reading stack. The returned cleanup closes
// the coordinator and overlay in order.
func openSession(ctx context.Context, cfg *config.Config) (*reader.Session, func(), error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	prov := provision.New(cfg.Storage.DataDir, registry.NewDirSource(cfg.Storage.AssetDir))
	coord := switcher.NewWithCache(prov, cache.Config{
		MaxSize: cfg.Cache.ChapterCacheSize,
	})

	state, err := overlay.Open(cfg.Storage.OverlayPath())
	if err != nil {
		coord.Close()
		return nil, nil, err
	}

	session := reader.NewSession(coord, state)
	if err := session.Start(ctx, cfg.DefaultTranslation); err != nil {
		state.Close()
		coord.Close()
		return nil, nil, err
	}

	cleanup := func() {
		coord.Close()
		state.Close()
	}
	return session, cleanup, nil
}

// VersionsCmd lists the bundled translations.
type VersionsCmd struct{}

func (c *VersionsCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prov := provision.New(cfg.Storage.DataDir, registry.NewDirSource(cfg.Storage.AssetDir))

	for _, d := range registry.All() {
		state := "not provisioned"
		if prov.Provisioned(d) {
			state = "ready"
		}
		fmt.Printf("%-6s %-30s %s\n", d.Key, d.DisplayName, state)
	}
	return nil
}

// UseCmd switches the active translation.
type UseCmd struct {
	Key string `arg:"" help:"Translation key (see 'scripture versions')"`
}

func (c *UseCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	session, cleanup, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := session.SwitchTranslation(ctx, c.Key); err != nil {
		return err
	}
	pos := session.Position()
	fmt.Printf("active translation: %s (position %d:%d)\n", session.Active(), pos.BookSerial, pos.Chapter)
	return nil
}

// BooksCmd lists the books of the active translation.
type BooksCmd struct{}

func (c *BooksCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	session, cleanup, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	books, _, err := session.Books()
	if err != nil {
		return err
	}
	for _, b := range books {
		fmt.Printf("%2d  %-4s %s (%d chapters, %s)\n",
			b.Serial, b.ShortName, b.FullName, b.ChapterCount, b.Testament())
	}
	return nil
}

// ReadCmd prints one chapter with highlight markers.
type ReadCmd struct {
	Book    int `arg:"" help:"Book serial (1-66)"`
	Chapter int `arg:"" help:"Chapter number"`
}

func (c *ReadCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	session, cleanup, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	view, err := session.OpenChapter(ctx, c.Book, c.Chapter)
	if err != nil {
		return err
	}
	if view.Position != (canon.Position{BookSerial: c.Book, Chapter: c.Chapter}) {
		fmt.Printf("(clamped to %d:%d)\n", view.Position.BookSerial, view.Position.Chapter)
	}
	for _, v := range view.Verses {
		marker := " "
		if v.Highlighted {
			marker = "*"
		}
		fmt.Printf("%s %3d  %s\n", marker, v.VerseNumber, v.Text)
	}
	return nil
}

// HighlightCmd toggles a verse highlight, or lists all highlights when no
// key is given.
type HighlightCmd struct {
	Key string `arg:"" optional:"" help:"Verse key as book-chapter-verse (e.g. 43-3-16)"`
}

func (c *HighlightCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	state, err := overlay.Open(cfg.Storage.OverlayPath())
	if err != nil {
		return err
	}
	defer state.Close()

	if c.Key == "" {
		for _, k := range state.Highlights() {
			fmt.Println(k)
		}
		return nil
	}

	k, err := overlay.ParseHighlightKey(c.Key)
	if err != nil {
		return err
	}
	if state.ToggleHighlight(k) {
		fmt.Printf("highlighted %s\n", k)
	} else {
		fmt.Printf("removed highlight %s\n", k)
	}
	return nil
}

// HistoryCmd shows recently visited chapters, most recent first.
type HistoryCmd struct{}

func (c *HistoryCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	state, err := overlay.Open(cfg.Storage.OverlayPath())
	if err != nil {
		return err
	}
	defer state.Close()

	for _, e := range state.History() {
		name := e.DisplayName
		if name == "" {
			if m, ok := canon.BookMeta(e.BookSerial); ok {
				name = m.FullName
			}
		}
		fmt.Printf("%-12s %s %d\n", e.VisitedAt.Local().Format("2006-01-02"), name, e.Chapter)
	}
	return nil
}

// ProvisionCmd materializes translation databases ahead of first use.
type ProvisionCmd struct {
	Keys []string `arg:"" optional:"" help:"Translation keys (default: all)"`
}

func (c *ProvisionCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	prov := provision.New(cfg.Storage.DataDir, registry.NewDirSource(cfg.Storage.AssetDir))

	keys := c.Keys
	if len(keys) == 0 {
		keys = registry.Keys()
	}
	ctx := context.Background()
	for _, key := range keys {
		desc, err := registry.Describe(key)
		if err != nil {
			return err
		}
		path, err := prov.EnsureReady(ctx, desc)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %s\n", key, path)
	}
	return nil
}

// InfoCmd shows storage paths and the SQLite driver in use.
type InfoCmd struct{}

func (c *InfoCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	info := sqlite.GetInfo()
	fmt.Printf("data directory:  %s\n", cfg.Storage.DataDir)
	fmt.Printf("asset directory: %s\n", cfg.Storage.AssetDir)
	fmt.Printf("overlay:         %s\n", cfg.Storage.OverlayPath())
	fmt.Printf("sqlite driver:   %s (%s)\n", info.DriverName, info.DriverType)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("scripture version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("scripture"),
		kong.Description("Versioned local scripture store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
