package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/screenager/frz/internal/app"
	"github.com/screenager/frz/internal/fswalk"
	"github.com/screenager/frz/internal/row"
	"github.com/screenager/frz/internal/theme"
)

var (
	defaultCacheDirName = ".frz-cache"
	defaultThreads      = 0
	defaultMaxDepth     = 0
	defaultPreview      = true
	defaultPreviewLines = 200
	defaultTheme        = ""
)

func main() {
	root := &cobra.Command{
		Use:   "frz [path]",
		Short: "Interactive fuzzy finder over a directory tree",
		Long:  "frz — a live, incrementally-indexed fuzzy finder for the terminal.",
		Args:  cobra.MaximumNArgs(1),
	}

	var cfg struct {
		CacheDir   string `toml:"cache-dir"`
		Threads    int    `toml:"threads"`
		MaxDepth   int    `toml:"max-depth"`
		Preview    bool   `toml:"preview"`
		MaxLines   int    `toml:"preview-max-lines"`
		Theme      string `toml:"theme"`
		Hidden     bool   `toml:"hidden"`
		GitIgnore  bool   `toml:"respect-gitignore"`
		FollowSyms bool   `toml:"follow-symlinks"`
	}
	cfg.Preview = defaultPreview
	cfg.MaxLines = defaultPreviewLines
	cfg.GitIgnore = true

	if dir := configDir(); dir != "" {
		if b, err := os.ReadFile(filepath.Join(dir, "config.toml")); err == nil {
			_ = toml.Unmarshal(b, &cfg)
		}
	}

	var (
		cacheDirFlag  string
		threadsFlag   int
		maxDepthFlag  int
		previewFlag   bool
		maxLinesFlag  int
		themeFlag     string
		hiddenFlag    bool
		gitignoreFlag bool
		symlinksFlag  bool
		query         string
	)
	root.Flags().StringVar(&cacheDirFlag, "cache-dir", cfg.CacheDir, "directory for index snapshot caches (empty uses <data dir>/.frz-cache)")
	root.Flags().IntVar(&threadsFlag, "threads", cfg.Threads, "filesystem walker worker count (0 = auto)")
	root.Flags().IntVar(&maxDepthFlag, "max-depth", cfg.MaxDepth, "maximum directory recursion depth (0 = unlimited)")
	root.Flags().BoolVar(&previewFlag, "preview", cfg.Preview, "enable the file preview pane")
	root.Flags().IntVar(&maxLinesFlag, "preview-max-lines", cfg.MaxLines, "maximum lines rendered in a text preview")
	root.Flags().StringVar(&themeFlag, "theme", cfg.Theme, "preview syntax theme name")
	root.Flags().BoolVar(&hiddenFlag, "hidden", cfg.Hidden, "include hidden files and directories")
	root.Flags().BoolVar(&gitignoreFlag, "respect-gitignore", cfg.GitIgnore, "skip paths matched by .gitignore")
	root.Flags().BoolVar(&symlinksFlag, "follow-symlinks", cfg.FollowSyms, "follow symbolic links while walking")
	root.Flags().StringVar(&query, "query", "", "pre-seed the search box with this text")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		absTarget, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", target, err)
		}
		info, err := os.Stat(absTarget)
		if err != nil {
			return fmt.Errorf("stat %s: %w", absTarget, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", absTarget)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cacheDir := cacheDirFlag
		if cacheDir == "" {
			if dataDir := dataDir(); dataDir != "" {
				cacheDir = filepath.Join(dataDir, defaultCacheDirName)
			}
		}

		data := row.SearchData{
			Root:         absTarget,
			ContextLabel: filepath.Base(absTarget),
			InitialQuery: query,
		}

		outcome, err := app.Run(ctx, data, app.Options{
			CacheDir: cacheDir,
			Walk: fswalk.Options{
				IncludeHidden:      hiddenFlag,
				FollowSymlinks:     symlinksFlag,
				RespectIgnoreFiles: gitignoreFlag,
				Threads:            threadsFlag,
				MaxDepth:           maxDepthFlag,
			},
			PreviewEnabled:  previewFlag,
			PreviewMaxLines: maxLinesFlag,
			ThemeName:       themeFlag,
			Themes:          theme.Builtin(),
		})
		if err != nil {
			return err
		}
		if !outcome.Accepted {
			os.Exit(1)
		}
		fmt.Println(outcome.Selection.Path)
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configDir resolves the platform config directory frz reads config.toml
// from, honoring FRZ_CONFIG_DIR first.
func configDir() string {
	if dir := os.Getenv("FRZ_CONFIG_DIR"); dir != "" {
		return dir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "frz")
}

// dataDir resolves the platform data directory frz's index caches live
// under, honoring FRZ_DATA_DIR first.
func dataDir() string {
	if dir := os.Getenv("FRZ_DATA_DIR"); dir != "" {
		return dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "frz")
}
