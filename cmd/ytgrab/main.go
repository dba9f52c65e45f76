package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkade/ytgrab"
	"github.com/mkade/ytgrab/async"
	"github.com/mkade/ytgrab/internal/boltdb"
	"github.com/mkade/ytgrab/internal/history"
	"github.com/mkade/ytgrab/internal/session"
	"github.com/mkade/ytgrab/internal/update"
	"github.com/mkade/ytgrab/internal/ytdlp"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:    ytgrab.Name,
		Usage:   "download videos and audio via yt-dlp",
		Version: ytgrab.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "video, playlist or channel `URL` to download",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "download `MODE`: video, playlist or channel (default: guessed from URL)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(ytgrab.FormatMP4),
				Usage:   "target `FORMAT`: mp4 or mp3",
			},
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Value:   "auto",
				Usage:   "maximum video `HEIGHT`, e.g. 720 or 1080p",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "save downloads to `DIR`",
			},
			&cli.BoolFlag{
				Name:  "subs",
				Usage: "also download subtitles",
			},
			&cli.BoolFlag{
				Name:  "thumb",
				Usage: "also download the thumbnail",
			},
			&cli.BoolFlag{
				Name:  "meta",
				Usage: "also write description and info JSON (video formats only)",
			},
			&cli.StringFlag{
				Name:  "mp3-bitrate",
				Usage: "audio `BITRATE` in kbps when --format mp3",
			},
			&cli.StringFlag{
				Name:  "history-db",
				Usage: "`PATH` of the download history database",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "no-update-check",
				Usage: "skip the background check for a newer release",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				config.Level.SetLevel(zapcore.DebugLevel)
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return runDownload(ctx, c)
		},
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "list past downloads",
				Action: func(c *cli.Context) error {
					return runHistory(c)
				},
			},
			{
				Name:  "update",
				Usage: "check for a newer release",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "install",
						Usage: "download and install the newer release",
					},
				},
				Action: func(c *cli.Context) error {
					return runUpdate(ctx, c)
				},
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

func runDownload(ctx context.Context, c *cli.Context) error {
	logger := zap.S()

	source := c.String("url")
	if source == "" {
		source = c.Args().First()
	}
	if source == "" {
		source = promptForURL()
	}
	if source == "" {
		return cli.ShowAppHelp(c)
	}

	if !ytdlp.Available() {
		return cli.Exit(fmt.Sprintf("%s not found in PATH", ytdlp.Program), 1)
	}

	var updateResult <-chan async.Result[*update.Release]
	if !c.Bool("no-update-check") {
		// Runs alongside the download; failures stay invisible.
		updateResult = async.RunResult(func() (*update.Release, error) {
			return update.NewChecker().Check(ctx)
		})
	}

	req := ytgrab.Request{
		URL:        source,
		Mode:       resolveMode(c.String("mode"), source),
		Format:     ytgrab.Format(c.String("format")),
		Quality:    c.String("quality"),
		Subtitles:  c.Bool("subs"),
		Thumbnail:  c.Bool("thumb"),
		Metadata:   c.Bool("meta"),
		MP3Bitrate: c.String("mp3-bitrate"),
	}

	store, closeStore := openHistory(c)
	defer closeStore()

	ses, err := session.New(session.Config{
		SavePath: c.String("output"),
		FFmpeg:   ytgrab.DetectFFmpeg(),
		History:  store,
	}, ctx)
	if err != nil {
		return err
	}
	defer ses.Close()

	events, err := ses.Subscribe()
	if err != nil {
		return err
	}

	bar := progressbar.Default(100, "downloading")
	var downloadErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range events.Receive() {
			switch e := event.(type) {
			case session.DownloadStarted:
				logger.Infof("downloading %s", e.Download().State().Request.URL)
			case session.DownloadProgress:
				_ = bar.Set(e.NewState.Percent)
				bar.Describe(e.NewState.Details())
				logProgressChanges(logger, e)
			case session.DownloadStopped:
				downloadErr = e.Err
				return
			}
		}
	}()

	d, err := ses.Start(req)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	<-d.Stopped()
	wg.Wait()
	_ = bar.Close()

	if downloadErr != nil {
		// Dump the buffered yt-dlp output so the failure is diagnosable.
		fmt.Fprintln(os.Stderr, ses.Log().Text())
		return cli.Exit(fmt.Sprintf("download failed: %v", downloadErr), 1)
	}
	logger.Info("download complete")

	if updateResult != nil {
		select {
		case result := <-updateResult:
			if release, err := result.Parts(); err == nil && release != nil {
				fmt.Printf("a new version (%s) is available, run `%s update --install` to upgrade\n",
					release.Version, ytgrab.Name)
			}
		default:
		}
	}
	return nil
}

// resolveMode applies the explicit flag if given, otherwise guesses from the
// URL shape, defaulting to a single video.
func resolveMode(flag string, source string) ytgrab.Mode {
	guessed, ok := classifyOrDefault(source)
	if flag == "" {
		return guessed
	}
	mode := ytgrab.Mode(flag)
	if ok && guessed != mode {
		zap.S().Warnf("URL looks like a %s but mode is %s; downloading as %s", guessed, mode, mode)
	}
	return mode
}

func classifyOrDefault(source string) (ytgrab.Mode, bool) {
	if mode, ok := ytgrab.ClassifyURL(source); ok {
		return mode, true
	}
	return ytgrab.ModeVideo, false
}

func promptForURL() string {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return ""
	}
	fmt.Print("Enter URL to download: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func logProgressChanges(logger *zap.SugaredLogger, e session.DownloadProgress) {
	if !logger.Desugar().Core().Enabled(zapcore.DebugLevel) {
		return
	}
	changes, err := diff.Diff(e.OldState, e.NewState)
	if err != nil {
		logger.Errorf("failed to diff old and new progress state: %v", err)
		return
	}
	for _, change := range changes {
		logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}

// openHistory opens the history database, falling back to a no-op store when
// it can't be opened so downloads still work.
func openHistory(c *cli.Context) (history.Store, func()) {
	path := c.String("history-db")
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			zap.S().Warnf("download history disabled: %v", err)
			return history.NilStore{}, func() {}
		}
		path = filepath.Join(configDir, ytgrab.Name, "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		zap.S().Warnf("download history disabled: %v", err)
		return history.NilStore{}, func() {}
	}
	db, err := boltdb.New(path)
	if err != nil {
		zap.S().Warnf("download history disabled: %v", err)
		return history.NilStore{}, func() {}
	}
	return db, func() { _ = db.Close() }
}

func runHistory(c *cli.Context) error {
	store, closeStore := openHistory(c)
	defer closeStore()

	records, err := store.ListDownloads()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read history: %v", err), 1)
	}
	if len(records) == 0 {
		fmt.Println("no downloads recorded yet")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-8s  %s/%s  %s",
			r.AddedAt.Format("2006-01-02 15:04"), r.Status, r.Mode, r.Format, r.URL)
		if r.Status == history.StatusError && r.Error != "" {
			line += fmt.Sprintf("  (%s)", r.Error)
		}
		fmt.Println(line)
	}
	return nil
}

func runUpdate(ctx context.Context, c *cli.Context) error {
	checker := update.NewChecker()
	release, err := checker.Check(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("update check failed: %v", err), 1)
	}
	if release == nil {
		fmt.Printf("%s %s is up to date\n", ytgrab.Name, ytgrab.Version)
		return nil
	}
	fmt.Printf("new version available: %s (running %s)\n", release.Version, ytgrab.Version)
	if !c.Bool("install") {
		fmt.Printf("run `%s update --install` to upgrade\n", ytgrab.Name)
		return nil
	}
	if err := update.Install(ctx, http.DefaultClient, release); err != nil {
		return cli.Exit(fmt.Sprintf("update failed: %v", err), 1)
	}
	fmt.Printf("updated to %s, restart %s to use the new version\n", release.Version, ytgrab.Name)
	return nil
}
