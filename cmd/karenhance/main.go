// Command restored runs a single analyze or process job against an
// instrumental restoration session from the command line. It exists as a
// thin driver over internal/worker.Pipeline; an HTTP or streaming control
// surface is out of scope here and would wire the same Pipeline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/karenhance/restored/internal/audio"
	"github.com/karenhance/restored/internal/config"
	"github.com/karenhance/restored/internal/session"
	"github.com/karenhance/restored/internal/types"
	"github.com/karenhance/restored/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "process":
		err = runProcess(ctx, os.Args[2:])
	case "version":
		fmt.Println(Version)
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: restored <analyze|process> [flags]")
}

// sharedFlags are the config/data-dir/ffmpeg overrides common to both
// subcommands.
type sharedFlags struct {
	configDir string
	dataDir   string
	ffmpeg    string
	ffprobe   string
}

func bindShared(fs *flag.FlagSet) *sharedFlags {
	sf := &sharedFlags{}
	fs.StringVar(&sf.configDir, "config", defaultConfigDir(), "configuration directory")
	fs.StringVar(&sf.dataDir, "data-dir", "", "session data directory (overrides config)")
	fs.StringVar(&sf.ffmpeg, "ffmpeg", "", "ffmpeg binary path (overrides config)")
	fs.StringVar(&sf.ffprobe, "ffprobe", "", "ffprobe binary path (overrides config)")
	return sf
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.restored"
	}
	return filepath.Join(home, ".config", "restored")
}

func setup(sf *sharedFlags) (*config.Manager, *session.Store, *audio.Decoder, error) {
	mgr := config.NewManager(sf.configDir)
	if err := mgr.Load(); err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := mgr.Get()

	dataDir := cfg.DataDir
	if sf.dataDir != "" {
		dataDir = sf.dataDir
	}
	store, err := session.NewStore(dataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	ffmpegPath := cfg.FFmpeg.BinaryPath
	if sf.ffmpeg != "" {
		ffmpegPath = sf.ffmpeg
	}
	ffprobePath := cfg.FFmpeg.ProbePath
	if sf.ffprobe != "" {
		ffprobePath = sf.ffprobe
	}
	dec, err := audio.NewDecoder(ffmpegPath, ffprobePath)
	if err != nil {
		return nil, nil, nil, err
	}

	return mgr, store, dec, nil
}

func runAnalyze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	sf := bindShared(fs)
	sessionID := fs.String("session", "", "reuse an existing session id (default: generate a new one)")
	mode := fs.String("mode", "", "vocal or mix (default: config default)")
	vocalPath := fs.String("vocal", "", "path to the reference vocal or mix track")
	instPath := fs.String("instrumental", "", "path to the devocalized instrumental track")
	sensitivity := fs.Int("sensitivity", 0, "vocal mode detection sensitivity, 1-10 (default: config default)")
	bandCount := fs.Int("bands", 0, "number of frequency bands (default: config default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *vocalPath == "" || *instPath == "" {
		return fmt.Errorf("-vocal and -instrumental are required")
	}

	mgr, store, dec, err := setup(sf)
	if err != nil {
		return err
	}
	defaults := mgr.Get().Defaults

	id := *sessionID
	if id == "" {
		id, err = session.NewSessionID()
		if err != nil {
			return err
		}
	}

	modeStr := *mode
	if modeStr == "" {
		modeStr = defaults.Mode
	}
	req := types.AnalysisRequest{
		SessionID:   id,
		Mode:        types.ParseMode(modeStr),
		Sensitivity: orDefault(*sensitivity, defaults.Sensitivity),
		BandCount:   orDefault(*bandCount, defaults.BandCount),
	}

	if _, err := stageReference(store, id, "vocal", *vocalPath); err != nil {
		return err
	}
	if _, err := stageReference(store, id, "instrumental", *instPath); err != nil {
		return err
	}

	resp, err := worker.NewPipeline(store, dec).Analyze(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func runProcess(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	sf := bindShared(fs)
	sessionID := fs.String("session", "", "session id from a prior analyze call")
	mode := fs.String("mode", "", "vocal or mix (default: config default)")
	eqLevel := fs.Int("eq", -1, "restoration strength, 0-10 (default: config default)")
	bandCount := fs.Int("bands", 0, "number of frequency bands (default: config default)")
	sensitivity := fs.Int("sensitivity", 0, "vocal mode detection sensitivity, 1-10 (default: config default)")
	widen := fs.Bool("widen", false, "apply intensity-modulated stereo widening")
	normalization := fs.String("normalize", "", "none, peak, or loudness (default: config default)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sessionID == "" {
		return fmt.Errorf("-session is required")
	}

	mgr, store, dec, err := setup(sf)
	if err != nil {
		return err
	}
	defaults := mgr.Get().Defaults

	modeStr := *mode
	if modeStr == "" {
		modeStr = defaults.Mode
	}
	normStr := *normalization
	if normStr == "" {
		normStr = defaults.Normalization
	}
	norm, err := types.ParseNormalization(normStr)
	if err != nil {
		return err
	}
	eq := *eqLevel
	if eq < 0 {
		eq = defaults.EQLevel
	}

	req := types.ProcessRequest{
		SessionID:     *sessionID,
		Mode:          types.ParseMode(modeStr),
		EQLevel:       eq,
		BandCount:     orDefault(*bandCount, defaults.BandCount),
		Sensitivity:   orDefault(*sensitivity, defaults.Sensitivity),
		StereoWiden:   *widen,
		Normalization: norm,
	}

	resp, err := worker.NewPipeline(store, dec).Process(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func orDefault(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func stageReference(store *session.Store, id, kind, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return store.SaveReference(id, kind, data, filepath.Ext(path))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
