package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"motiond/internal/camerapipe"
	"motiond/internal/config"
	"motiond/internal/frame"
	"motiond/internal/runtime"
	"motiond/internal/secondary"
	"motiond/internal/source"
)

func main() {
	var (
		configFiles multiFlag
		background  = flag.Bool("b", false, "run in the background")
		foreground  = flag.Bool("n", false, "stay in the foreground (overrides -b)")
		logLevel    = flag.Int("d", 6, "log verbosity level (1-9)")
		killType    = flag.String("k", "", "signal a running daemon instead of starting one: term|hup|usr1")
		pidFile     = flag.String("p", "", "write the daemon's pid to this file")
		logFile     = flag.String("l", "", "write log output to this file instead of stderr")
		setupMode   = flag.Bool("m", false, "run config validation only, then exit")
		dbPath      = flag.String("db", "", "path to the SQLite event/config log (empty disables it)")
	)
	flag.Var(&configFiles, "c", "camera config file (repeatable, one per camera)")
	flag.Parse()

	logOut := os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "motiond: open log file: %v\n", err)
			os.Exit(1)
		}
		logOut = f
	}
	logger := log.New(logOut, "[motiond] ", log.Ldate|log.Ltime)
	_ = logLevel // verbosity gating is left to the logger's call sites; no level filter yet

	if *killType != "" {
		if err := signalDaemon(*pidFile, *killType); err != nil {
			logger.Fatalf("signal daemon: %v", err)
		}
		return
	}

	if len(configFiles) == 0 {
		logger.Fatal("at least one -c config file is required")
	}

	if *pidFile != "" {
		if err := os.WriteFile(*pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
			logger.Fatalf("write pidfile: %v", err)
		}
		defer os.Remove(*pidFile)
	}

	rt, err := runtime.New(*dbPath, logger)
	if err != nil {
		logger.Fatalf("runtime init: %v", err)
	}
	defer rt.Close()

	cams := make([]*camera, 0, len(configFiles))
	for i, path := range configFiles {
		cam, err := loadCamera(path, i, rt)
		if err != nil {
			logger.Fatalf("camera %q: %v", path, err)
		}
		cams = append(cams, cam)
	}

	if *setupMode {
		logger.Printf("config OK for %d camera(s)", len(cams))
		return
	}

	if *background && !*foreground {
		logger.Printf("daemonization is left to the service supervisor (systemd/runit); continuing in the foreground")
	}

	errc := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	for _, cam := range cams {
		wg.Add(1)
		go func(cam *camera) {
			defer wg.Done()
			cam.pipeline.Run(ctx)
			cam.source.Close()
		}(cam)
	}

	logger.Printf("exiting (%v)", <-errc)
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(8 * time.Second):
		logger.Printf("camera shutdown still pending after 8s, exiting anyway")
	}
	logger.Println("exited")
}

type camera struct {
	id       string
	source   source.FrameSource
	pipeline *camerapipe.Pipeline
}

// loadCamera parses one camera's config file into a Profile and wires its
// source, handler set and pipeline. The camera id is always "cam<index>".
// A width or height that is not a multiple of 8 is rejected here.
func loadCamera(path string, index int, rt *runtime.Runtime) (*camera, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reg, err := config.Parse(f)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("cam%d", index)
	name := strconvFileBase(path)
	profile := camerapipe.ProfileFromRegistry(id, name, reg)
	if !frame.ModuloOK(profile.Width, profile.Height, 8) {
		return nil, fmt.Errorf("width %d and height %d must both be multiples of 8", profile.Width, profile.Height)
	}

	src, err := openSource(profile)
	if err != nil {
		return nil, err
	}

	dispatcher, _ := camerapipe.Wire(profile, rt, nil)

	pipe := camerapipe.New(profile, src, dispatcher, rt.Log)
	if profile.SecondaryInterval > 0 && profile.SecondaryURL != "" {
		pipe.Secondary = &secondary.Runner{
			Client:   secondary.NewClient(profile.SecondaryURL),
			Mailbox:  secondary.NewMailbox(),
			Interval: profile.SecondaryInterval,
		}
	}

	return &camera{id: id, source: src, pipeline: pipe}, nil
}

func openSource(p camerapipe.Profile) (source.FrameSource, error) {
	if p.NetcamURL != "" {
		timeout := time.Duration(p.ReadTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return source.OpenNetcamSource(p.NetcamURL, p.Width, p.Height, timeout)
	}
	return source.OpenLocalSource(source.FfmpegDeviceBackend{}, p.VideoDevice, p.Width, p.Height, p.Framerate)
}

func strconvFileBase(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// signalDaemon reads pidFile and sends the signal named by kind to that
// process, mirroring the original's -k term|hup|usr1 flag.
func signalDaemon(pidFile, kind string) error {
	if pidFile == "" {
		return fmt.Errorf("-k requires -p pidfile")
	}
	raw, err := os.ReadFile(pidFile)
	if err != nil {
		return err
	}
	pid, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("parse pidfile: %w", err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	var sig os.Signal
	switch kind {
	case "term":
		sig = syscall.SIGTERM
	case "hup":
		sig = syscall.SIGHUP
	case "usr1":
		sig = syscall.SIGUSR1
	default:
		return fmt.Errorf("unknown signal kind %q (want term|hup|usr1)", kind)
	}
	return proc.Signal(sig)
}

type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint([]string(*m)) }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
