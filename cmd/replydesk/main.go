package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ReplyDesk/internal/calendar"
	"ReplyDesk/internal/chatbot"
	"ReplyDesk/internal/clipboard"
	"ReplyDesk/internal/config"
	"ReplyDesk/internal/desk"
	"ReplyDesk/internal/gemini"
	"ReplyDesk/internal/inbox"
	"ReplyDesk/internal/live"
	"ReplyDesk/internal/server"
	"ReplyDesk/internal/telemetry"
)

func main() {
	var (
		configPath string
		addr       string
		sessionID  string
		console    bool
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config.yaml (default: $CONFIG_PATH or ./config.yaml)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flag.StringVar(&sessionID, "session-id", "", "Resume a saved chat session (console mode)")
	flag.BoolVar(&console, "console", false, "Run the chat assistant in the terminal instead of serving HTTP")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	cfg.Console = console
	cfg.Debug = debug
	if debug {
		cfg.Log.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sessionID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, sessionID string) error {
	logger, logFile, err := telemetry.InitLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logFile.Close()

	tracer, meter, shutdownTelemetry, err := telemetry.InitTelemetry(ctx, cfg.Telemetry, cfg.Log.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry()

	if cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	st, err := openStores(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	gw, err := gemini.New(ctx, cfg.Gemini,
		gemini.WithLogger(logger),
		gemini.WithTracer(tracer),
		gemini.WithMeter(meter),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini gateway: %w", err)
	}

	buffer := &clipboard.Buffer{}
	var writer clipboard.Writer = buffer
	if cfg.Clipboard.Target == config.ClipboardTerminal {
		writer = teeWriter{buffer, clipboard.NewTerminal(os.Stderr)}
	}
	copier := clipboard.NewCopier(writer, cfg.Clipboard.ResetAfter)
	defer copier.Close()

	notices := &desk.NoticeBoard{}
	d := desk.New(desk.Deps{
		Analyzer:       gw,
		QuickResponses: st.quick,
		History:        st.history,
		Calendar:       calendar.NewGenerator(cfg.Calendar),
		Copier:         copier,
		Notices:        notices,
		Logger:         logger,
	})
	chat := chatbot.NewChatBot(gw.NewChat(), gw, st.sessions, notices, logger)

	if cfg.Console {
		if sessionID != "" {
			if err := chat.Resume(ctx, sessionID); err != nil {
				logger.Warn("failed to load session, creating new one", "error", err)
			}
		}
		return chat.Run(ctx, os.Stdin, os.Stdout)
	}

	stopInbox := d.Start(ctx, inbox.NewSource(inbox.DefaultScript, cfg.Inbox.InitialDelay, cfg.Inbox.Interval))
	defer stopInbox()

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(server.Deps{
			Config:    cfg.Server,
			Desk:      d,
			Chat:      chat,
			Clipboard: buffer,
			Connector: gw,
			Live:      liveConfig(cfg.Live),
			Logger:    logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "storage", cfg.Storage.Backend, "ai", cfg.HasAPIKey())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func liveConfig(c config.LiveConfig) live.Config {
	return live.Config{
		Model:             c.Model,
		Voice:             c.Voice,
		SystemInstruction: live.SystemInstruction,
		InputSampleRate:   c.InputSampleRate,
		OutputSampleRate:  c.OutputSampleRate,
		BlockSize:         c.BlockSize,
	}
}

// teeWriter copies to every writer and reports the first failure.
type teeWriter []clipboard.Writer

func (t teeWriter) WriteText(ctx context.Context, text string) error {
	var first error
	for _, w := range t {
		if err := w.WriteText(ctx, text); err != nil && first == nil {
			first = err
		}
	}
	return first
}
