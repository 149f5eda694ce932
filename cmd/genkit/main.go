package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"

	"github.com/casualjim/genkit"
	"github.com/casualjim/genkit/internal/reflection"
	"github.com/casualjim/genkit/pkg/slogx"
)

func setupLogging(level slog.Level) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}

func main() {
	if err := run(); err != nil {
		slog.Error("genkit exited with an error", slogx.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level, err := cfg.level()
	if err != nil {
		return err
	}
	setupLogging(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	plugins := cfg.plugins()
	if len(plugins) == 0 {
		slog.Warn("no provider credentials configured, set GOOGLE_API_KEY or OPENAI_API_KEY")
	}

	g, err := genkit.Init(ctx,
		genkit.WithPlugins(plugins...),
		genkit.WithDefaultModel(cfg.DefaultModel),
	)
	if err != nil {
		return err
	}

	srv, err := reflection.New(g,
		reflection.WithHost(cfg.ReflectionHost),
		reflection.WithPort(cfg.ReflectionPort),
		reflection.WithEnvs(cfg.Env),
	)
	if err != nil {
		return err
	}

	printBanner(os.Stdout, cfg, g, srv.Addr())
	return srv.Start(ctx)
}

func printBanner(w io.Writer, cfg Config, g *genkit.Genkit, addr string) {
	fmt.Fprintf(w, "%s %s\n", color.New(color.FgCyan, color.Bold).Sprint("genkit"), color.HiBlackString("(%s)", cfg.Env))
	for _, p := range g.Plugins() {
		fmt.Fprintf(w, "  %s %s\n", color.GreenString("plugin"), p.Name())
	}
	fmt.Fprintf(w, "  %s %d registered\n", color.YellowString("actions"), len(genkit.ListActions(g)))
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	fmt.Fprintf(w, "  %s http://%s/api\n", color.MagentaString("reflection"), addr)
}
