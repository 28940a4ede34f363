package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"placesync/app/assets"
	"placesync/app/cfg"
	"placesync/app/config"
	"placesync/app/source"
	"placesync/app/sync"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting placesync", "version", appCfg.Version)

	siteConfig, err := config.NewLoader(appCfg.SiteConfigFile).Load()
	if err != nil {
		slog.Error("Failed to load site configuration", "path", appCfg.SiteConfigFile, "error", err)
		os.Exit(1)
	}

	client := source.NewClient(appCfg.SourceURL, appCfg.SourceToken, appCfg.ContentType,
		appCfg.SourceVersion, appCfg.PageSize, appCfg.RedirectHops, appCfg.UserAgent)

	var (
		cache    *assets.Cache
		cdn      *assets.CDN
		resolver *assets.Resolver
	)
	if appCfg.CloudinaryEnabled() {
		cache = assets.NewCache(appCfg.AssetCacheFile)
		cdn = assets.NewCDN(assets.DefaultCloudinaryURL, appCfg.CloudinaryCloud,
			appCfg.CloudinaryKey, appCfg.CloudinarySecret, appCfg.UserAgent)
		resolver = assets.NewResolver(cache, cdn, appCfg.UserAgent)
	} else {
		slog.Info("Cloudinary not configured, gallery URLs are passed through")
	}

	runner := sync.NewRunner(siteConfig, client, cache, cdn, resolver,
		appCfg.OutputDir, appCfg.RedirectsFile, appCfg.DataDir, appCfg.PublicAPIDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx)
	if err != nil {
		slog.Error("Sync failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(report.Summary())
}
