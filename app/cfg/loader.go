package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// CMS source configuration
	SourceURL     string `long:"source-url" env:"SOURCE_URL" default:"https://api.storyblok.com/v2/cdn" description:"CMS API base URL"`
	SourceToken   string `long:"source-token" env:"SOURCE_TOKEN" required:"true" description:"CMS API access token (required)"`
	ContentType   string `long:"content-type" env:"CONTENT_TYPE" default:"place" description:"CMS content type to fetch"`
	SourceVersion string `long:"source-version" env:"SOURCE_VERSION" default:"published" description:"CMS version filter (published or draft)"`
	PageSize      int    `long:"page-size" env:"PAGE_SIZE" default:"100" description:"Number of records fetched per page"`
	RedirectHops  int    `long:"redirect-hops" env:"REDIRECT_HOPS" default:"5" description:"Maximum HTTP redirects followed per request"`

	// Site output configuration
	SiteConfigFile string `long:"site-config" env:"SITE_CONFIG" default:"./site.yml" description:"Path to the site configuration file"`
	OutputDir      string `long:"output-dir" env:"OUTPUT_DIR" default:"./content" description:"Directory for generated Markdown content"`
	DataDir        string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for generated index data consumed by the site generator"`
	PublicAPIDir   string `long:"public-api-dir" env:"PUBLIC_API_DIR" default:"./static/api" description:"Directory for the public JSON export"`
	RedirectsFile  string `long:"redirects-file" env:"REDIRECTS_FILE" default:"./static/_redirects" description:"Path to the generated short-link redirect table"`

	// Cloudinary configuration (optional)
	CloudinaryCloud  string `long:"cloudinary-cloud" env:"CLOUDINARY_CLOUD" description:"Cloudinary cloud name (asset resolving disabled when empty)"`
	CloudinaryKey    string `long:"cloudinary-key" env:"CLOUDINARY_KEY" description:"Cloudinary API key"`
	CloudinarySecret string `long:"cloudinary-secret" env:"CLOUDINARY_SECRET" description:"Cloudinary API secret"`
	AssetCacheFile   string `long:"asset-cache" env:"ASSET_CACHE" default:"./.asset-cache.json" description:"Path to the persisted asset URL cache"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"placesync/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Credentials commonly live in a local .env file; a missing file is fine.
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourceURL:        raw.SourceURL,
		SourceToken:      raw.SourceToken,
		ContentType:      raw.ContentType,
		SourceVersion:    raw.SourceVersion,
		PageSize:         raw.PageSize,
		RedirectHops:     raw.RedirectHops,
		SiteConfigFile:   raw.SiteConfigFile,
		OutputDir:        raw.OutputDir,
		DataDir:          raw.DataDir,
		PublicAPIDir:     raw.PublicAPIDir,
		RedirectsFile:    raw.RedirectsFile,
		CloudinaryCloud:  raw.CloudinaryCloud,
		CloudinaryKey:    raw.CloudinaryKey,
		CloudinarySecret: raw.CloudinarySecret,
		AssetCacheFile:   raw.AssetCacheFile,
		UserAgent:        raw.UserAgent,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
