package cfg

type Cfg struct {
	// CMS source configuration
	SourceURL     string
	SourceToken   string
	ContentType   string
	SourceVersion string
	PageSize      int
	RedirectHops  int

	// Site output configuration
	SiteConfigFile string
	OutputDir      string
	DataDir        string
	PublicAPIDir   string
	RedirectsFile  string

	// Cloudinary configuration (optional; asset resolving is skipped
	// when the cloud name is empty)
	CloudinaryCloud  string
	CloudinaryKey    string
	CloudinarySecret string
	AssetCacheFile   string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}

// CloudinaryEnabled reports whether a full Cloudinary credential set is
// configured.
func (c *Cfg) CloudinaryEnabled() bool {
	return c.CloudinaryCloud != "" && c.CloudinaryKey != "" && c.CloudinarySecret != ""
}
