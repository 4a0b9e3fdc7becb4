package config

const (
	defaultRepoDir            = "."
	defaultInputDir           = "raw_images"
	defaultOutputDir          = "Public/TMP_news/images"
	defaultArchiveDir         = "already_optimize_image"
	defaultURLLogDir          = "optimized_image_url"
	defaultStateDir           = "~/.local/share/pixship"
	defaultBaseURL            = "https://tmpnews.786313.xyz"
	defaultPathPrefix         = "TMP_news/images"
	defaultEncoderBinary      = "cwebp"
	defaultEncoderQuality     = 60
	defaultEncoderMethod      = 6
	defaultEncoderMaxWidth    = 1280
	defaultOutputExtension    = "webp"
	defaultLiveLogFile        = "generated_webp_image_url.txt"
	defaultTestLogFile        = "testing_url.txt"
	defaultPublishMode        = ModePlain
	defaultRemote             = "origin"
	defaultBranch             = "main"
	defaultCommitMessage      = "Mobile Upload: {count} new images"
	defaultDispatchAPIBaseURL = "https://api.github.com"
	defaultDispatchWorkflow   = "deploy.yml"
	defaultDispatchAPIVersion = "2022-11-28"
	defaultDispatchTimeout    = 30
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultExtensions = []string{"jpg", "jpeg", "png", "webp"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RepoDir:    defaultRepoDir,
			InputDir:   defaultInputDir,
			OutputDir:  defaultOutputDir,
			ArchiveDir: defaultArchiveDir,
			URLLogDir:  defaultURLLogDir,
			StateDir:   defaultStateDir,
		},
		Site: Site{
			BaseURL:    defaultBaseURL,
			PathPrefix: defaultPathPrefix,
		},
		Encoder: Encoder{
			Binary:          defaultEncoderBinary,
			Quality:         defaultEncoderQuality,
			Method:          defaultEncoderMethod,
			MaxWidth:        defaultEncoderMaxWidth,
			Extensions:      append([]string(nil), defaultExtensions...),
			OutputExtension: defaultOutputExtension,
		},
		Links: Links{
			LiveFile: defaultLiveLogFile,
			TestFile: defaultTestLogFile,
		},
		Publish: Publish{
			Mode:          defaultPublishMode,
			Remote:        defaultRemote,
			Branch:        defaultBranch,
			CommitMessage: defaultCommitMessage,
		},
		Dispatch: Dispatch{
			APIBaseURL:     defaultDispatchAPIBaseURL,
			Workflow:       defaultDispatchWorkflow,
			APIVersion:     defaultDispatchAPIVersion,
			TimeoutSeconds: defaultDispatchTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
