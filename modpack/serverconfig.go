package modpack

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ServerSetupConfig is a ServerStarter server-setup-config.yaml.
type ServerSetupConfig struct {
	Specver int `yaml:"_specver" json:"_specver"`
	Modpack struct {
		Name        string `yaml:"name" json:"name"`
		Description string `yaml:"description" json:"description"`
	} `yaml:"modpack" json:"modpack"`
	Install Install `yaml:"install" json:"install"`
	Launch  Launch  `yaml:"launch" json:"launch"`
}

// Install holds the server install settings.
type Install struct {
	McVersion         string `yaml:"mcVersion" json:"mcVersion"`
	ForgeVersion      string `yaml:"forgeVersion" json:"forgeVersion"`
	ForgeInstallerURL string `yaml:"forgeInstallerUrl" json:"forgeInstallerUrl"`
	ModpackURL        string `yaml:"modpackUrl" json:"modpackUrl"`
	ModpackFormat     string `yaml:"modpackFormat" json:"modpackFormat"`
	FormatSpecific    struct {
		IgnoreProject []int `yaml:"ignoreProject" json:"ignoreProject"`
	} `yaml:"formatSpecific" json:"formatSpecific"`
	BaseInstallPath    string           `yaml:"baseInstallPath" json:"baseInstallPath"`
	IgnoreFiles        []string         `yaml:"ignoreFiles" json:"ignoreFiles"`
	AdditionalFiles    []AdditionalFile `yaml:"additionalFiles" json:"additionalFiles"`
	LocalFiles         []LocalFile      `yaml:"localFiles" json:"localFiles"`
	CheckFolder        bool             `yaml:"checkFolder" json:"checkFolder"`
	InstallForge       bool             `yaml:"installForge" json:"installForge"`
	SpongeBootstrapper string           `yaml:"spongeBootstrapper" json:"spongeBootstrapper"`
}

// AdditionalFile is downloaded into the server install on setup.
type AdditionalFile struct {
	URL         string `yaml:"url" json:"url"`
	Destination string `yaml:"destination" json:"destination"`
}

// LocalFile is copied into the server install on setup.
type LocalFile struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Launch holds the server launch settings.
type Launch struct {
	SpongeFix    bool     `yaml:"spongefix" json:"spongefix"`
	CheckOffline bool     `yaml:"checkOffline" json:"checkOffline"`
	MaxRAM       string   `yaml:"maxRam" json:"maxRam"`
	AutoRestart  bool     `yaml:"autoRestart" json:"autoRestart"`
	CrashLimit   int      `yaml:"crashLimit" json:"crashLimit"`
	CrashTimer   string   `yaml:"crashTimer" json:"crashTimer"`
	PreJavaArgs  string   `yaml:"preJavaArgs" json:"preJavaArgs"`
	JavaArgs     []string `yaml:"javaArgs" json:"javaArgs"`
}

// ParseServerSetupConfig decodes a server-setup-config.yaml document.
func ParseServerSetupConfig(data []byte) (ServerSetupConfig, error) {
	var cfg ServerSetupConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerSetupConfig{}, fmt.Errorf("invalid server setup config: %w", err)
	}
	return cfg, nil
}

// Marshal encodes the config as YAML.
func (c *ServerSetupConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// IsIgnored reports whether projectID is excluded from the server install.
func (c *ServerSetupConfig) IsIgnored(projectID int) bool {
	for _, id := range c.Install.FormatSpecific.IgnoreProject {
		if id == projectID {
			return true
		}
	}
	return false
}
