package curse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"modpack-editor/config"
	"modpack-editor/modpack"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// ErrAddonNotFound is returned when a slug does not match any project.
var ErrAddonNotFound = errors.New("addon not found")

// Cache stores raw API responses. Implementations must be safe for
// concurrent use.
type Cache interface {
	Addon(addonID int) ([]byte, bool)
	PutAddon(addonID int, payload []byte) error
	File(fileID int) ([]byte, bool)
	PutFile(addonID, fileID int, payload []byte) error
	SlugID(slug string) (int, bool)
	PutSlug(slug string, addonID int) error
}

// Client handles communication with the CurseForge proxy API.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Cache      Cache
	Log        *zap.SugaredLogger
}

// NewClient creates a new API client using the provided configuration.
// cache may be nil.
func NewClient(cfg config.Config, cache Cache, log *zap.SugaredLogger) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("USERAGENT is not configured")
	}
	if cfg.CurseAPIURL == "" {
		return nil, fmt.Errorf("CURSE_API_URL is not configured")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Client{
		BaseURL:   strings.TrimRight(cfg.CurseAPIURL, "/"),
		UserAgent: cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		Cache: cache,
		Log:   log,
	}, nil
}

func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

func (c *Client) cacheStore(what string, err error) {
	if err != nil {
		c.Log.Warnw("Failed to write to cache", zap.String("entry", what), zap.Error(err))
	}
}

// GetAddon retrieves a project, using the cache when it is fresh.
func (c *Client) GetAddon(ctx context.Context, addonID int) (AddonData, error) {
	var data AddonData
	if c.Cache != nil {
		if payload, ok := c.Cache.Addon(addonID); ok && json.Unmarshal(payload, &data) == nil {
			return data, nil
		}
	}

	payload, err := c.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/api/addon/%d", addonID), nil)
	if err != nil {
		return AddonData{}, fmt.Errorf("failed to get addon %d: %w", addonID, err)
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		return AddonData{}, fmt.Errorf("failed to decode addon %d: %w", addonID, err)
	}

	if c.Cache != nil {
		c.cacheStore(fmt.Sprintf("addon %d", addonID), c.Cache.PutAddon(addonID, payload))
		// Latest files come for free with the addon
		for _, f := range data.LatestFiles {
			if _, ok := c.Cache.File(f.ID); ok {
				continue
			}
			encoded, err := json.Marshal(f)
			if err != nil {
				continue
			}
			c.cacheStore(fmt.Sprintf("file %d", f.ID), c.Cache.PutFile(addonID, f.ID, encoded))
		}
	}
	return data, nil
}

// GetFile retrieves a file of a project. Files are immutable and cached forever.
func (c *Client) GetFile(ctx context.Context, addonID, fileID int) (FileData, error) {
	var data FileData
	if c.Cache != nil {
		if payload, ok := c.Cache.File(fileID); ok && json.Unmarshal(payload, &data) == nil {
			return data, nil
		}
	}

	payload, err := c.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/api/addon/%d/file/%d", addonID, fileID), nil)
	if err != nil {
		return FileData{}, fmt.Errorf("failed to get file %d of addon %d: %w", fileID, addonID, err)
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		return FileData{}, fmt.Errorf("failed to decode file %d of addon %d: %w", fileID, addonID, err)
	}

	if c.Cache != nil {
		c.cacheStore(fmt.Sprintf("file %d", fileID), c.Cache.PutFile(addonID, fileID, payload))
	}
	return data, nil
}

const slugQuery = `query getIDFromSlug($slug: String) {
	addons(slug: $slug) {
		id
	}
}`

type slugRequest struct {
	Query     string `json:"query"`
	Variables struct {
		Slug string `json:"slug"`
	} `json:"variables"`
}

type slugResponse struct {
	Data struct {
		Addons []struct {
			ID int `json:"id"`
		} `json:"addons"`
	} `json:"data"`
	Exception string `json:"exception"`
	Message   string `json:"message"`
}

// GetAddonIDBySlug resolves a project slug to its ID through the GraphQL endpoint.
func (c *Client) GetAddonIDBySlug(ctx context.Context, slug string) (int, error) {
	if c.Cache != nil {
		if id, ok := c.Cache.SlugID(slug); ok {
			return id, nil
		}
	}

	var request slugRequest
	request.Query = slugQuery
	request.Variables.Slug = slug

	payload, err := c.makeRequest(ctx, http.MethodPost, "/graphql", request)
	if err != nil {
		return 0, fmt.Errorf("failed to get id for slug '%s': %w", slug, err)
	}
	var response slugResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return 0, fmt.Errorf("failed to decode id for slug '%s': %w", slug, err)
	}
	if response.Exception != "" || response.Message != "" {
		return 0, fmt.Errorf("error requesting id for slug '%s': %s", slug, response.Message)
	}
	if len(response.Data.Addons) < 1 {
		return 0, fmt.Errorf("%w: %s", ErrAddonNotFound, slug)
	}

	id := response.Data.Addons[0].ID
	if c.Cache != nil {
		c.cacheStore("slug "+slug, c.Cache.PutSlug(slug, id))
	}
	return id, nil
}

// GetAddonBySlug retrieves a project by slug.
func (c *Client) GetAddonBySlug(ctx context.Context, slug string) (AddonData, error) {
	id, err := c.GetAddonIDBySlug(ctx, slug)
	if err != nil {
		return AddonData{}, err
	}
	return c.GetAddon(ctx, id)
}

// FileName returns the on-disk name of a file of the project slug.
func (c *Client) FileName(ctx context.Context, slug string, fileID int) (string, error) {
	id, err := c.GetAddonIDBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	file, err := c.GetFile(ctx, id, fileID)
	if err != nil {
		return "", err
	}
	if file.FileNameOnDisk != "" {
		return file.FileNameOnDisk, nil
	}
	return file.FileName, nil
}

// IconURL returns the small thumbnail of the default attachment of a project.
func IconURL(addon AddonData) string {
	var iconURL string
	for _, a := range addon.Attachments {
		if !a.Default {
			continue
		}
		iconURL = strings.Replace(a.ThumbnailURL, "256/256", "62/62", 1)
		// Animated icons are only served under the _animated name
		iconURL = strings.Replace(iconURL, ".gif", "_animated.gif", 1)
	}
	return iconURL
}

// --- Structs for API Responses ---

// AddonData is a CurseForge project.
type AddonData struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Authors []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"authors"`
	Attachments   []Attachment `json:"attachments"`
	WebsiteURL    string       `json:"webSiteURL"`
	GameID        int          `json:"gameId"`
	Summary       string       `json:"summary"`
	DefaultFileID int          `json:"defaultFileId"`
	DownloadCount float64      `json:"downloadCount"`
	LatestFiles   []FileData   `json:"latestFiles"`
	Slug          string       `json:"slug"`
	Available     bool         `json:"available"`
}

// Attachment is an image attached to a project.
type Attachment struct {
	ID           int    `json:"id"`
	ProjectID    int    `json:"projectId"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Default      bool   `json:"default"`
}

// FileData is a file of a CurseForge project.
type FileData struct {
	ID             int                  `json:"id"`
	FileName       string               `json:"fileName"`
	FileNameOnDisk string               `json:"fileNameOnDisk"`
	ReleaseType    string               `json:"releaseType"`
	DownloadURL    string               `json:"downloadURL"`
	Dependencies   []modpack.Dependency `json:"dependencies"`
	GameVersion    []string             `json:"gameVersion"`
	Available      bool                 `json:"available"`
}
