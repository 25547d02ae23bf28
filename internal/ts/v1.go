package ts

import (
	"context"
	"fmt"
)

// PackageListing is a package as returned by the v1 listing endpoint,
// with every published version nested inside.
type PackageListing struct {
	Name           string           `json:"name"`
	FullName       string           `json:"full_name"`
	Owner          string           `json:"owner"`
	PackageURL     string           `json:"package_url"`
	DateCreated    string           `json:"date_created"`
	DateUpdated    string           `json:"date_updated"`
	UUID4          string           `json:"uuid4"`
	RatingScore    uint32           `json:"rating_score"`
	IsPinned       bool             `json:"is_pinned"`
	IsDeprecated   bool             `json:"is_deprecated"`
	HasNSFWContent bool             `json:"has_nsfw_content"`
	Categories     []string         `json:"categories"`
	Versions       []PackageVersion `json:"versions"`
}

// PackageVersion is a single published version of a package.
type PackageVersion struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Icon          string   `json:"icon"`
	VersionNumber string   `json:"version_number"`
	Dependencies  []string `json:"dependencies"`
	DownloadURL   string   `json:"download_url"`
	Downloads     uint32   `json:"downloads"`
	WebsiteURL    string   `json:"website_url"`
	IsActive      bool     `json:"is_active"`
	DateCreated   string   `json:"date_created"`
	UUID4         string   `json:"uuid4"`
	FileSize      uint64   `json:"file_size"`
}

// PackageList returns every package on the repository.
func (c *Client) PackageList(ctx context.Context) ([]PackageListing, error) {
	var listings []PackageListing
	if err := c.getJSON(ctx, c.baseURL+"/api/v1/package/", &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// CommunityPackageList returns every package listed in a single community.
func (c *Client) CommunityPackageList(ctx context.Context, community string) ([]PackageListing, error) {
	var listings []PackageListing
	url := fmt.Sprintf("%s/c/%s/api/v1/package/", c.baseURL, community)
	if err := c.getJSON(ctx, url, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// DownloadURL returns the archive download URL for a versioned reference.
func (c *Client) DownloadURL(ref Reference) string {
	return fmt.Sprintf("%s/package/download/%s/%s/%s/", c.baseURL, ref.Namespace, ref.Name, ref.Version)
}
