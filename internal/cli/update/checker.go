package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	ReleasesURL = "https://api.github.com/repos/creatorhub-dev/creatorhub/releases/latest"
	UserAgent   = "creatorhub-cli"
)

// Release represents a GitHub release
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Checker looks up the latest published release
type Checker struct {
	url    string
	client *http.Client
}

// NewChecker returns a Checker reading the release at url
func NewChecker(url string) *Checker {
	return &Checker{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Latest fetches the latest release
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag")
	}

	return &release, nil
}

// Check reports whether a release newer than currentVersion is available
func (c *Checker) Check(ctx context.Context, currentVersion string) (bool, *Release, error) {
	release, err := c.Latest(ctx)
	if err != nil {
		return false, nil, err
	}
	return IsNewer(currentVersion, release.TagName), release, nil
}

// IsNewer returns true if latest is a higher version than current. Development
// builds are always behind.
func IsNewer(current, latest string) bool {
	current = strings.TrimPrefix(current, "v")
	latest = strings.TrimPrefix(latest, "v")

	if current == "dev" || current == "" {
		return true
	}

	cur, ok := parseVersion(current)
	if !ok {
		return current != latest
	}
	lat, ok := parseVersion(latest)
	if !ok {
		return false
	}

	for i := range cur {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

// parseVersion reads major.minor.patch, ignoring any pre-release suffix
func parseVersion(v string) ([3]int, bool) {
	var parts [3]int

	v, _, _ = strings.Cut(v, "-")
	fields := strings.Split(v, ".")
	if len(fields) == 0 || len(fields) > 3 {
		return parts, false
	}

	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return parts, false
		}
		parts[i] = n
	}
	return parts, true
}
