package remote

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// versionCapWarning is the OnceWarner key of the API version downgrade.
const versionCapWarning = "api-version-cap"

type apiVersionInfo struct {
	Label   string `json:"label"`
	URL     string `json:"url"`
	Version string `json:"version"`
}

// RetrieveMaxAPIVersion returns the highest API version listed by the org's
// /services/data endpoint.
func (c *Client) RetrieveMaxAPIVersion(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	endpoint := c.instanceURL + "/services/data"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", c.newID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", httpError(resp, data)
	}

	var versions []apiVersionInfo
	if err := json.Unmarshal(data, &versions); err != nil {
		return "", fmt.Errorf("failed to decode API versions: %w", err)
	}

	highest := ""
	for _, v := range versions {
		if highest == "" || CompareVersions(v.Version, highest) > 0 {
			highest = v.Version
		}
	}
	if highest == "" {
		return "", fmt.Errorf("org at %s lists no API versions", c.instanceURL)
	}
	return highest, nil
}

// CompareVersions compares two "major.minor" API versions, returning -1, 0
// or 1. Unparseable parts compare as zero.
func CompareVersions(a, b string) int {
	am, an := splitVersion(a)
	bm, bn := splitVersion(b)
	if am != bm {
		return cmp.Compare(am, bm)
	}
	return cmp.Compare(an, bn)
}

func splitVersion(v string) (major, minor int) {
	head, tail, _ := strings.Cut(strings.TrimSpace(v), ".")
	major, _ = strconv.Atoi(head)
	minor, _ = strconv.Atoi(tail)
	return major, minor
}

// CapAPIVersion lowers svc's API version to the org's maximum when the
// requested version is higher. The downgrade warning is emitted once per
// warner. It returns the version in effect.
func CapAPIVersion(ctx context.Context, svc sfmeta.RemoteMetadataService, warner sfmeta.Warner) (string, error) {
	requested := svc.APIVersion()
	highest, err := svc.RetrieveMaxAPIVersion(ctx)
	if err != nil {
		return requested, err
	}
	if CompareVersions(requested, highest) <= 0 {
		return requested, nil
	}
	if warner != nil {
		warner.WarnOnce(versionCapWarning,
			"The requested API version (%s) is higher than the org supports. Using %s instead.", requested, highest)
	}
	svc.SetAPIVersion(highest)
	return highest, nil
}
