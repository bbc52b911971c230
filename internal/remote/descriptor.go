// Package remote queries the head of the tracked branch on the remote
// repository service.
package remote

import (
	"fmt"
	"net/url"
)

// Descriptor identifies the remote repository and carries the access token.
// It supports two configuration variants: an organization/project/repository
// triple from which the Azure DevOps URLs are constructed, or fully-formed
// URLs supplied directly. The descriptor is immutable for the process
// lifetime and is treated as a capability by the resolver.
type Descriptor struct {
	Organization string
	Project      string
	Repository   string
	Branch       string
	Token        string

	// QueryURL is a fully-formed commit-listing query URL. When set it is
	// used verbatim and the identifier triple is not consulted for the
	// commit query.
	QueryURL string

	// RepoURL is a fully-qualified repository URL used for git operations
	// in place of the constructed Azure DevOps URL.
	RepoURL string
}

// CommitsURL returns the commit-listing endpoint scoped to the branch. The
// first element of the response's value array is the branch head.
func (d Descriptor) CommitsURL() string {
	if d.QueryURL != "" {
		return d.QueryURL
	}

	base := fmt.Sprintf("https://dev.azure.com/%s/%s/_apis/git/repositories/%s/commits",
		url.PathEscape(d.Organization), url.PathEscape(d.Project), url.PathEscape(d.Repository))

	query := url.Values{}
	query.Set("branchName", d.Branch)
	query.Set("searchCriteria.itemVersion.version", d.Branch)
	query.Set("searchCriteria.itemVersion.versionType", "branch")

	return base + "?" + query.Encode()
}

// GitURL returns the authenticated repository URL passed explicitly to every
// fetch and pull invocation. The token is embedded so the protocol never
// depends on credential helpers or a remote persisted in the working copy.
func (d Descriptor) GitURL() (string, error) {
	if d.RepoURL != "" {
		u, err := url.Parse(d.RepoURL)
		if err != nil {
			return "", fmt.Errorf("invalid remote url %q: %w", d.RepoURL, err)
		}
		// Credentials are embedded only for http(s); ssh and local-path
		// remotes authenticate through their own channels.
		if u.Scheme == "http" || u.Scheme == "https" {
			u.User = url.UserPassword(d.Organization, d.Token)
		}
		return u.String(), nil
	}

	u := &url.URL{
		Scheme: "https",
		User:   url.UserPassword(d.Organization, d.Token),
		Host:   "dev.azure.com",
		Path:   fmt.Sprintf("/%s/%s/_git/%s", d.Organization, d.Project, d.Repository),
	}
	return u.String(), nil
}

// Redacted returns the repository location with the token stripped, suitable
// for logs.
func (d Descriptor) Redacted() string {
	if d.RepoURL != "" {
		return d.RepoURL
	}
	return fmt.Sprintf("https://dev.azure.com/%s/%s/_git/%s", d.Organization, d.Project, d.Repository)
}
