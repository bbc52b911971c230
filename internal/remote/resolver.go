package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	repotrackerrors "repotrack.dev/repotrack/internal/errors"
)

// DefaultQueryTimeout bounds a single commit query so a stalled remote can
// never hang the reconciliation loop.
const DefaultQueryTimeout = 30 * time.Second

// Resolver returns the commit identifier at the head of the tracked branch.
type Resolver interface {
	Head(ctx context.Context) (string, error)
}

// commitsResponse is the commit-listing payload returned by the remote.
type commitsResponse struct {
	Value []commit `json:"value"`
}

type commit struct {
	CommitID string `json:"commitId"`
}

// HTTPResolver queries the Azure DevOps commits endpoint over HTTP. It
// performs no retries; retry policy belongs to the scheduler.
type HTTPResolver struct {
	descriptor Descriptor
	client     *http.Client
}

// NewHTTPResolver creates a resolver for the given descriptor. If client is
// nil a default client with DefaultQueryTimeout is used.
func NewHTTPResolver(descriptor Descriptor, client *http.Client) *HTTPResolver {
	if client == nil {
		client = &http.Client{Timeout: DefaultQueryTimeout}
	}
	return &HTTPResolver{
		descriptor: descriptor,
		client:     client,
	}
}

// Head returns the commit identifier currently at the head of the tracked
// branch, querying the commit-listing endpoint with basic auth (empty
// username, access token as password).
func (r *HTTPResolver) Head(ctx context.Context) (string, error) {
	queryURL := r.descriptor.CommitsURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return "", repotrackerrors.NewRemoteQueryError(queryURL, 0, err)
	}
	req.SetBasicAuth("", r.descriptor.Token)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", repotrackerrors.NewRemoteQueryError(queryURL, 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", repotrackerrors.NewRemoteQueryError(queryURL, resp.StatusCode, repotrackerrors.ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return "", repotrackerrors.NewRemoteQueryError(queryURL, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", repotrackerrors.NewRemoteQueryError(queryURL, resp.StatusCode, err)
	}

	var commits commitsResponse
	if err := json.Unmarshal(body, &commits); err != nil {
		return "", repotrackerrors.NewRemoteQueryError(queryURL, resp.StatusCode,
			fmt.Errorf("%w: %v", repotrackerrors.ErrMalformedResponse, err))
	}

	// An empty result list is a distinct failure, not "no change".
	if len(commits.Value) == 0 {
		return "", repotrackerrors.NewRemoteQueryError(queryURL, resp.StatusCode, repotrackerrors.ErrEmptyHistory)
	}
	if commits.Value[0].CommitID == "" {
		return "", repotrackerrors.NewRemoteQueryError(queryURL, resp.StatusCode,
			fmt.Errorf("%w: first commit has no commitId", repotrackerrors.ErrMalformedResponse))
	}

	return commits.Value[0].CommitID, nil
}
