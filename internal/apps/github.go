package apps

import (
	"context"
	"strings"
	"sync"

	"github.com/google/go-github/v68/github"
	"github.com/haasonsaas/concierge/internal/observability"
	"golang.org/x/oauth2"
)

// The GitHub toolkit is broad; the model gets the full set and write
// detection relies on prefixes.
var githubToolSlugs = []string{
	"GITHUB_SEARCH_REPOSITORIES",
	"GITHUB_GET_A_REPOSITORY",
	"GITHUB_LIST_REPOSITORY_ISSUES",
	"GITHUB_GET_AN_ISSUE",
	"GITHUB_CREATE_AN_ISSUE",
	"GITHUB_UPDATE_AN_ISSUE",
	"GITHUB_CREATE_AN_ISSUE_COMMENT",
	"GITHUB_LIST_ISSUE_COMMENTS",
	"GITHUB_LIST_PULL_REQUESTS",
	"GITHUB_GET_A_PULL_REQUEST",
	"GITHUB_CREATE_A_PULL_REQUEST",
	"GITHUB_MERGE_A_PULL_REQUEST",
	"GITHUB_LIST_COMMITS",
	"GITHUB_GET_A_COMMIT",
	"GITHUB_LIST_BRANCHES",
	"GITHUB_STAR_A_REPOSITORY_FOR_THE_AUTHENTICATED_USER",
	"GITHUB_ADD_LABELS_TO_AN_ISSUE",
	"GITHUB_REMOVE_A_LABEL_FROM_AN_ISSUE",
	"GITHUB_REQUEST_REVIEWERS_FOR_A_PULL_REQUEST",
}

var githubWritePrefixes = []string{
	"github_create_",
	"github_update_",
	"github_delete_",
	"github_merge_",
	"github_close_",
	"github_add_",
	"github_remove_",
	"github_star_",
	"github_unstar_",
	"github_fork_",
	"github_unfork_",
	"github_lock_",
	"github_unlock_",
	"github_reopen_",
	"github_request_",
	"github_submit_",
	"github_dispatch_",
	"github_archive_",
	"github_unarchive_",
	"github_publish_",
	"github_rename_",
	"github_invite_",
}

// GitHubCapability implements Capability for GitHub. With a token configured
// it enriches write proposals with repository metadata through the GitHub
// API.
type GitHubCapability struct {
	client *github.Client
	logger *observability.Logger

	mu    sync.Mutex
	cache map[string]*github.Repository
}

// NewGitHubCapability creates the GitHub capability. token may be empty, in
// which case proposals pass through unenriched.
func NewGitHubCapability(ctx context.Context, token string, logger *observability.Logger) *GitHubCapability {
	if logger == nil {
		logger = observability.NewDefaultLogger()
	}
	c := &GitHubCapability{
		logger: logger.WithComponent("github"),
		cache:  make(map[string]*github.Repository),
	}
	if token != "" {
		httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
		c.client = github.NewClient(httpClient)
	}
	return c
}

// ID implements Capability.
func (c *GitHubCapability) ID() string { return AppGitHub }

// ToolSlugs implements Capability.
func (c *GitHubCapability) ToolSlugs() []string { return githubToolSlugs }

// IsWriteAction implements Capability.
func (c *GitHubCapability) IsWriteAction(tool string, args map[string]any) bool {
	return hasWritePrefix(strings.ToLower(tool), githubWritePrefixes)
}

// EnrichProposal implements Capability.
func (c *GitHubCapability) EnrichProposal(ctx context.Context, userID, tool string, args map[string]any) map[string]any {
	if c.client == nil {
		return args
	}
	owner, _ := args["owner"].(string)
	repoName, _ := args["repo"].(string)
	if owner == "" || repoName == "" {
		return args
	}

	enriched := cloneArgs(args)
	if _, present := enriched["repoFullName"]; present {
		return enriched
	}

	repo := c.lookupRepo(ctx, owner, repoName)
	if repo == nil {
		return enriched
	}
	enriched["repoFullName"] = repo.GetFullName()
	if desc := repo.GetDescription(); desc != "" {
		enriched["repoDescription"] = desc
	}
	return enriched
}

func (c *GitHubCapability) lookupRepo(ctx context.Context, owner, name string) *github.Repository {
	key := owner + "/" + name
	c.mu.Lock()
	if repo, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return repo
	}
	c.mu.Unlock()

	repo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		c.logger.Debug(ctx, "repository lookup failed", "repo", key, "error", err)
		return nil
	}

	c.mu.Lock()
	c.cache[key] = repo
	c.mu.Unlock()
	return repo
}

var _ Capability = (*GitHubCapability)(nil)
