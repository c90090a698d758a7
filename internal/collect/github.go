package collect

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"github.com/mkessler/leadpulse/internal/scoring"
	"github.com/mkessler/leadpulse/internal/types"
)

// Keywords that indicate security/auth work in commit messages, issues and
// repository metadata.
var githubSecurityKeywords = []string{
	"authentication", "authorization", "auth", "login", "signin", "signup",
	"password", "oauth", "jwt", "token", "session", "security", "encryption",
	"2fa", "mfa", "two-factor", "multi-factor", "sso", "single-sign-on",
	"identity", "user management", "permissions", "roles", "rbac",
	"vulnerability", "breach", "hack", "security fix", "security patch",
	"cve", "xss", "csrf", "sql injection", "authentication bypass",
}

// File path fragments that indicate auth/security code.
var githubSecurityFiles = []string{
	"auth", "login", "security", "middleware", "guard", "permission",
	"user", "session", "token", "jwt", "oauth", "sso",
}

const (
	githubMaxRepos          = 5
	githubCommitWindowDays  = 30
	githubSearchResultScore = 0.6
)

// GitHub collects code-activity signals from repositories, issues and commits
// associated with a lead. A collector built without a token is disabled and
// yields no signals.
type GitHub struct {
	client  *github.Client
	timeout time.Duration
}

// NewGitHub builds a GitHub collector. An empty token produces a disabled
// collector rather than an error.
func NewGitHub(token string, timeout time.Duration) *GitHub {
	g := &GitHub{timeout: timeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		g.client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}
	return g
}

func (g *GitHub) Name() string { return "github" }

// Collect gathers code-activity signals for the lead. Every sub-query failure
// is isolated: it is logged and contributes zero signals.
func (g *GitHub) Collect(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	if g.client == nil {
		log.Printf("collect: github token not configured, skipping %s", lead.Domain)
		return nil
	}

	var signals []types.CandidateSignal

	repos := g.findCompanyRepos(ctx, lead)
	for _, repo := range repos {
		signals = append(signals, g.analyzeRepoMetadata(repo)...)
		signals = append(signals, g.analyzeIssues(ctx, repo)...)
		signals = append(signals, g.analyzeCommits(ctx, repo)...)
	}

	signals = append(signals, g.searchSecurityContent(ctx, lead)...)
	return signals
}

// findCompanyRepos searches for repositories associated with the company,
// deduplicated across queries and capped.
func (g *GitHub) findCompanyRepos(ctx context.Context, lead types.LeadSnapshot) []*github.Repository {
	org := strings.ReplaceAll(strings.ToLower(lead.CompanyName), " ", "")
	queries := []string{
		fmt.Sprintf("org:%s", org),
		fmt.Sprintf("user:%s", org),
		fmt.Sprintf("%q", lead.CompanyName),
		fmt.Sprintf("%q", lead.Domain),
	}

	seen := make(map[string]bool)
	var repos []*github.Repository

	for _, query := range queries {
		subCtx, cancel := context.WithTimeout(ctx, g.timeout)
		result, _, err := g.client.Search.Repositories(subCtx, query, &github.SearchOptions{
			Sort:        "updated",
			Order:       "desc",
			ListOptions: github.ListOptions{PerPage: 10},
		})
		cancel()
		if err != nil {
			log.Printf("collect: github repo search failed for %q: %v", query, err)
			continue
		}
		for _, repo := range result.Repositories {
			name := repo.GetFullName()
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			repos = append(repos, repo)
			if len(repos) >= githubMaxRepos {
				return repos
			}
		}
	}
	return repos
}

// analyzeRepoMetadata inspects the description and topics for security focus.
func (g *GitHub) analyzeRepoMetadata(repo *github.Repository) []types.CandidateSignal {
	blob := repo.GetDescription() + " " + strings.Join(repo.Topics, " ")
	found := matchKeywords(blob, githubSecurityKeywords)
	if len(found) == 0 {
		return nil
	}

	return []types.CandidateSignal{{
		Category:   types.CategoryCodeActivity,
		Source:     "github.com/" + repo.GetFullName(),
		Content:    CleanContent("Security-focused repository: " + repo.GetDescription()),
		Confidence: scoring.KeywordDensity(0.3, 0.1, 0.4, len(found)),
		Keywords:   found,
		Metadata: map[string]any{
			"repo_name": repo.GetFullName(),
			"topics":    repo.Topics,
			"stars":     repo.GetStargazersCount(),
			"forks":     repo.GetForksCount(),
		},
		ObservedAt: repo.GetCreatedAt().Time,
	}}
}

// analyzeIssues scans recently updated open issues (and PRs, which GitHub
// lists alongside issues) for security keywords.
func (g *GitHub) analyzeIssues(ctx context.Context, repo *github.Repository) []types.CandidateSignal {
	subCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	issues, _, err := g.client.Issues.ListByRepo(subCtx, repo.GetOwner().GetLogin(), repo.GetName(),
		&github.IssueListByRepoOptions{
			State:       "open",
			Sort:        "updated",
			ListOptions: github.ListOptions{PerPage: 20},
		})
	if err != nil {
		log.Printf("collect: github issues failed for %s: %v", repo.GetFullName(), err)
		return nil
	}

	var signals []types.CandidateSignal
	for _, issue := range issues {
		found := matchKeywords(issue.GetTitle()+" "+issue.GetBody(), githubSecurityKeywords)
		if len(found) == 0 {
			continue
		}

		kind := "issue"
		if issue.IsPullRequest() {
			kind = "pr"
		}
		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryCodeActivity,
			Source:     "github.com/" + repo.GetFullName(),
			Content:    CleanContent(fmt.Sprintf("Security-related %s: %s", kind, issue.GetTitle())),
			Confidence: scoring.KeywordDensity(0.3, 0.1, 0.4, len(found)),
			Keywords:   found,
			Metadata: map[string]any{
				"repo_name":    repo.GetFullName(),
				"issue_number": issue.GetNumber(),
				"issue_url":    issue.GetHTMLURL(),
				"kind":         kind,
			},
			ObservedAt: issue.GetCreatedAt().Time,
		})
	}
	return signals
}

// analyzeCommits scans commits from the recent window for security keywords
// and security-sensitive file changes.
func (g *GitHub) analyzeCommits(ctx context.Context, repo *github.Repository) []types.CandidateSignal {
	subCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	commits, _, err := g.client.Repositories.ListCommits(subCtx, repo.GetOwner().GetLogin(), repo.GetName(),
		&github.CommitsListOptions{
			Since:       time.Now().AddDate(0, 0, -githubCommitWindowDays),
			ListOptions: github.ListOptions{PerPage: 30},
		})
	if err != nil {
		log.Printf("collect: github commits failed for %s: %v", repo.GetFullName(), err)
		return nil
	}

	var signals []types.CandidateSignal
	for _, commit := range commits {
		message := commit.GetCommit().GetMessage()
		found := matchKeywords(message, githubSecurityKeywords)

		var filesChanged []string
		for _, f := range commit.Files {
			if containsAny(f.GetFilename(), githubSecurityFiles) {
				filesChanged = append(filesChanged, f.GetFilename())
			}
		}
		if len(found) == 0 && len(filesChanged) == 0 {
			continue
		}

		confidence := commitConfidence(len(found), len(filesChanged))
		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryCodeActivity,
			Source:     "github.com/" + repo.GetFullName(),
			Content:    CleanContent("Security-related commit: " + message),
			Confidence: confidence,
			Keywords:   found,
			Metadata: map[string]any{
				"repo_name":     repo.GetFullName(),
				"commit_sha":    commit.GetSHA(),
				"commit_url":    commit.GetHTMLURL(),
				"files_changed": filesChanged,
			},
			ObservedAt: commit.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return signals
}

// commitConfidence combines the keyword-density score with a bonus for
// security-sensitive file changes, capped independently.
func commitConfidence(keywords, filesChanged int) float64 {
	score := scoring.KeywordDensity(0.3, 0.1, 0.4, keywords)
	fileBonus := float64(filesChanged) * 0.15
	if fileBonus > 0.3 {
		fileBonus = 0.3
	}
	return scoring.Clamp01(score + fileBonus)
}

// searchSecurityContent searches issues across GitHub that mention the company
// together with auth/security terms. Search hits carry a flat moderate
// confidence since there is no per-hit keyword context.
func (g *GitHub) searchSecurityContent(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	queries := []string{
		fmt.Sprintf("%q authentication", lead.CompanyName),
		fmt.Sprintf("%q security", lead.CompanyName),
		fmt.Sprintf("%q auth", lead.CompanyName),
		fmt.Sprintf("%q authentication", lead.Domain),
		fmt.Sprintf("%q security", lead.Domain),
	}

	var signals []types.CandidateSignal
	for _, query := range queries {
		subCtx, cancel := context.WithTimeout(ctx, g.timeout)
		result, _, err := g.client.Search.Issues(subCtx, query, &github.SearchOptions{
			Sort:        "updated",
			Order:       "desc",
			ListOptions: github.ListOptions{PerPage: 5},
		})
		cancel()
		if err != nil {
			log.Printf("collect: github issue search failed for %q: %v", query, err)
			continue
		}
		for _, issue := range result.Issues {
			signals = append(signals, types.CandidateSignal{
				Category:   types.CategoryCodeActivity,
				Source:     "github.com/search",
				Content:    CleanContent("Security discussion: " + issue.GetTitle()),
				Confidence: githubSearchResultScore,
				Metadata: map[string]any{
					"issue_url":    issue.GetHTMLURL(),
					"search_query": query,
				},
				ObservedAt: issue.GetCreatedAt().Time,
			})
		}
	}
	return signals
}
