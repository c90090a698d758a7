package collect

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/mkessler/leadpulse/internal/types"
)

// BuiltWith technology categories that indicate an authentication product is
// already in place.
var builtWithAuthCategories = []string{
	"authentication", "identity", "login", "sso",
}

type builtWithResponse struct {
	Results []struct {
		Result struct {
			Paths []struct {
				Technologies []builtWithTech `json:"Technologies"`
			} `json:"Paths"`
		} `json:"Result"`
	} `json:"Results"`
}

type builtWithTech struct {
	Name       string   `json:"Name"`
	Tag        string   `json:"Tag"`
	Categories []string `json:"Categories"`
}

// collectBuiltWith queries the BuiltWith technographic API for technologies
// the site analysis cannot see, favoring security and identity products.
func (t *TechStack) collectBuiltWith(ctx context.Context, lead types.LeadSnapshot) []types.CandidateSignal {
	subCtx, cancel := context.WithTimeout(ctx, t.client.Timeout)
	defer cancel()

	var resp builtWithResponse
	err := getJSON(subCtx, t.client, t.builtWithURL+"/api.json", url.Values{
		"KEY":    {t.builtWithKey},
		"LOOKUP": {lead.Domain},
	}, nil, &resp)
	if err != nil {
		log.Printf("collect: builtwith lookup failed for %s: %v", lead.Domain, err)
		return nil
	}

	var security, auth []string
	seen := make(map[string]bool)
	for _, result := range resp.Results {
		for _, path := range result.Result.Paths {
			for _, tech := range path.Technologies {
				if seen[tech.Name] {
					continue
				}
				seen[tech.Name] = true
				if builtWithIsAuth(tech) {
					auth = append(auth, tech.Name)
				} else if builtWithIsSecurity(tech) {
					security = append(security, tech.Name)
				}
			}
		}
	}

	var signals []types.CandidateSignal
	if len(security) > 0 {
		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryTechStack,
			Source:     "builtwith",
			Content:    CleanContent(fmt.Sprintf("Security technologies reported for %s: %s", lead.CompanyName, strings.Join(security, ", "))),
			Confidence: 0.8,
			Keywords:   security,
			Metadata:   map[string]any{"security_technologies": security},
		})
	}
	if len(auth) > 0 {
		signals = append(signals, types.CandidateSignal{
			Category:   types.CategoryTechStack,
			Source:     "builtwith",
			Content:    CleanContent(fmt.Sprintf("Authentication technologies reported for %s: %s", lead.CompanyName, strings.Join(auth, ", "))),
			Confidence: 0.9,
			Keywords:   auth,
			Metadata:   map[string]any{"auth_technologies": auth},
		})
	}
	return signals
}

func builtWithIsAuth(tech builtWithTech) bool {
	for _, category := range tech.Categories {
		if containsAny(category, builtWithAuthCategories) {
			return true
		}
	}
	return false
}

func builtWithIsSecurity(tech builtWithTech) bool {
	return strings.EqualFold(tech.Tag, "security") ||
		containsAny(tech.Name, []string{"security", "firewall", "waf", "ssl", "captcha"})
}
