package chargeback

import (
	"regexp"
	"strings"
)

var numericSuffix = []*regexp.Regexp{
	regexp.MustCompile(`_\d+`),
	regexp.MustCompile(`-\d+`),
}

// Language determines the language an app uses from the name of its
// buildpack. Version counters ("_2", "-11") are stripped wherever they
// appear, the common cloudfoundry/heroku URL forms are reduced to their
// language segment, and unrecognized names pass through unchanged.
func Language(buildpack string) string {
	language := buildpack
	for _, re := range numericSuffix {
		language = re.ReplaceAllString(language, "")
	}

	if rest, ok := strings.CutPrefix(language, "https://github.com/cloudfoundry/"); ok {
		if idx := strings.Index(rest, "-buildpack"); idx >= 0 {
			return rest[:idx]
		}
		return rest
	}

	if rest, ok := strings.CutPrefix(language, "https://github.com/heroku/heroku-buildpack-"); ok {
		if idx := strings.Index(rest, ".git"); idx >= 0 {
			return rest[:idx]
		}
		return rest
	}

	// In-house git-hosted buildpacks carry no language hint.
	if strings.HasPrefix(language, "https://gitlab.gs.mil/") {
		return "Unknown"
	}

	for _, suffix := range []string{"_buildpack", "-buildpack", "_buildpack_offline"} {
		if rest, ok := strings.CutSuffix(language, suffix); ok {
			return rest
		}
	}

	return language
}
