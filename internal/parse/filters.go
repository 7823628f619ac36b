package parse

import (
	"regexp"

	"github.com/vdex/vdex/internal/apperr"
)

type compiledFilter struct {
	re *regexp.Regexp
}

func compileFilters(patterns []string) ([]*compiledFilter, error) {
	out := make([]*compiledFilter, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, apperr.Wrap(apperr.Regex, err, "invalid filter pattern %q", p)
		}
		out = append(out, &compiledFilter{re: re})
	}
	return out, nil
}
