package fileset

import (
	"errors"
	"fmt"
	"regexp"
)

// filter decides which relative paths a FileSet keeps.
//
// With no includes every path is a candidate; otherwise a path must match at
// least one include. A candidate matching any exclude is dropped. Patterns
// match the whole slash-separated relative path.
type filter struct {
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
}

func (f *filter) match(rel string) bool {
	keep := len(f.includes) == 0
	for _, re := range f.includes {
		if re.MatchString(rel) {
			keep = true
			break
		}
	}
	if !keep {
		return false
	}
	for _, re := range f.excludes {
		if re.MatchString(rel) {
			return false
		}
	}
	return true
}

// CompilePatterns compiles pattern sources into whole-path matchers.
// Every invalid source is reported, joined into one error.
func CompilePatterns(srcs ...string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(srcs))
	var errs []error
	for _, src := range srcs {
		re, err := regexp.Compile(anchorSource(src))
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %q: %w", src, err))
			continue
		}
		res = append(res, re)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return res, nil
}

func anchorSource(src string) string {
	return `^(?:` + src + `)$`
}

// anchor returns re restricted to whole-string matches.
func anchor(re *regexp.Regexp) *regexp.Regexp {
	src := re.String()
	if len(src) > 5 && src[:4] == `^(?:` && src[len(src)-2:] == `)$` {
		return re
	}
	anchored, err := regexp.Compile(anchorSource(src))
	if err != nil {
		return re
	}
	return anchored
}

func anchorAll(res []*regexp.Regexp) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(res))
	for _, re := range res {
		if re != nil {
			out = append(out, anchor(re))
		}
	}
	return out
}
