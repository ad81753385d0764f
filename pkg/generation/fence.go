package generation

import (
	"errors"
	"regexp"
	"strings"
)

const fence = "```"

// ErrUnbalancedFence is returned when a completion opens a code fence without
// closing it, or closes one it never opened
var ErrUnbalancedFence = errors.New("unbalanced code fence")

var (
	infoStringPattern = regexp.MustCompile(`^[A-Za-z0-9_+.-]*$`)
	inlineLangPattern = regexp.MustCompile(`^(?i:json)\s+`)
)

// StripCodeFence removes a markdown code fence wrapping the whole text.
// Handles formats like ```json\n...\n```, ```\n...\n``` and ```...```.
// Text without a leading or trailing fence is returned trimmed.
func StripCodeFence(text string) (string, error) {
	s := strings.TrimSpace(text)

	opens := strings.HasPrefix(s, fence)
	closes := len(s) >= 2*len(fence) && strings.HasSuffix(s, fence)

	switch {
	case !opens && !closes:
		return s, nil
	case opens != closes:
		return "", ErrUnbalancedFence
	}

	body := s[len(fence) : len(s)-len(fence)]

	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return strings.TrimSpace(inlineLangPattern.ReplaceAllString(body, "")), nil
	}

	// The rest of the opening line is a language tag unless it looks like content
	if info := strings.TrimSpace(body[:nl]); infoStringPattern.MatchString(info) {
		body = body[nl+1:]
	}

	return strings.TrimSpace(body), nil
}
