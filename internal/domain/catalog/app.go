package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// Fields is the validated, editable content of an app.
type Fields struct {
	Name      string
	URL       string
	Embed     string
	Approval  ApprovalStatus
	Privacy   PrivacyStatus
	Platforms []Platform
	Grades    []GradeLevel
	Subjects  []Subject
}

// Input is unvalidated app content as received from a client or import file.
type Input struct {
	Name      string   `json:"name" toml:"name"`
	URL       string   `json:"url" toml:"url"`
	Embed     string   `json:"embed" toml:"embed"`
	Approval  string   `json:"approval" toml:"approval"`
	Privacy   string   `json:"privacy" toml:"privacy"`
	Platforms []string `json:"platforms" toml:"platforms"`
	Grades    []string `json:"grades" toml:"grades"`
	Subjects  []string `json:"subjects" toml:"subjects"`
}

// PatchInput is a partial update. Empty strings and nil slices are left
// untouched; a non-nil empty slice clears the set.
type PatchInput struct {
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Embed     string   `json:"embed"`
	Approval  string   `json:"approval"`
	Privacy   string   `json:"privacy"`
	Platforms []string `json:"platforms"`
	Grades    []string `json:"grades"`
	Subjects  []string `json:"subjects"`
}

// ParseInput validates a new app. Approval and privacy default to UNK.
func ParseInput(in Input) (Fields, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Fields{}, ErrNameMissing
	}

	fields := Fields{
		Name:     name,
		Approval: ApprovalUnknown,
		Privacy:  PrivacyUnknown,
	}

	var err error
	if fields.URL, err = parseURL(in.URL); err != nil {
		return Fields{}, err
	}
	fields.Embed = strings.TrimSpace(in.Embed)

	if strings.TrimSpace(in.Approval) != "" {
		if fields.Approval, err = ParseApprovalStatus(in.Approval); err != nil {
			return Fields{}, err
		}
	}
	if strings.TrimSpace(in.Privacy) != "" {
		if fields.Privacy, err = ParsePrivacyStatus(in.Privacy); err != nil {
			return Fields{}, err
		}
	}
	if fields.Platforms, err = parseSet(in.Platforms, ParsePlatform); err != nil {
		return Fields{}, err
	}
	if fields.Grades, err = parseSet(in.Grades, ParseGradeLevel); err != nil {
		return Fields{}, err
	}
	if fields.Subjects, err = parseSet(in.Subjects, ParseSubject); err != nil {
		return Fields{}, err
	}

	return fields, nil
}

// ApplyPatch validates patch and returns current with the patch applied.
func ApplyPatch(current Fields, patch PatchInput) (Fields, error) {
	next := current

	var err error
	if name := strings.TrimSpace(patch.Name); name != "" {
		next.Name = name
	}
	if strings.TrimSpace(patch.URL) != "" {
		if next.URL, err = parseURL(patch.URL); err != nil {
			return Fields{}, err
		}
	}
	if embed := strings.TrimSpace(patch.Embed); embed != "" {
		next.Embed = embed
	}
	if strings.TrimSpace(patch.Approval) != "" {
		if next.Approval, err = ParseApprovalStatus(patch.Approval); err != nil {
			return Fields{}, err
		}
	}
	if strings.TrimSpace(patch.Privacy) != "" {
		if next.Privacy, err = ParsePrivacyStatus(patch.Privacy); err != nil {
			return Fields{}, err
		}
	}
	if patch.Platforms != nil {
		if next.Platforms, err = parseSet(patch.Platforms, ParsePlatform); err != nil {
			return Fields{}, err
		}
	}
	if patch.Grades != nil {
		if next.Grades, err = parseSet(patch.Grades, ParseGradeLevel); err != nil {
			return Fields{}, err
		}
	}
	if patch.Subjects != nil {
		if next.Subjects, err = parseSet(patch.Subjects, ParseSubject); err != nil {
			return Fields{}, err
		}
	}

	return next, nil
}

// IsEmpty reports whether applying the patch would change nothing.
func (p PatchInput) IsEmpty() bool {
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.URL) == "" &&
		strings.TrimSpace(p.Embed) == "" &&
		strings.TrimSpace(p.Approval) == "" &&
		strings.TrimSpace(p.Privacy) == "" &&
		p.Platforms == nil && p.Grades == nil && p.Subjects == nil
}

func parseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: url %q must be an absolute http(s) url", ErrInvalidApp, raw)
	}
	return parsed.String(), nil
}
