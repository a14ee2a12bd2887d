package catalog

import (
	"fmt"
	"strings"
)

type ApprovalStatus string

const (
	ApprovalApproved    ApprovalStatus = "APPROVED"
	ApprovalNotApproved ApprovalStatus = "NOT_APPROVED"
	ApprovalPending     ApprovalStatus = "PENDING"
	ApprovalUnknown     ApprovalStatus = "UNK"
)

type PrivacyStatus string

const (
	PrivacyCompliant    PrivacyStatus = "COMPLIANT"
	PrivacyNotCompliant PrivacyStatus = "NOT_COMPLIANT"
	PrivacyPending      PrivacyStatus = "PENDING"
	PrivacyUnknown      PrivacyStatus = "UNK"
)

type Platform string

const (
	PlatformWeb        Platform = "WEB"
	PlatformIOS        Platform = "IOS"
	PlatformAndroid    Platform = "ANDROID"
	PlatformChromebook Platform = "CHROMEBOOK"
	PlatformWindows    Platform = "WINDOWS"
	PlatformMac        Platform = "MAC"
)

type GradeLevel string

const (
	GradePreK GradeLevel = "PK"
	GradeK    GradeLevel = "K"
	Grade1    GradeLevel = "1"
	Grade2    GradeLevel = "2"
	Grade3    GradeLevel = "3"
	Grade4    GradeLevel = "4"
	Grade5    GradeLevel = "5"
	Grade6    GradeLevel = "6"
	Grade7    GradeLevel = "7"
	Grade8    GradeLevel = "8"
	Grade9    GradeLevel = "9"
	Grade10   GradeLevel = "10"
	Grade11   GradeLevel = "11"
	Grade12   GradeLevel = "12"
)

type Subject string

const (
	SubjectMath          Subject = "MATH"
	SubjectELA           Subject = "ELA"
	SubjectScience       Subject = "SCIENCE"
	SubjectSocialStudies Subject = "SOCIAL_STUDIES"
	SubjectWorldLanguage Subject = "WORLD_LANGUAGE"
	SubjectArts          Subject = "ARTS"
	SubjectPE            Subject = "PE"
	SubjectCS            Subject = "CS"
	SubjectOther         Subject = "OTHER"
)

var (
	approvalStatuses = []ApprovalStatus{ApprovalApproved, ApprovalNotApproved, ApprovalPending, ApprovalUnknown}
	privacyStatuses  = []PrivacyStatus{PrivacyCompliant, PrivacyNotCompliant, PrivacyPending, PrivacyUnknown}
	platforms        = []Platform{PlatformWeb, PlatformIOS, PlatformAndroid, PlatformChromebook, PlatformWindows, PlatformMac}
	gradeLevels      = []GradeLevel{GradePreK, GradeK, Grade1, Grade2, Grade3, Grade4, Grade5, Grade6, Grade7, Grade8, Grade9, Grade10, Grade11, Grade12}
	subjects         = []Subject{SubjectMath, SubjectELA, SubjectScience, SubjectSocialStudies, SubjectWorldLanguage, SubjectArts, SubjectPE, SubjectCS, SubjectOther}
)

func ParseApprovalStatus(raw string) (ApprovalStatus, error) {
	return parseEnum(raw, approvalStatuses, "approval status")
}

func ParsePrivacyStatus(raw string) (PrivacyStatus, error) {
	return parseEnum(raw, privacyStatuses, "privacy status")
}

func ParsePlatform(raw string) (Platform, error) {
	return parseEnum(raw, platforms, "platform")
}

func ParseGradeLevel(raw string) (GradeLevel, error) {
	return parseEnum(raw, gradeLevels, "grade level")
}

func ParseSubject(raw string) (Subject, error) {
	return parseEnum(raw, subjects, "subject")
}

// NeedsReview reports whether an app with this status still awaits a decision.
func (s ApprovalStatus) NeedsReview() bool {
	return s == ApprovalPending || s == ApprovalUnknown
}

func parseEnum[E ~string](raw string, allowed []E, kind string) (E, error) {
	candidate := strings.ToUpper(strings.TrimSpace(raw))
	for _, value := range allowed {
		if string(value) == candidate {
			return value, nil
		}
	}
	var zero E
	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidApp, kind, raw)
}

// parseSet parses every entry and drops duplicates, keeping first-seen order.
func parseSet[E ~string](raw []string, parse func(string) (E, error)) ([]E, error) {
	out := make([]E, 0, len(raw))
	seen := make(map[E]struct{}, len(raw))
	for _, item := range raw {
		value, err := parse(item)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out, nil
}
