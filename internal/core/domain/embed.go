package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type EmbedJobKind string

const (
	EmbedJobUser   EmbedJobKind = "user"
	EmbedJobScheme EmbedJobKind = "scheme"
	EmbedJobAll    EmbedJobKind = "all"
)

// EmbedJob is one unit of embedding work carried on the queue. The wire
// form is "user:<id>", "scheme:<code>" or "all".
type EmbedJob struct {
	Kind       EmbedJobKind
	UserID     int64
	SchemeCode string
}

func (j EmbedJob) Encode() string {
	switch j.Kind {
	case EmbedJobUser:
		return fmt.Sprintf("user:%d", j.UserID)
	case EmbedJobScheme:
		return "scheme:" + j.SchemeCode
	default:
		return string(EmbedJobAll)
	}
}

func ParseEmbedJob(payload string) (EmbedJob, error) {
	if payload == string(EmbedJobAll) {
		return EmbedJob{Kind: EmbedJobAll}, nil
	}
	kind, arg, ok := strings.Cut(payload, ":")
	if !ok || arg == "" {
		return EmbedJob{}, WrapError(ErrValidation, "parse embed job", fmt.Errorf("malformed payload %q", payload))
	}
	switch EmbedJobKind(kind) {
	case EmbedJobUser:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return EmbedJob{}, WrapError(ErrValidation, "parse embed job", fmt.Errorf("user id %q: %w", arg, err))
		}
		return EmbedJob{Kind: EmbedJobUser, UserID: id}, nil
	case EmbedJobScheme:
		return EmbedJob{Kind: EmbedJobScheme, SchemeCode: arg}, nil
	}
	return EmbedJob{}, WrapError(ErrValidation, "parse embed job", fmt.Errorf("unknown kind %q", kind))
}
