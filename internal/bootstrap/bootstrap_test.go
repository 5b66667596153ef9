package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finvetra/fund-recommender/internal/core/domain"
	"github.com/finvetra/fund-recommender/internal/infrastructure/resilience"
)

type userEmbedFake struct {
	calls int
	errs  []error
}

func (f *userEmbedFake) EmbedUser(context.Context, int64) error {
	f.calls++
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

type schemeEmbedFake struct {
	schemeCalls int
	allCalls    int
	err         error
}

func (f *schemeEmbedFake) EmbedScheme(context.Context, string) error {
	f.schemeCalls++
	return f.err
}

func (f *schemeEmbedFake) EmbedAll(context.Context) error {
	f.allCalls++
	return f.err
}

func embedApp(users *userEmbedFake, schemes *schemeEmbedFake) *App {
	return &App{
		Executor: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    3,
			RetryInitialBackoff: time.Millisecond,
			RetryMaxBackoff:     2 * time.Millisecond,
			RetryMultiplier:     2.0,
			BreakerEnabled:      false,
		}),
		UserEmbedder: users,
		FundEmbedder: schemes,
	}
}

func TestRunEmbedJobRetriesTransientFailure(t *testing.T) {
	users := &userEmbedFake{errs: []error{errors.New("pq: deadlock detected")}}
	app := embedApp(users, &schemeEmbedFake{})

	err := app.RunEmbedJob(context.Background(), domain.EmbedJob{Kind: domain.EmbedJobUser, UserID: 7})
	if err != nil {
		t.Fatalf("RunEmbedJob() error = %v", err)
	}
	if users.calls != 2 {
		t.Fatalf("expected the deadlocked attempt to be retried, got %d calls", users.calls)
	}
}

func TestRunEmbedJobDoesNotRetryTerminalFailure(t *testing.T) {
	users := &userEmbedFake{errs: []error{
		domain.WrapError(domain.ErrDataIntegrity, "embed user", errors.New("response 9 has no option")),
		nil,
	}}
	app := embedApp(users, &schemeEmbedFake{})

	err := app.RunEmbedJob(context.Background(), domain.EmbedJob{Kind: domain.EmbedJobUser, UserID: 7})
	if !domain.IsKind(err, domain.ErrDataIntegrity) {
		t.Fatalf("expected the integrity error back, got %v", err)
	}
	if users.calls != 1 {
		t.Fatalf("terminal errors must not be retried, got %d calls", users.calls)
	}
}

func TestRunEmbedJobDispatchesByKind(t *testing.T) {
	schemes := &schemeEmbedFake{}
	app := embedApp(&userEmbedFake{}, schemes)

	if err := app.RunEmbedJob(context.Background(), domain.EmbedJob{Kind: domain.EmbedJobScheme, SchemeCode: "AXIS1"}); err != nil {
		t.Fatalf("scheme job error = %v", err)
	}
	if err := app.RunEmbedJob(context.Background(), domain.EmbedJob{Kind: domain.EmbedJobAll}); err != nil {
		t.Fatalf("all job error = %v", err)
	}
	if schemes.schemeCalls != 1 || schemes.allCalls != 1 {
		t.Fatalf("expected one scheme and one all dispatch, got %d/%d", schemes.schemeCalls, schemes.allCalls)
	}
}

func TestRunEmbedJobRejectsUnknownKind(t *testing.T) {
	app := embedApp(&userEmbedFake{}, &schemeEmbedFake{})

	err := app.RunEmbedJob(context.Background(), domain.EmbedJob{Kind: "orders"})
	if err == nil {
		t.Fatal("expected an error for an unknown job kind")
	}
}
