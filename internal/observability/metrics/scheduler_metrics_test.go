package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySchedulerJobReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SchedulerJobReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SchedulerJobReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SchedulerJobReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SchedulerJobReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SchedulerJobReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySchedulerJobReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAddBatchProcessed(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewSchedulerMetrics(registry, Config{
		ServiceName: "luggagehub",
		Environment: "test",
	})

	metrics.AddBatchProcessed("purge_link_tokens", "telegram_link_tokens", 3)

	got := testutil.ToFloat64(metrics.batchProcessed.WithLabelValues("purge_link_tokens", "telegram_link_tokens"))
	if got != 3 {
		t.Fatalf("expected processed count 3, got %v", got)
	}
}

func TestRegisterOrReuseReturnsExistingCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewHTTPMetricsWithRegistry(registry, Config{ServiceName: "luggagehub", Environment: "test"})
	second := NewHTTPMetricsWithRegistry(registry, Config{ServiceName: "luggagehub", Environment: "test"})

	if first.requests != second.requests {
		t.Fatalf("expected the second registration to reuse the existing collector")
	}
}
