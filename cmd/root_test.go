package cmd

import (
	"errors"
	"fmt"
	"testing"

	"medicamentos-etl/core/dataset"
	"medicamentos-etl/core/publish"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	swapErr := &publish.Error{Kind: publish.KindSwap, Target: "search", Step: "update aliases", Err: errors.New("timeout")}
	pkErr := &publish.Error{Kind: publish.KindSwap, Target: "relational", Step: "insert", Err: &pq.Error{Code: "23505"}}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"schema", fmt.Errorf("read: %w", &dataset.SchemaError{Missing: []string{"REGISTRO"}}), ExitDataError},
		{"ambiguous join", &publish.Error{Kind: publish.KindAmbiguousJoin}, ExitDataError},
		{"retryable target", swapErr, ExitRetryable},
		{"unique violation", pkErr, ExitFailure},
		{
			"degraded",
			&publish.PublishError{Report: &publish.Report{Outcome: publish.OutcomeDegraded}, Errs: []error{swapErr}},
			ExitDegraded,
		},
		{
			"failed and retryable",
			&publish.PublishError{Report: &publish.Report{Outcome: publish.OutcomeFailed}, Errs: []error{swapErr, swapErr}},
			ExitRetryable,
		},
		{
			"failed on schema",
			&publish.PublishError{Report: &publish.Report{Outcome: publish.OutcomeFailed}, Errs: []error{&publish.Error{Kind: publish.KindSchema}}},
			ExitDataError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "transform", "publish", "load", "cleanup", "integrity", "serve"} {
		assert.True(t, names[want], want)
	}
}
