package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func waitDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunAllServerFailure(t *testing.T) {
	errInUse := errors.New("address already in use")
	done := make(chan error, 1)
	go func() {
		done <- runAll(context.Background(),
			func(context.Context) error { return errInUse },
			waitDone)
	}()

	select {
	case err := <-done:
		assert.Equal(t, errInUse, err)
	case <-time.After(time.Second):
		t.Fatal("work was not cancelled after the server failed")
	}
}

func TestRunAllWorkFailure(t *testing.T) {
	errInit := errors.New("initialization failed")
	stopped := false
	err := runAll(context.Background(),
		func(ctx context.Context) error {
			<-ctx.Done()
			stopped = true
			return nil
		},
		func(context.Context) error { return errInit })

	assert.Equal(t, errInit, err)
	assert.True(t, stopped)
}

func TestRunAllShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runAll(ctx,
			func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			},
			waitDone)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runAll did not return")
	}
}
