package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCloseRunsInReverseOrder(t *testing.T) {
	var order []string
	d := &Dependencies{closers: []func() error{
		func() error { order = append(order, "db"); return nil },
		func() error { order = append(order, "redis"); return errors.New("redis closed") },
		func() error { order = append(order, "tasks"); return nil },
	}}

	err := d.Close()
	require.EqualError(t, err, "redis closed")
	require.Equal(t, []string{"tasks", "redis", "db"}, order)
	require.NoError(t, d.Close())
}

func TestProbesReportMissingConnections(t *testing.T) {
	d := &Dependencies{}
	probes := d.Probes(time.Second, time.Second)
	require.Len(t, probes, 2)
	require.Equal(t, "db", probes[0].Name)
	require.EqualError(t, probes[0].Check(context.Background()), "db not configured")
	require.EqualError(t, probes[1].Check(context.Background()), "redis not configured")
}
