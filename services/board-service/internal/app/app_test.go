package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/boardhub/libs/runtime"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/board"
	"github.com/md-rashed-zaman/boardhub/services/board-service/internal/storage/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryApplicationRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mem := memory.NewDB()
	a := NewInMemory(mem, Options{Logger: runtime.DiscardLogger(), Registerer: reg})

	_, err := a.Bus.Handle(context.Background(), board.CreateBoard{Author: uuid.New(), Title: "metrics"})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "messagebus_commands_total", "messagebus_event_dispatches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := a.Outbox.GetUnprocessed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	event, err := a.Codec.Decode(rows[0].Topic, rows[0].State)
	require.NoError(t, err)
	assert.Equal(t, board.TopicCreated, event.Topic())
}
