package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingModule struct {
	name    string
	failing bool
	log     *[]string
}

func (r recordingModule) Name() string { return r.name }

func (r recordingModule) Start(context.Context) error {
	if r.failing {
		return errors.New("boom")
	}
	*r.log = append(*r.log, "start "+r.name)
	return nil
}

func (r recordingModule) Stop(context.Context) {
	*r.log = append(*r.log, "stop "+r.name)
}

func TestManagerStartStopOrder(t *testing.T) {
	var log []string
	m := NewManager(recordingModule{name: "a", log: &log})
	require.NoError(t, m.Add(recordingModule{name: "b", log: &log}))
	assert.Equal(t, []string{"a", "b"}, m.Names())

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Add(recordingModule{name: "c", log: &log}))
	assert.Error(t, m.Start(context.Background()))

	m.Stop(context.Background())
	m.Stop(context.Background())
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, log)
}

func TestManagerRollsBackOnFailure(t *testing.T) {
	var log []string
	m := NewManager(
		recordingModule{name: "a", log: &log},
		recordingModule{name: "b", failing: true, log: &log},
		recordingModule{name: "c", log: &log},
	)
	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module b failed")
	assert.Equal(t, []string{"start a", "stop a"}, log)
}
