package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Model = (*MockModel)(nil)

func TestMockModel_CannedResponses(t *testing.T) {
	m := NewMockModel("test", "mock")
	m.AddResponse("hello", "hi there")

	resp, err := m.Generate(context.Background(), Request{Messages: []Message{{Role: "user", Text: "hello"}}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)

	// Substring matching covers prompts that embed the key.
	resp, err = m.Generate(context.Background(), Request{Messages: []Message{{Role: "user", Text: "well, hello to you"}}})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text)

	// Unmatched prompts echo deterministically.
	resp, err = m.Generate(context.Background(), Request{Messages: []Message{{Role: "user", Text: "unmatched"}}})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "unmatched")

	assert.Len(t, m.Calls(), 3)
}

func TestMockModel_Failure(t *testing.T) {
	m := NewMockModel("test", "mock")

	_, err := m.Generate(context.Background(), Request{})
	assert.Error(t, err, "empty request is rejected")

	m.FailWith(fmt.Errorf("quota exceeded"))
	_, err = m.Generate(context.Background(), Request{Messages: []Message{{Role: "user", Text: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestMockModel_ContextCancellation(t *testing.T) {
	m := NewMockModel("test", "mock")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Messages: []Message{{Role: "user", Text: "hi"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockModel_Info(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	info := m.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
}
