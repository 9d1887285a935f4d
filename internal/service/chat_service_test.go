package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

func TestChatServiceSubmitTurnValidation(t *testing.T) {
	// Validation happens before any repo or pipeline access.
	s := NewChatService(nil, nil, nil)

	_, err := s.SubmitTurn(context.Background(), "", "hello", true)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = s.SubmitTurn(context.Background(), "t1", "   ", true)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	oversized := strings.Repeat("x", MaxTurnTextLen+1)
	_, err = s.SubmitTurn(context.Background(), "t1", oversized, true)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestChatServiceHistoryValidation(t *testing.T) {
	s := NewChatService(nil, nil, nil)
	_, err := s.History(context.Background(), "  ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
