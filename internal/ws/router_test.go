package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatRouter(got *[]InMessage) *Router {
	r := NewRouter()
	Register(r, KindChat, func(_ context.Context, _ *ConnContext, req InMessage) error {
		*got = append(*got, req)
		return nil
	})
	return r
}

func TestDispatchChat(t *testing.T) {
	var got []InMessage
	r := newChatRouter(&got)

	require.NoError(t, r.dispatch(context.Background(), &ConnContext{}, []byte(`{"type":"chat","text":"hi"}`)))
	require.NoError(t, r.dispatch(context.Background(), &ConnContext{}, []byte(`{"text":"no type"}`)))

	require.Len(t, got, 2)
	assert.Equal(t, "hi", got[0].Text)
	assert.Equal(t, "no type", got[1].Text)
}

func TestDispatchRejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
		message string
	}{
		{"not json", `hello`, ErrMalformed, ""},
		{"wrong text type", `{"text":42}`, ErrMalformed, ""},
		{"unknown type", `{"type":"typing","text":"x"}`, ErrUnknownKind, ""},
		{"missing text", `{"type":"chat"}`, nil, "text must not be empty"},
		{"empty text", `{"text":""}`, nil, "text must not be empty"},
		{"too long", `{"text":"` + strings.Repeat("a", MaxTextLength+1) + `"}`, nil, "text must be at most 2000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []InMessage
			r := newChatRouter(&got)

			err := r.dispatch(context.Background(), &ConnContext{}, []byte(tt.raw))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, describe(err))
			}
			assert.Empty(t, got)
		})
	}
}

func TestDispatchMaxLengthAccepted(t *testing.T) {
	var got []InMessage
	r := newChatRouter(&got)

	raw := `{"text":"` + strings.Repeat("a", MaxTextLength) + `"}`
	require.NoError(t, r.dispatch(context.Background(), &ConnContext{}, []byte(raw)))
	assert.Len(t, got, 1)
}

func TestDispatchHandlerError(t *testing.T) {
	r := NewRouter()
	boom := errors.New("boom")
	Register(r, KindChat, func(context.Context, *ConnContext, InMessage) error { return boom })

	err := r.dispatch(context.Background(), &ConnContext{}, []byte(`{"text":"x"}`))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "boom", describe(err))
}

func TestRegisterEmptyKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(NewRouter(), "", func(context.Context, *ConnContext, InMessage) error { return nil })
	})
}

func TestOutMessageEncoding(t *testing.T) {
	tests := []struct {
		name string
		msg  OutMessage
		want map[string]string
	}{
		{
			"chat",
			ChatMessage("alice", "lobby", "hi"),
			map[string]string{"type": "chat", "sender": "alice", "text": "hi", "room": "lobby"},
		},
		{
			"joined",
			JoinedMessage("bob", "dev"),
			map[string]string{"type": "system", "sender": "system", "text": "bob joined", "room": "dev"},
		},
		{
			"left",
			LeftMessage("bob", "dev"),
			map[string]string{"type": "system", "sender": "system", "text": "bob left", "room": "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.msg.Encode()
			require.NoError(t, err)

			var got map[string]string
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
