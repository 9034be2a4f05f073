package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs    []published
	err     error
	drained bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject, data})
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "gate.outcomes.", nil)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), OutcomeEvent{
		TxType: "OfferCreate", Account: "rMAKER", Hash: "ABC", Sequence: 42,
		ResultCode: "tesSUCCESS", Success: true, Validated: true, Attempts: 1,
		CreatedObjectID: "42", Timestamp: ts,
	})
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "gate.outcomes.rMAKER", conn.msgs[0].subject)

	var ev OutcomeEvent
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &ev))
	assert.Equal(t, "42", ev.CreatedObjectID)
	assert.True(t, ev.Success)
	assert.True(t, ts.Equal(ev.Timestamp))

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestPublishDefaults(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "", nil)
	require.NoError(t, p.Publish(context.Background(), OutcomeEvent{Account: "rA"}))
	assert.Equal(t, DefaultSubjectPrefix+".rA", conn.msgs[0].subject)

	var ev OutcomeEvent
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &ev))
	assert.False(t, ev.Timestamp.IsZero())
}

func TestPublishError(t *testing.T) {
	cause := errors.New("nats: connection closed")
	p := NewPublisher(&fakeConn{err: cause}, "x", nil)
	assert.ErrorIs(t, p.Publish(context.Background(), OutcomeEvent{Account: "rA"}), cause)
}
