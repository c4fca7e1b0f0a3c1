package mq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireFormat(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Event{Type: OrderCreated, OrderID: "o1", UserID: "u1", TotalPrice: 5350, At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"order.created","orderId":"o1","userId":"u1","totalPrice":5350,"at":"2026-03-01T10:00:00Z"}`, string(data))

	ev, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "o1", ev.OrderID)
	assert.True(t, at.Equal(ev.At))

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}
