package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cleaning-reservation-be/internal/model"
	"cleaning-reservation-be/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, rdb *redis.Client) *Hub {
	t.Helper()
	hub := NewHub(rdb, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
	require.True(t, hub.add(c))
	return c
}

func receive(t *testing.T, c *Client) model.Notification {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "channel closed")
		var frame struct {
			Type string             `json:"type"`
			Data model.Notification `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, "notification", frame.Type)
		return frame.Data
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return model.Notification{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_SendReachesEveryDeviceOfTheUser(t *testing.T) {
	hub := startHub(t, nil)
	customer, other := uuid.New(), uuid.New()

	phone := connect(t, hub, customer, 4)
	laptop := connect(t, hub, customer, 4)
	stranger := connect(t, hub, other, 4)
	require.Eventually(t, func() bool { return hub.ConnectedDevices(customer) == 2 }, time.Second, 5*time.Millisecond)

	n := model.Notification{ID: uuid.New(), UserID: customer, Title: "Reservation confirmed"}
	hub.Send(customer, n)

	assert.Equal(t, n.ID, receive(t, phone).ID)
	assert.Equal(t, n.ID, receive(t, laptop).ID)
	assertSilent(t, stranger)
}

func TestHub_DropsClientWithFullBuffer(t *testing.T) {
	hub := startHub(t, nil)
	userID := uuid.New()
	slow := connect(t, hub, userID, 1)
	require.Eventually(t, func() bool { return hub.ConnectedDevices(userID) == 1 }, time.Second, 5*time.Millisecond)

	hub.Send(userID, model.Notification{ID: uuid.New()})
	hub.Send(userID, model.Notification{ID: uuid.New()})

	require.Eventually(t, func() bool { return hub.ConnectedDevices(userID) == 0 }, time.Second, 5*time.Millisecond)
	<-slow.Send
	_, ok := <-slow.Send
	assert.False(t, ok, "dropped client's channel is closed")
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := connect(t, hub, uuid.New(), 1)
	cancel()
	<-stopped

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, hub.add(&Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}))
}

func TestHub_FansOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		return rdb
	}

	hubA := startHub(t, newClient())
	hubB := startHub(t, newClient())
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(clusterChannel)[clusterChannel] == 2
	}, 2*time.Second, 10*time.Millisecond)

	userID := uuid.New()
	onA := connect(t, hubA, userID, 4)
	onB := connect(t, hubB, userID, 4)
	require.Eventually(t, func() bool {
		return hubA.ConnectedDevices(userID) == 1 && hubB.ConnectedDevices(userID) == 1
	}, time.Second, 5*time.Millisecond)

	n := model.Notification{ID: uuid.New(), UserID: userID, Title: "Cleaner running late"}
	hubA.Send(userID, n)

	assert.Equal(t, n.ID, receive(t, onB).ID)
	assert.Equal(t, n.ID, receive(t, onA).ID)
	assertSilent(t, onA)
}

func TestHub_PublishRejectsUnencodableFrame(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	hub := NewHub(rdb, logger.NewNopLogger())

	sub := rdb.Subscribe(context.Background(), clusterChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	err = hub.publish(context.Background(), uuid.New(), []byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode cluster message")

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected cluster message: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}
