//go:build integration

package integration

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/dmehra2102/storefront/internal/cart/application"
	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	inventoryapp "github.com/dmehra2102/storefront/internal/inventory/application"
	notifyapp "github.com/dmehra2102/storefront/internal/notification/application"
	notifydomain "github.com/dmehra2102/storefront/internal/notification/domain"
	notifypg "github.com/dmehra2102/storefront/internal/notification/infrastructure/postgres"
	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/session"
	sessionredis "github.com/dmehra2102/storefront/internal/session/redis"
	"github.com/dmehra2102/storefront/pkg/filestore"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type stack struct {
	cart   *cartapp.Service
	orders *application.Service
}

func newStack(t *testing.T) stack {
	t.Helper()
	log := logging.Discard()
	files, err := filestore.NewLocal(log, t.TempDir())
	require.NoError(t, err)

	catalog := catalogapp.NewService(catalogpg.NewRepository(log, pool))
	cart := cartapp.NewService(log,
		sessionredis.NewStore(log, rdb, time.Hour),
		sessionredis.NewLocker(log, rdb, 2*time.Second),
		catalog,
	)
	orders := application.NewService(log, orderpg.NewRepository(log, pool), cart,
		paymentapp.NewService(log, files), inventoryapp.NewService(log))
	return stack{cart: cart, orders: orders}
}

func stock(t *testing.T, id int64) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, id).Scan(&n))
	return n
}

func TestPlaceAndApproveOrder(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	rose := seedProduct(t, "order-rose", "10.00", 5)
	lily := seedProduct(t, "order-lily", "7.25", 1)
	sid := session.NewID()

	for _, id := range []int64{rose, rose, lily, lily} {
		_, err := s.cart.Add(ctx, sid, id)
		require.NoError(t, err)
	}

	form := domain.Form{FullName: "Asha Rai", PhoneNumber: "9800000000", Address: "Patan", PaymentMethod: "COD"}
	o, err := s.orders.PlaceOrder(ctx, "user-42", sid, form, nil)
	require.NoError(t, err)
	assert.Equal(t, "34.50", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Items, 2)

	n, err := s.cart.Count(ctx, sid)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.orders.ChangeStatus(ctx, o.ID, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, 3, stock(t, rose))
	assert.Equal(t, 1, stock(t, lily), "2 lilies cannot come out of a stock of 1")

	_, err = s.orders.ChangeStatus(ctx, o.ID, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, 3, stock(t, rose), "approval is applied once")

	history, err := s.orders.History(ctx, "user-42")
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, o.ID, history[0].ID)
	assert.Equal(t, domain.StatusConfirmed, history[0].Status)

	var events int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM outbox WHERE aggregate_id = $1`, o.Key()).Scan(&events))
	assert.Equal(t, 2, events, "placed plus one status change")
}

func TestPlaceOrderForDeletedProductFails(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	gone := seedProduct(t, "order-gone", "3.00", 2)
	sid := session.NewID()

	_, err := s.cart.Add(ctx, sid, gone)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, gone)
	require.NoError(t, err)

	_, err = s.orders.PlaceOrder(ctx, "user-43", sid, domain.Form{
		FullName: "A", PhoneNumber: "1", Address: "x", PaymentMethod: "COD",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCart, "the dangling line is dropped before placement")
}

func TestOutboxReachesNotifier(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	log := logging.Discard()
	s := newStack(t)
	id := seedProduct(t, "relay-tulip", "4.00", 3)
	sid := session.NewID()

	_, err := s.cart.Add(ctx, sid, id)
	require.NoError(t, err)
	o, err := s.orders.PlaceOrder(ctx, "user-44", sid, domain.Form{
		FullName: "B", PhoneNumber: "2", Address: "y", PaymentMethod: "COD",
	}, nil)
	require.NoError(t, err)

	topic := "order.events.test"
	createTopic(t, topic)
	writer := orderkafka.NewWriter(log, env.KAddr)
	defer writer.Close()
	relay := outbox.NewRelay(log, outbox.NewPgStore(log, pool), outbox.NewDispatcher(log, writer, topic), "it-relay")

	require.Eventually(t, func() bool {
		_, err := relay.Tick(ctx)
		if err != nil {
			return false
		}
		var pending int
		_ = pool.QueryRow(ctx, `SELECT count(*) FROM outbox WHERE aggregate_id = $1 AND status <> 'sent'`, o.Key()).Scan(&pending)
		return pending == 0
	}, 30*time.Second, 500*time.Millisecond)

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: env.KAddr, Topic: topic, Partition: 0, MinBytes: 1, MaxBytes: 1 << 20})
	defer reader.Close()

	inbox := notifyapp.NewService(log, notifypg.NewRepository(pool))
	for {
		msg, err := reader.ReadMessage(ctx)
		require.NoError(t, err)
		if string(msg.Key) != o.Key() {
			continue
		}
		var eventType, eventID string
		for _, h := range msg.Headers {
			switch h.Key {
			case outbox.HeaderEventType:
				eventType = string(h.Value)
			case outbox.HeaderEventID:
				eventID = string(h.Value)
			}
		}
		assert.Equal(t, domain.EventOrderPlaced, eventType)
		require.NotEmpty(t, eventID)
		key := "it:event:" + eventID
		require.NoError(t, inbox.Handle(ctx, key, eventType, msg.Value))
		require.NoError(t, inbox.Handle(ctx, key, eventType, msg.Value))
		break
	}

	list, err := inbox.List(ctx)
	require.NoError(t, err)
	var matches int
	for _, n := range list {
		if n.OrderID == o.ID && n.Kind == notifydomain.KindNewOrder {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func createTopic(t *testing.T, topic string) {
	t.Helper()
	conn, err := kafka.Dial("tcp", env.KAddr[0])
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}
