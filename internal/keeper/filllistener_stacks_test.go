package keeper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelstack/intent-bridge/internal/ledger"
	"github.com/fuelstack/intent-bridge/internal/stacks"
)

const testFillGateContract = "ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC.fill-gate"

// eventFeed fakes the indexer's newest-first contract event endpoint.
type eventFeed struct {
	events []map[string]any // newest first
}

func (f *eventFeed) push(txID string, eventIndex int, topic, repr string) {
	ev := map[string]any{
		"event_index": eventIndex,
		"event_type":  "smart_contract_log",
		"tx_id":       txID,
		"contract_log": map[string]any{
			"contract_id": testFillGateContract,
			"topic":       topic,
			"value":       map[string]any{"repr": repr, "hex": "0x00"},
		},
	}
	f.events = append([]map[string]any{ev}, f.events...)
}

func (f *eventFeed) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{"results": f.events})
}

// fillRepr mirrors what the deployed contract prints: the payout asset is
// tagged "native" for STX, not the symbol.
func fillRepr(orderID string, amount int64) string {
	return fmt.Sprintf(`(tuple (amount-out u%d) (event "fill") (order-id u%s) `+
		`(recipient 'ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC) `+
		`(solver-origin-address "%s") (token-out "native"))`, amount, orderID, solverAddress)
}

func newTestStacksListener(t *testing.T, feed *eventFeed) (*StacksFillListener, *ledger.MemoryStore, *fakeSubmitter) {
	t.Helper()

	server := httptest.NewServer(feed)
	t.Cleanup(server.Close)

	store := ledger.NewMemoryStore()
	validator := NewValidator(store)
	validator.now = func() time.Time { return time.Unix(testDeadline-60, 0) }
	submitter := &fakeSubmitter{}
	settler := NewSettler(store, submitter, nil, quietLogger())

	listener := NewStacksFillListener(stacks.NewClient(server.URL), testFillGateContract,
		validator, settler, store, quietLogger(), time.Second)
	return listener, store, submitter
}

func TestStacksPollFillsAndSettles(t *testing.T) {
	feed := &eventFeed{}
	listener, store, submitter := newTestStacksListener(t, feed)

	_, err := store.Insert(nativeOrder())
	require.NoError(t, err)

	feed.push("0xaaa", 0, "print", fillRepr("7", 5_000000))
	listener.poll(context.Background())

	got, err := store.Get(421614, "7")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusSettled, got.Status)
	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, []uint64{421614}, submitter.chainIDs)
}

func TestStacksPollDeduplicatesAcrossPolls(t *testing.T) {
	feed := &eventFeed{}
	listener, store, submitter := newTestStacksListener(t, feed)

	_, err := store.Insert(nativeOrder())
	require.NoError(t, err)

	feed.push("0xaaa", 0, "print", fillRepr("7", 5_000000))
	listener.poll(context.Background())
	listener.poll(context.Background())
	listener.poll(context.Background())

	assert.Equal(t, 1, submitter.calls, "the same event must be processed once")
}

func TestStacksPollProcessesOnlyNewEvents(t *testing.T) {
	feed := &eventFeed{}
	listener, store, submitter := newTestStacksListener(t, feed)

	first := nativeOrder()
	second := nativeOrder()
	second.OrderID = "8"
	_, err := store.Insert(first)
	require.NoError(t, err)
	_, err = store.Insert(second)
	require.NoError(t, err)

	feed.push("0xaaa", 0, "print", fillRepr("7", 5_000000))
	listener.poll(context.Background())
	require.Equal(t, 1, submitter.calls)

	feed.push("0xbbb", 0, "print", fillRepr("8", 5_000000))
	listener.poll(context.Background())
	assert.Equal(t, 2, submitter.calls)
	assert.Equal(t, []string{"7", "8"}, submitter.orderIDs)
}

func TestStacksPollSameTxDistinctEventIndexes(t *testing.T) {
	feed := &eventFeed{}
	listener, store, submitter := newTestStacksListener(t, feed)

	first := nativeOrder()
	second := nativeOrder()
	second.OrderID = "8"
	_, err := store.Insert(first)
	require.NoError(t, err)
	_, err = store.Insert(second)
	require.NoError(t, err)

	// One transaction emitting two fill events: the dedup identity must be
	// txid plus event index, not txid alone.
	feed.push("0xaaa", 0, "print", fillRepr("7", 5_000000))
	feed.push("0xaaa", 1, "print", fillRepr("8", 5_000000))
	listener.poll(context.Background())

	assert.Equal(t, 2, submitter.calls)
}

func TestStacksPollSkipsMalformedAndForeignEvents(t *testing.T) {
	feed := &eventFeed{}
	listener, store, submitter := newTestStacksListener(t, feed)

	_, err := store.Insert(nativeOrder())
	require.NoError(t, err)

	feed.push("0xaaa", 0, "print", fillRepr("7", 5_000000))
	feed.push("0xbbb", 0, "print", `(tuple (event "refund") (order-id u9))`)
	feed.push("0xccc", 0, "some-other-topic", fillRepr("7", 5_000000))
	listener.poll(context.Background())

	// Only the well-formed fill on the print topic counts.
	assert.Equal(t, 1, submitter.calls)

	got, err := store.Get(421614, "7")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusSettled, got.Status)
}

func TestStacksPollWarnsOnUndecodablePrint(t *testing.T) {
	feed := &eventFeed{}
	server := httptest.NewServer(feed)
	t.Cleanup(server.Close)

	store := ledger.NewMemoryStore()
	logger, hook := logrustest.NewNullLogger()
	settler := NewSettler(store, &fakeSubmitter{}, nil, logger)
	listener := NewStacksFillListener(stacks.NewClient(server.URL), testFillGateContract,
		NewValidator(store), settler, store, logger, time.Second)

	feed.push("0xaaa", 0, "print", `(tuple (event "refund") (order-id u9))`)
	listener.poll(context.Background())

	require.NotEmpty(t, hook.Entries)
	last := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Contains(t, last.Message, "undecodable print event")
}

func TestStacksPollRejectedFillLeavesOrderOpen(t *testing.T) {
	feed := &eventFeed{}
	listener, store, submitter := newTestStacksListener(t, feed)

	_, err := store.Insert(nativeOrder())
	require.NoError(t, err)

	feed.push("0xaaa", 0, "print", fillRepr("7", 4_999999))
	listener.poll(context.Background())

	assert.Zero(t, submitter.calls)
	got, err := store.Get(421614, "7")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusOpened, got.Status)
}
