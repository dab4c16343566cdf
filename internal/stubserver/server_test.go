package stubserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigachat/internal/infrastructure/push"
	"gigachat/internal/infrastructure/rest"
	"gigachat/internal/pkg/sync/domain"
	"gigachat/internal/stubserver"
)

type fixture struct {
	srv   *stubserver.Server
	http  *httptest.Server
	wsURL string
	alice domain.Contact
	bob   domain.Contact
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := stubserver.New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return &fixture{
		srv:   srv,
		http:  ts,
		wsURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		alice: srv.SeedUser(domain.Contact{Name: "Alice", PhoneNumber: "9000000001"}, "alice-pw"),
		bob:   srv.SeedUser(domain.Contact{Name: "Bob", PhoneNumber: "9000000002"}, "bob-pw"),
	}
}

func (f *fixture) client(t *testing.T, userID string) *rest.Client {
	t.Helper()
	token, err := f.srv.TokenFor(userID)
	require.NoError(t, err)
	return rest.NewClient(f.http.URL, rest.WithToken(token))
}

func (f *fixture) pushClient(t *testing.T, userID string) *push.Client {
	t.Helper()
	token, err := f.srv.TokenFor(userID)
	require.NoError(t, err)
	c := push.NewClient(f.wsURL, push.WithToken(token))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestServer_SignInAndProfile(t *testing.T) {
	f := newFixture(t)

	c := rest.NewClient(f.http.URL)
	require.NoError(t, c.SignIn(context.Background(), "9000000001", "alice-pw"))
	require.NotEmpty(t, c.Token())

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, me.ID)

	contacts, err := c.Contacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1, "the contact list excludes the caller")
	assert.Equal(t, f.bob.ID, contacts[0].ID)
}

func TestServer_SignInRejectsBadPassword(t *testing.T) {
	f := newFixture(t)

	c := rest.NewClient(f.http.URL)
	err := c.SignIn(context.Background(), "9000000001", "wrong")
	require.Error(t, err)
	_, err = c.Me(context.Background())
	require.Error(t, err, "no token was stored")
}

func TestServer_SendHistoryDelete(t *testing.T) {
	f := newFixture(t)
	alice := f.client(t, f.alice.ID)
	bob := f.client(t, f.bob.ID)

	sent, err := alice.CreateMessage(context.Background(), f.alice.ID, f.bob.ID, "hello bob")
	require.NoError(t, err)
	require.NotEmpty(t, sent.ID)

	// Both participants see the same record.
	aliceHistory, err := alice.History(context.Background(), f.bob.ID)
	require.NoError(t, err)
	require.Len(t, aliceHistory, 1)
	assert.Equal(t, sent.ID, aliceHistory[0].ID)

	bobHistory, err := bob.History(context.Background(), f.alice.ID)
	require.NoError(t, err)
	require.Len(t, bobHistory, 1)
	assert.Equal(t, sent.ID, bobHistory[0].ID)

	rec, err := alice.DeleteMessage(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.True(t, rec.Deleted)
	assert.Empty(t, rec.Content)

	// The record stays in the timeline as a soft-deleted entry.
	history, err := bob.History(context.Background(), f.alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Deleted)
}

func TestServer_DeleteUnknownMessage(t *testing.T) {
	f := newFixture(t)
	alice := f.client(t, f.alice.ID)

	_, err := alice.DeleteMessage(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message not found")
}

func TestServer_SocketDeliversToBothParties(t *testing.T) {
	f := newFixture(t)

	aliceGot := make(chan domain.Message, 1)
	alicePush := f.pushClient(t, f.alice.ID)
	alicePush.OnMessage(func(m domain.Message) { aliceGot <- m })
	require.NoError(t, alicePush.Connect(context.Background(), f.alice.ID))

	bobGot := make(chan domain.Message, 1)
	bobPush := f.pushClient(t, f.bob.ID)
	bobPush.OnMessage(func(m domain.Message) { bobGot <- m })
	require.NoError(t, bobPush.Connect(context.Background(), f.bob.ID))

	require.NoError(t, alicePush.Send(f.alice.ID, f.bob.ID, "hello over the wire"))

	var echoed, received domain.Message
	select {
	case echoed = <-aliceGot:
	case <-time.After(2 * time.Second):
		t.Fatal("sender echo never arrived")
	}
	select {
	case received = <-bobGot:
	case <-time.After(2 * time.Second):
		t.Fatal("recipient delivery never arrived")
	}

	assert.Equal(t, echoed.ID, received.ID, "one server-assigned id for both parties")
	assert.Equal(t, "hello over the wire", received.Content)

	// The socket write is persisted like a REST send.
	history, err := f.client(t, f.bob.ID).History(context.Background(), f.alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, echoed.ID, history[0].ID)
}

func TestServer_SocketRejectsBadToken(t *testing.T) {
	f := newFixture(t)

	c := push.NewClient(f.wsURL, push.WithToken("bogus"))
	defer c.Close()
	err := c.Connect(context.Background(), f.alice.ID)
	require.Error(t, err)
}

func TestServer_AcceptFriendNotifiesBothSides(t *testing.T) {
	f := newFixture(t)

	aliceGot := make(chan domain.Contact, 1)
	alicePush := f.pushClient(t, f.alice.ID)
	alicePush.OnContactAccepted(func(c domain.Contact) { aliceGot <- c })
	require.NoError(t, alicePush.Connect(context.Background(), f.alice.ID))

	bobGot := make(chan domain.Contact, 1)
	bobPush := f.pushClient(t, f.bob.ID)
	bobPush.OnContactAccepted(func(c domain.Contact) { bobGot <- c })
	require.NoError(t, bobPush.Connect(context.Background(), f.bob.ID))

	token, err := f.srv.TokenFor(f.alice.ID)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.http.URL+"/profile/accept-friend/"+f.bob.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case c := <-aliceGot:
		assert.Equal(t, f.bob.ID, c.ID)
		assert.True(t, c.IsMutual(f.alice.ID))
	case <-time.After(2 * time.Second):
		t.Fatal("alice never notified")
	}
	select {
	case c := <-bobGot:
		assert.Equal(t, f.alice.ID, c.ID)
		assert.True(t, c.IsMutual(f.bob.ID))
	case <-time.After(2 * time.Second):
		t.Fatal("bob never notified")
	}
}
