package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lodeworks/mooring/core/api"
	"github.com/lodeworks/mooring/core/collector"
	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/keylock"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/notifier"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/pipeline"
	"github.com/lodeworks/mooring/core/refindex"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/storage/mock"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logging.New(io.Discard, 0)
	st := mock.NewStorer()
	index := refindex.New()
	reg := registry.New()
	n := notifier.New(logger, notifier.Options{Workers: 2, RetryInterval: 5 * time.Millisecond})
	t.Cleanup(func() { n.Close() })
	locks := keylock.New()
	c := collector.New(st, index, reg, n, locks, collector.Options{}, logger)
	engine := pipeline.New(st, index, reg, n, c, nil, locks, pipeline.Options{}, nil, logger)

	ts := httptest.NewServer(api.New(engine, nil, nil, logger, nil))
	t.Cleanup(ts.Close)
	return ts
}

func newSigner(t *testing.T) crypto.Signer {
	t.Helper()
	key, err := crypto.GenerateSecp256k1Key()
	if err != nil {
		t.Fatal(err)
	}
	return crypto.NewDefaultSigner(key)
}

func publish(t *testing.T, ts *httptest.Server, o object.Object, wantStatus int) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/publish", "application/octet-stream", bytes.NewReader(o.Marshal()))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("got status %d (%s), want %d", resp.StatusCode, body, wantStatus)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestPublishAndGet(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, object.NewIdentity(pub), http.StatusCreated)

	container, err := object.NewContainer([]byte("cargo"), signer)
	if err != nil {
		t.Fatal(err)
	}
	out := publish(t, ts, container, http.StatusCreated)
	if out["address"] != container.Address().String() {
		t.Fatalf("got address %v", out["address"])
	}
	if out["duplicate"] != false {
		t.Fatal("new object flagged duplicate")
	}

	// Resubmission is reported, not rejected.
	out = publish(t, ts, container, http.StatusOK)
	if out["duplicate"] != true {
		t.Fatal("duplicate not flagged")
	}

	resp, err := http.Get(ts.URL + "/v1/objects/" + container.Address().String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(body, container.Marshal()) {
		t.Fatal("served bytes differ from canonical encoding")
	}
	if got := resp.Header.Get("Mooring-Kind"); got != "container" {
		t.Fatalf("got kind header %q", got)
	}
}

func TestPublishRejections(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	// Garbage bytes.
	resp, err := http.Post(ts.URL+"/v1/publish", "application/octet-stream", strings.NewReader("garbage"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	// Binding with unknown author and no replicas.
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, object.NewIdentity(pub), http.StatusCreated)
	container, err := object.NewContainer([]byte("cargo"), signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, container, http.StatusCreated)
	binding, err := object.NewStaticBinding(container.Address(), newSigner(t))
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.Post(ts.URL+"/v1/publish", "application/octet-stream", bytes.NewReader(binding.Marshal()))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFailedDependency {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusFailedDependency)
	}
}

func TestHoldersAndDebinding(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, object.NewIdentity(pub), http.StatusCreated)

	container, err := object.NewContainer([]byte("cargo"), signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, container, http.StatusCreated)
	binding, err := object.NewStaticBinding(container.Address(), signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, binding, http.StatusCreated)

	resp, err := http.Get(ts.URL + "/v1/objects/" + container.Address().String() + "/holders")
	if err != nil {
		t.Fatal(err)
	}
	var holders struct {
		Holders []string `json:"holders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&holders); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(holders.Holders) != 1 || holders.Holders[0] != binding.Address().String() {
		t.Fatalf("got holders %v", holders.Holders)
	}

	debinding, err := object.NewDebinding(binding.Address(), signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, debinding, http.StatusCreated)

	resp, err = http.Get(ts.URL + "/v1/objects/" + binding.Address().String() + "/debinding")
	if err != nil {
		t.Fatal(err)
	}
	var db struct {
		Debinding string `json:"debinding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&db); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if db.Debinding != debinding.Address().String() {
		t.Fatalf("got debinding %q", db.Debinding)
	}

	// The retracted binding is gone.
	resp, err = http.Get(ts.URL + "/v1/objects/" + binding.Address().String())
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestLineageEndpoint(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, object.NewIdentity(pub), http.StatusCreated)

	container, err := object.NewContainer([]byte("state"), signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, container, http.StatusCreated)
	frame, err := object.NewFrame(4, 0, container.Address(), nil, signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, frame, http.StatusCreated)

	resp, err := http.Get(ts.URL + "/v1/lineages/" + frame.Lineage().String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var lr struct {
		Frame   string `json:"frame"`
		Counter uint64 `json:"counter"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		t.Fatal(err)
	}
	if lr.Frame != frame.Address().String() || lr.Counter != 0 {
		t.Fatalf("got lineage %+v", lr)
	}
}

func TestMailboxEndpoints(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	identity := object.NewIdentity(pub)
	publish(t, ts, identity, http.StatusCreated)

	request, err := object.NewRequest(identity.Address(), []byte("handshake"))
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, request, http.StatusCreated)

	resp, err := http.Get(ts.URL + "/v1/requests/" + identity.Address().String())
	if err != nil {
		t.Fatal(err)
	}
	var box struct {
		Requests []string `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&box); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(box.Requests) != 1 || box.Requests[0] != request.Address().String() {
		t.Fatalf("got mailbox %v", box.Requests)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/requests/"+identity.Address().String()+"/"+request.Address().String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("got status %d acking twice, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestWebsocketSubscription(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, object.NewIdentity(pub), http.StatusCreated)

	container, err := object.NewContainer([]byte("state"), signer)
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, container, http.StatusCreated)

	frame, err := object.NewFrame(8, 0, container.Address(), nil, signer)
	if err != nil {
		t.Fatal(err)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/subscribe/" + frame.Lineage().String()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	publish(t, ts, frame, http.StatusCreated)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev struct {
		Subscription string `json:"subscription"`
		Object       string `json:"object"`
		Kind         string `json:"kind"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatal(err)
	}
	if ev.Object != frame.Address().String() || ev.Kind != "dynamic-frame" {
		t.Fatalf("got event %+v", ev)
	}
}

func TestWebhookSubscription(t *testing.T) {
	ts := newTestServer(t)
	signer := newSigner(t)

	events := make(chan []byte, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		events <- body
	}))
	defer hook.Close()

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	publish(t, ts, object.NewIdentity(pub), http.StatusCreated)

	container, err := object.NewContainer([]byte("cargo"), signer)
	if err != nil {
		t.Fatal(err)
	}

	reg, err := json.Marshal(map[string]string{
		"address": container.Address().String(),
		"url":     hook.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/v1/webhooks", "application/json", bytes.NewReader(reg))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got status %d", resp.StatusCode)
	}

	publish(t, ts, container, http.StatusCreated)

	select {
	case body := <-events:
		var ev struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(body, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Object != container.Address().String() {
			t.Fatalf("got event %s", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "ok" {
		t.Fatalf("got status %q", status.Status)
	}
}
