package node_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/node"
	"github.com/lodeworks/mooring/core/object"
)

func TestNodeLifecycle(t *testing.T) {
	logger := logging.New(io.Discard, 0)
	dir := t.TempDir()

	n, err := node.New(node.Options{
		DataDir: dir,
		APIAddr: "127.0.0.1:0",
	}, logger)
	if err != nil {
		t.Fatal(err)
	}

	key, err := crypto.GenerateSecp256k1Key()
	if err != nil {
		t.Fatal(err)
	}
	signer := crypto.NewDefaultSigner(key)
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	container, err := object.NewContainer([]byte("cargo"), signer)
	if err != nil {
		t.Fatal(err)
	}

	base := "http://" + n.Addr()
	for _, o := range []object.Object{object.NewIdentity(pub), container} {
		resp, err := http.Post(base+"/v1/publish", "application/octet-stream", bytes.NewReader(o.Marshal()))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("got status %d publishing %s", resp.StatusCode, o.Kind())
		}
	}

	resp, err := http.Get(base + "/readiness")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got readiness status %d", resp.StatusCode)
	}

	if err := n.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Objects survive a restart.
	n, err = node.New(node.Options{
		DataDir: dir,
		APIAddr: "127.0.0.1:0",
	}, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := n.Close(context.Background()); err != nil {
			t.Fatal(err)
		}
	}()

	resp, err = http.Get("http://" + n.Addr() + "/v1/objects/" + container.Address().String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d after restart", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, container.Marshal()) {
		t.Fatal("stored bytes changed across restart")
	}
}
