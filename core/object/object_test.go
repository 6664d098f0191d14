package object_test

import (
	"bytes"
	"testing"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/object"
)

func newSigner(t *testing.T) crypto.Signer {
	t.Helper()
	k, err := crypto.GenerateSecp256k1Key()
	if err != nil {
		t.Fatal(err)
	}
	return crypto.NewDefaultSigner(k)
}

// TestContainerRoundTrip verifies that a container survives canonical
// encoding with a stable address and a verifiable signature.
func TestContainerRoundTrip(t *testing.T) {
	signer := newSigner(t)

	c, err := object.NewContainer([]byte("payload"), signer)
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := object.Unmarshal(c.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	dc, ok := decoded.(*object.Container)
	if !ok {
		t.Fatalf("decoded kind %s, want container", decoded.Kind())
	}
	if !dc.Address().Equal(c.Address()) {
		t.Errorf("address changed across round trip: %s != %s", dc.Address(), c.Address())
	}
	if !bytes.Equal(dc.Payload(), c.Payload()) {
		t.Error("payload mismatch")
	}
	if !dc.Author().Equal(c.Author()) {
		t.Error("author mismatch")
	}
	if err := dc.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

// TestForgedAuthor verifies that a container whose author field is not
// the signing identity fails verification.
func TestForgedAuthor(t *testing.T) {
	signer := newSigner(t)
	mallory := newSigner(t)

	c, err := object.NewContainer([]byte("payload"), signer)
	if err != nil {
		t.Fatal(err)
	}
	data := c.Marshal()

	// graft mallory's identity over the author field
	pub, err := mallory.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	copy(data[4:4+mooring.AddressSize], object.IdentityAddress(pub).Bytes())

	decoded, err := object.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := decoded.Verify(); err == nil {
		t.Fatal("expected signature error for forged author")
	}
}

func TestBindingRoundTrip(t *testing.T) {
	signer := newSigner(t)
	target := mooring.MustParseHexAddress("ca1e9f3938cc1425c6061b96ad9eb93e134dfe8734ad490164ef20af9d1cf59c")

	b, err := object.NewStaticBinding(target, signer)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := object.Unmarshal(b.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	db, ok := decoded.(*object.StaticBinding)
	if !ok {
		t.Fatalf("decoded kind %s, want static binding", decoded.Kind())
	}
	if !db.Target().Equal(target) {
		t.Error("target mismatch")
	}
	if err := db.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}

	d, err := object.NewDebinding(b.Address(), signer)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err = object.Unmarshal(d.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	dd, ok := decoded.(*object.Debinding)
	if !ok {
		t.Fatalf("decoded kind %s, want debinding", decoded.Kind())
	}
	if !dd.Target().Equal(b.Address()) {
		t.Error("debinding target mismatch")
	}
	if err := dd.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	signer := newSigner(t)
	target := mooring.MustParseHexAddress("ca1e9f3938cc1425c6061b96ad9eb93e134dfe8734ad490164ef20af9d1cf59c")
	history := []mooring.Address{
		mooring.MustParseHexAddress("885d4d5944194b3ae6507c724cfdecfed00a9bfaf4b4a07a4a4bbda2c7ded981"),
	}

	f, err := object.NewFrame(42, 7, target, history, signer)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := object.Unmarshal(f.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	df, ok := decoded.(*object.Frame)
	if !ok {
		t.Fatalf("decoded kind %s, want frame", decoded.Kind())
	}
	if df.Counter() != 7 {
		t.Errorf("counter %d, want 7", df.Counter())
	}
	if df.Nonce() != 42 {
		t.Errorf("nonce %d, want 42", df.Nonce())
	}
	if len(df.History()) != 1 || !df.History()[0].Equal(history[0]) {
		t.Error("history mismatch")
	}
	if err := df.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !df.Lineage().Equal(f.Lineage()) {
		t.Error("lineage changed across round trip")
	}
}

// TestLineageAddress verifies that all frames of one lineage share one
// lineage address and that nonce or author changes move it.
func TestLineageAddress(t *testing.T) {
	signer := newSigner(t)
	other := newSigner(t)
	target := mooring.MustParseHexAddress("ca1e9f3938cc1425c6061b96ad9eb93e134dfe8734ad490164ef20af9d1cf59c")

	f1, err := object.NewFrame(1, 1, target, nil, signer)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := object.NewFrame(1, 2, target, nil, signer)
	if err != nil {
		t.Fatal(err)
	}
	if !f1.Lineage().Equal(f2.Lineage()) {
		t.Error("frames of one lineage disagree on lineage address")
	}
	if f1.Address().Equal(f2.Address()) {
		t.Error("distinct frames share an object address")
	}

	f3, err := object.NewFrame(2, 1, target, nil, signer)
	if err != nil {
		t.Fatal(err)
	}
	if f1.Lineage().Equal(f3.Lineage()) {
		t.Error("different nonce produced same lineage address")
	}
	f4, err := object.NewFrame(1, 1, target, nil, other)
	if err != nil {
		t.Fatal(err)
	}
	if f1.Lineage().Equal(f4.Lineage()) {
		t.Error("different author produced same lineage address")
	}
}

func TestRequestRoundTrip(t *testing.T) {
	recipient := mooring.MustParseHexAddress("885d4d5944194b3ae6507c724cfdecfed00a9bfaf4b4a07a4a4bbda2c7ded981")

	r, err := object.NewRequest(recipient, []byte("sealed"))
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := object.Unmarshal(r.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	dr, ok := decoded.(*object.Request)
	if !ok {
		t.Fatalf("decoded kind %s, want request", decoded.Kind())
	}
	if !dr.Recipient().Equal(recipient) {
		t.Error("recipient mismatch")
	}
	if !bytes.Equal(dr.Payload(), []byte("sealed")) {
		t.Error("payload mismatch")
	}
}

// TestNonCanonical verifies that padded, truncated and mistagged bytes
// are rejected.
func TestNonCanonical(t *testing.T) {
	signer := newSigner(t)
	c, err := object.NewContainer([]byte("payload"), signer)
	if err != nil {
		t.Fatal(err)
	}
	data := c.Marshal()

	if _, err := object.Unmarshal(append(data, 0x00)); err == nil {
		t.Error("trailing byte accepted")
	}
	if _, err := object.Unmarshal(data[:len(data)-1]); err == nil {
		t.Error("truncated bytes accepted")
	}
	if _, err := object.Unmarshal(nil); err == nil {
		t.Error("empty bytes accepted")
	}

	bad := append([]byte{}, data...)
	bad[2] = 0x7e // undeclared kind tag
	if _, err := object.Unmarshal(bad); err == nil {
		t.Error("unknown kind accepted")
	}
}
