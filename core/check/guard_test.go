package check_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/lodeworks/mooring/core/check"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/storage"
	"github.com/lodeworks/mooring/core/storage/mock"
)

type fetcherFunc func(ctx context.Context, addr mooring.Address) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, addr mooring.Address) ([]byte, error) {
	return f(ctx, addr)
}

func TestGuardAuthorKnown(t *testing.T) {
	signer := newSigner(t)
	st := mock.NewStorer()
	g := check.NewGuard(st, registry.New(), nil, check.Options{}, logging.New(io.Discard, 0))

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	putObject(t, st, object.NewIdentity(pub))

	b, err := object.NewStaticBinding(mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), signer)
	if err != nil {
		t.Fatal(err)
	}
	deps, err := g.Authorize(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 0 {
		t.Fatalf("got %d deps, want none", len(deps))
	}
}

func TestGuardContainerAuthor(t *testing.T) {
	signer := newSigner(t)
	st := mock.NewStorer()
	g := check.NewGuard(st, registry.New(), nil, check.Options{}, logging.New(io.Discard, 0))

	container, err := object.NewContainer([]byte("cargo"), signer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authorize(context.Background(), container); !errors.Is(err, mooring.ErrDependencyMissing) {
		t.Fatalf("got error %v, want %v", err, mooring.ErrDependencyMissing)
	}

	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	putObject(t, st, object.NewIdentity(pub))
	if _, err := g.Authorize(context.Background(), container); err != nil {
		t.Fatalf("known author: %v", err)
	}
}

func TestGuardAuthorMissing(t *testing.T) {
	signer := newSigner(t)
	st := mock.NewStorer()
	g := check.NewGuard(st, registry.New(), nil, check.Options{}, logging.New(io.Discard, 0))

	b, err := object.NewStaticBinding(mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), signer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authorize(context.Background(), b); !errors.Is(err, mooring.ErrDependencyMissing) {
		t.Fatalf("got error %v, want %v", err, mooring.ErrDependencyMissing)
	}
}

func TestGuardFetchesIdentity(t *testing.T) {
	signer := newSigner(t)
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	identity := object.NewIdentity(pub)

	fetcher := fetcherFunc(func(_ context.Context, addr mooring.Address) ([]byte, error) {
		if !addr.Equal(identity.Address()) {
			return nil, storage.ErrNotFound
		}
		return identity.Marshal(), nil
	})
	st := mock.NewStorer()
	g := check.NewGuard(st, registry.New(), fetcher, check.Options{}, logging.New(io.Discard, 0))

	b, err := object.NewStaticBinding(mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), signer)
	if err != nil {
		t.Fatal(err)
	}
	deps, err := g.Authorize(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 1 || !deps[0].Address.Equal(identity.Address()) {
		t.Fatalf("got deps %v, want the author identity", deps)
	}
}

func TestGuardFetchFailures(t *testing.T) {
	signer := newSigner(t)
	b, err := object.NewStaticBinding(mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), signer)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name    string
		fetcher check.Fetcher
		want    error
	}{
		{
			name: "not found anywhere",
			fetcher: fetcherFunc(func(context.Context, mooring.Address) ([]byte, error) {
				return nil, storage.ErrNotFound
			}),
			want: mooring.ErrDependencyMissing,
		},
		{
			name: "transport failure",
			fetcher: fetcherFunc(func(context.Context, mooring.Address) ([]byte, error) {
				return nil, errors.New("connection refused")
			}),
			want: mooring.ErrDependencyUnavailable,
		},
		{
			name: "garbage bytes",
			fetcher: fetcherFunc(func(context.Context, mooring.Address) ([]byte, error) {
				return []byte("not an object"), nil
			}),
			want: mooring.ErrDependencyUnavailable,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := check.NewGuard(mock.NewStorer(), registry.New(), tc.fetcher, check.Options{}, logging.New(io.Discard, 0))
			if _, err := g.Authorize(context.Background(), b); !errors.Is(err, tc.want) {
				t.Fatalf("got error %v, want %v", err, tc.want)
			}
		})
	}
}

func TestGuardDebindingOwnership(t *testing.T) {
	owner := newSigner(t)
	stranger := newSigner(t)
	st := mock.NewStorer()
	g := check.NewGuard(st, registry.New(), nil, check.Options{}, logging.New(io.Discard, 0))

	ownerPub, err := owner.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	strangerPub, err := stranger.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	putObject(t, st, object.NewIdentity(ownerPub))
	putObject(t, st, object.NewIdentity(strangerPub))

	b, err := object.NewStaticBinding(mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), owner)
	if err != nil {
		t.Fatal(err)
	}
	putObject(t, st, b)

	own, err := object.NewDebinding(b.Address(), owner)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authorize(context.Background(), own); err != nil {
		t.Fatalf("owner debinding: %v", err)
	}

	forged, err := object.NewDebinding(b.Address(), stranger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authorize(context.Background(), forged); !errors.Is(err, mooring.ErrAuthorization) {
		t.Fatalf("got error %v, want %v", err, mooring.ErrAuthorization)
	}
}

func TestGuardBindPolicy(t *testing.T) {
	signer := newSigner(t)
	st := mock.NewStorer()
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	putObject(t, st, object.NewIdentity(pub))

	opts := check.Options{
		BindPolicy: func(_ context.Context, author, target mooring.Address) error {
			return errors.New("quota exceeded")
		},
	}
	g := check.NewGuard(st, registry.New(), nil, opts, logging.New(io.Discard, 0))

	b, err := object.NewStaticBinding(mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), signer)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authorize(context.Background(), b); !errors.Is(err, mooring.ErrAuthorization) {
		t.Fatalf("got error %v, want %v", err, mooring.ErrAuthorization)
	}
}

func TestGuardLineageOwnership(t *testing.T) {
	signer := newSigner(t)
	st := mock.NewStorer()
	reg := registry.New()
	pub, err := signer.PublicKey()
	if err != nil {
		t.Fatal(err)
	}
	putObject(t, st, object.NewIdentity(pub))

	g := check.NewGuard(st, reg, nil, check.Options{}, logging.New(io.Discard, 0))

	f, err := object.NewFrame(3, 1, mooring.MustParseHexAddress("aa11223344556677889900aabbccddeeff00112233445566778899aabbccddee"), nil, signer)
	if err != nil {
		t.Fatal(err)
	}
	reg.SetHead(f.Lineage(), registry.Head{
		Frame:   f.Address(),
		Counter: 0,
		Author:  mooring.MustParseHexAddress("dd11223344556677889900aabbccddeeff00112233445566778899aabbccddee"),
	})

	if _, err := g.Authorize(context.Background(), f); !errors.Is(err, mooring.ErrAuthorization) {
		t.Fatalf("got error %v, want %v", err, mooring.ErrAuthorization)
	}
}
