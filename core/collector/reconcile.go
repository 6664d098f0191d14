package collector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/storage"
)

// Reconcile rebuilds the reference index and registry from the store
// and completes any retraction cascade interrupted by a crash. It must
// run before the engine accepts traffic, over an index and registry
// that are still empty.
func (c *Collector) Reconcile(ctx context.Context) error {
	type frameInfo struct {
		addr    mooring.Address
		author  mooring.Address
		counter uint64
		target  mooring.Address
		history []mooring.Address
	}
	var (
		combined    error
		lineages    = make(map[string][]frameInfo)
		retractions = make(map[string]mooring.Address)
		count       int
	)

	err := c.store.Iterate(ctx, func(item *storage.Item) (bool, error) {
		count++
		o, err := object.Unmarshal(item.Data)
		if err != nil {
			// Stored bytes were validated at accept time; treat decode
			// failure as corruption, skip the item and keep going.
			combined = multierror.Append(combined, fmt.Errorf("reconcile %s: %w", item.Address, err))
			return false, nil
		}
		switch v := o.(type) {
		case *object.StaticBinding:
			c.index.AddEdge(v.Address(), v.Address())
			c.index.AddEdge(v.Target(), v.Address())
		case *object.Frame:
			lineages[v.Lineage().ByteString()] = append(lineages[v.Lineage().ByteString()], frameInfo{
				addr:    v.Address(),
				author:  v.Author(),
				counter: v.Counter(),
				target:  v.Target(),
				history: v.History(),
			})
		case *object.Debinding:
			c.registry.SetDebinding(v.Target(), v.Address())
			retractions[v.Target().ByteString()] = v.Address()
		case *object.Request:
			c.registry.AddRequest(v.Recipient(), v.Address())
		}
		return false, nil
	})
	if err != nil {
		return multierror.Append(combined, err).ErrorOrNil()
	}

	var seeds []mooring.Address

	for lk, frames := range lineages {
		lineage := mooring.NewAddress([]byte(lk))
		sort.Slice(frames, func(i, j int) bool {
			if frames[i].counter != frames[j].counter {
				return frames[i].counter > frames[j].counter
			}
			return frames[i].addr.String() < frames[j].addr.String()
		})
		head := frames[0]

		c.registry.SetHead(lineage, registry.Head{
			Frame:   head.addr,
			Counter: head.counter,
			Author:  head.author,
			History: head.history,
		})
		c.index.AddEdge(lineage, lineage)
		c.index.AddEdge(head.addr, lineage)
		retained := make(map[string]struct{}, len(head.history))
		for _, h := range head.history {
			c.index.AddEdge(h, lineage)
			retained[h.ByteString()] = struct{}{}
		}
		for _, f := range frames {
			c.index.AddEdge(f.target, f.addr)
		}
		// Frames that are neither live nor retained were superseded;
		// an interrupted run may have left them behind.
		for _, f := range frames[1:] {
			if _, ok := retained[f.addr.ByteString()]; !ok {
				seeds = append(seeds, f.addr)
			}
		}
	}

	// Replay retractions against the rebuilt graph.
	for tk, debinding := range retractions {
		target := mooring.NewAddress([]byte(tk))
		item, err := c.store.Get(ctx, target)
		if err != nil {
			// Already collected in a previous run.
			continue
		}
		switch item.Kind {
		case mooring.KindStaticBinding:
			c.index.RemoveEdge(target, target)
		case mooring.KindDynamicFrame:
			o, err := object.Unmarshal(item.Data)
			if err != nil {
				continue
			}
			f, ok := o.(*object.Frame)
			if !ok {
				continue
			}
			lineage := f.Lineage()
			c.index.RemoveEdge(target, lineage)
			if head, ok := c.registry.Head(lineage); ok && head.Frame.Equal(target) {
				c.index.RemoveEdge(lineage, lineage)
				c.registry.DropLineage(lineage)
				c.registry.SetDebinding(lineage, debinding)
				seeds = append(seeds, lineage)
			}
		}
		seeds = append(seeds, target)
	}

	if c.opts.CollectOrphans {
		err := c.store.Iterate(ctx, func(item *storage.Item) (bool, error) {
			if item.Kind == mooring.KindContainer && !c.index.HasHolders(item.Address) {
				seeds = append(seeds, item.Address)
			}
			return false, nil
		})
		if err != nil {
			combined = multierror.Append(combined, err)
		}
	}

	removed, err := c.Collect(ctx, seeds...)
	if err != nil {
		combined = multierror.Append(combined, err)
	}
	c.logger.Infof("collector: reconciled %d stored objects, removed %d", count, len(removed))
	return combined
}
