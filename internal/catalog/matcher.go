// Package catalog manages the machine/template/topic catalog: seeding it
// from a YAML file, hot-reloading on file change, and matching templates
// to machines.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ravlen/upkeep/internal/models"
	"github.com/ravlen/upkeep/internal/store"
)

// MachineSignals are the matching signals one machine contributes: its group
// id and any explicitly linked template ids.
type MachineSignals struct {
	GroupID     string
	TemplateIDs []string
}

// MachineLookup resolves a machine id to its matching signals.
type MachineLookup interface {
	MachineSignals(ctx context.Context, id string) (MachineSignals, error)
}

// MatchTemplates filters the template catalog to the subset relevant to the
// selected machines.
//
// With no machines selected the whole catalog is returned. Otherwise the
// normalized group ids and linked template ids of the selected machines are
// collected (lookups run concurrently; a failed lookup is logged and treated
// as no signal for that machine only) and templates matching either signal
// are returned, deduplicated in catalog order. When the selected machines
// carry no signal at all, the whole catalog is returned; when signals exist
// but nothing matches, the result is empty, since falling back to the full
// catalog there would hide a genuine mismatch.
func MatchTemplates(ctx context.Context, machineIDs []string, catalog []models.TaskTemplate, lookup MachineLookup) []models.TaskTemplate {
	if len(machineIDs) == 0 {
		return catalog
	}

	signals := make([]MachineSignals, len(machineIDs))
	var wg sync.WaitGroup
	for i, id := range machineIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sig, err := lookup.MachineSignals(ctx, id)
			if err != nil {
				slog.Warn("catalog: machine lookup failed",
					slog.String("machine_id", id),
					slog.String("error", err.Error()))
				return
			}
			signals[i] = sig
		}(i, id)
	}
	wg.Wait()

	groups := make(map[string]struct{})
	linked := make(map[string]struct{})
	for _, sig := range signals {
		if g := normalizeGroup(sig.GroupID); g != "" {
			groups[g] = struct{}{}
		}
		for _, tid := range sig.TemplateIDs {
			if tid != "" {
				linked[tid] = struct{}{}
			}
		}
	}

	// No filtering signal available at all: nothing to narrow by.
	if len(groups) == 0 && len(linked) == 0 {
		return catalog
	}

	out := []models.TaskTemplate{}
	for _, t := range catalog {
		if _, ok := groups[normalizeGroup(t.GroupID)]; ok {
			out = append(out, t)
			continue
		}
		if _, ok := linked[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// normalizeGroup makes group ids comparable: trimmed and case-insensitive.
func normalizeGroup(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// StoreLookup adapts a store.Store into a MachineLookup.
type StoreLookup struct {
	store store.Store
}

// NewStoreLookup creates a MachineLookup backed by the given store.
func NewStoreLookup(s store.Store) *StoreLookup {
	return &StoreLookup{store: s}
}

// MachineSignals fetches the machine's group id and linked template ids.
func (l *StoreLookup) MachineSignals(_ context.Context, id string) (MachineSignals, error) {
	m, err := l.store.GetMachine(id)
	if err != nil {
		return MachineSignals{}, err
	}
	return MachineSignals{GroupID: m.GroupID, TemplateIDs: m.TemplateIDs}, nil
}
