// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package versionregistry implements the per-name version chain of spec §3.4
// and §4.5: registration, replacement-chain back-links, and the
// latest/latest-stable pointers a compiler context resolves constraints
// against.
package versionregistry

import (
	"fmt"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/semver"
)

// VersionedEntity is one registered version of a named function or type.
type VersionedEntity struct {
	Name         string
	Version      semver.Version
	Stability    ast.Stability
	Node         interface{} // *ast.Function or *ast.TypeDef
	Replaces     *semver.Version
	ReplacedBy   *semver.Version
	RollbackSafe bool
}

// chain holds every registered version of one entity name, plus the cached
// latest/latest-stable pointers.
type chain struct {
	versions      map[string]*VersionedEntity // keyed by Version.Key()
	latest        *semver.Version
	latestStable  *semver.Version
}

// Registry is one VersionRegistry instance (spec §3.4 keeps one for
// functions and a separate one for types).
type Registry struct {
	chains map[string]*chain
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{chains: map[string]*chain{}}
}

// Register inserts entity into its name's chain, wiring the replaces/
// replaced_by back-link and updating the latest/latest-stable pointers per
// spec §4.5 steps 3-4. Re-registering the same (name, version) overwrites
// the prior entry.
func (r *Registry) Register(e VersionedEntity) error {
	c, ok := r.chains[e.Name]
	if !ok {
		c = &chain{versions: map[string]*VersionedEntity{}}
		r.chains[e.Name] = c
	}

	key := e.Version.Key()
	stored := e
	c.versions[key] = &stored

	if stored.Replaces != nil {
		if pred, ok := c.versions[stored.Replaces.Key()]; ok {
			v := stored.Version
			pred.ReplacedBy = &v
		}
	}

	if c.latest == nil || semver.Less(*c.latest, stored.Version) {
		v := stored.Version
		c.latest = &v
	}
	if stored.Stability == ast.StabilityStable {
		if c.latestStable == nil || semver.Less(*c.latestStable, stored.Version) {
			v := stored.Version
			c.latestStable = &v
		}
	}
	return nil
}

// Lookup returns the exact version of name registered at v, if any.
func (r *Registry) Lookup(name string, v semver.Version) (*VersionedEntity, bool) {
	c, ok := r.chains[name]
	if !ok {
		return nil, false
	}
	e, ok := c.versions[v.Key()]
	return e, ok
}

// LatestVersion returns the cached maximum-by-ordering version registered
// for name.
func (r *Registry) LatestVersion(name string) (semver.Version, bool) {
	c, ok := r.chains[name]
	if !ok || c.latest == nil {
		return semver.Version{}, false
	}
	return *c.latest, true
}

// LatestStableVersion returns the cached maximum stable version registered
// for name.
func (r *Registry) LatestStableVersion(name string) (semver.Version, bool) {
	c, ok := r.chains[name]
	if !ok || c.latestStable == nil {
		return semver.Version{}, false
	}
	return *c.latestStable, true
}

// Names returns every entity name with at least one registered version, in
// no particular order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.chains))
	for name := range r.chains {
		out = append(out, name)
	}
	return out
}

// All returns every registered version of name, in no particular order.
func (r *Registry) All(name string) []*VersionedEntity {
	c, ok := r.chains[name]
	if !ok {
		return nil
	}
	out := make([]*VersionedEntity, 0, len(c.versions))
	for _, e := range c.versions {
		out = append(out, e)
	}
	return out
}

// Resolve finds the entity matching constraint for name, per spec §4.5:
// `latest`/`stable` return the cached pointer, everything else filters all
// registered versions and returns the maximum by ordering among those that
// satisfy the constraint. Ambiguities resolve to the highest satisfying
// version.
func (r *Registry) Resolve(name string, c semver.Constraint) (*VersionedEntity, error) {
	chainEntry, ok := r.chains[name]
	if !ok {
		return nil, fmt.Errorf("versionregistry: no versions registered for %q", name)
	}

	switch c.Kind {
	case semver.LatestKind:
		if chainEntry.latest == nil {
			return nil, fmt.Errorf("versionregistry: %q has no registered versions", name)
		}
		return chainEntry.versions[chainEntry.latest.Key()], nil
	case semver.StableKind:
		if chainEntry.latestStable == nil {
			return nil, fmt.Errorf("versionregistry: %q has no stable versions", name)
		}
		return chainEntry.versions[chainEntry.latestStable.Key()], nil
	}

	var best *VersionedEntity
	for _, e := range chainEntry.versions {
		if !semver.Satisfies(e.Version, c) {
			continue
		}
		if best == nil || semver.Less(best.Version, e.Version) {
			best = e
		}
	}
	if best == nil {
		return nil, fmt.Errorf("versionregistry: no version of %q satisfies the constraint", name)
	}
	return best, nil
}

// ReplacementChainForward walks replaced_by pointers starting at v,
// inclusive, ending at the latest successor.
func (r *Registry) ReplacementChainForward(name string, v semver.Version) []semver.Version {
	c, ok := r.chains[name]
	if !ok {
		return nil
	}
	var out []semver.Version
	visited := map[string]bool{}
	cur, ok := c.versions[v.Key()]
	for ok && cur != nil && !visited[cur.Version.Key()] {
		visited[cur.Version.Key()] = true
		out = append(out, cur.Version)
		if cur.ReplacedBy == nil {
			break
		}
		cur, ok = c.versions[cur.ReplacedBy.Key()]
	}
	return out
}

// PredecessorChain walks replaces pointers starting at v, inclusive, ending
// at the earliest ancestor.
func (r *Registry) PredecessorChain(name string, v semver.Version) []semver.Version {
	c, ok := r.chains[name]
	if !ok {
		return nil
	}
	var out []semver.Version
	visited := map[string]bool{}
	cur, ok := c.versions[v.Key()]
	for ok && cur != nil && !visited[cur.Version.Key()] {
		visited[cur.Version.Key()] = true
		out = append(out, cur.Version)
		if cur.Replaces == nil {
			break
		}
		cur, ok = c.versions[cur.Replaces.Key()]
	}
	return out
}

// HasMigrationPath reports whether `to` appears on the forward
// (replaced_by) chain starting at `from`, per spec §4.5.
func (r *Registry) HasMigrationPath(name string, from, to semver.Version) bool {
	for _, v := range r.ReplacementChainForward(name, from) {
		if semver.Compare(v, to) == 0 {
			return true
		}
	}
	return false
}
