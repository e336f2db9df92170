// Package dedupe groups catalog records by filename and by content digest,
// classifies each group, and elects one member as parent.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ocat/internal/catalog"
	"ocat/internal/contentid"
	"ocat/internal/logging"
)

// Group is one classified duplicate group.
type Group struct {
	Type    catalog.DuplicateType
	Token   string
	Parent  string
	Members []string
}

// Result summarizes one classification pass.
type Result struct {
	Groups       []Group
	Demoted      int
	Promoted     int
	MissingFiles []string
}

// Classifier walks the full catalog and maintains duplicate state. The pass
// is idempotent: a record whose digest no longer collides is promoted back to
// its natural validation status, so re-running after renames is always safe.
type Classifier struct {
	store  *catalog.Store
	logger *slog.Logger
}

// New builds a Classifier over the catalog store.
func New(store *catalog.Store, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Classifier{store: store, logger: logger}
}

// Classify runs one full classification pass and persists the outcome.
func (c *Classifier) Classify(ctx context.Context) (Result, error) {
	records, err := c.store.ListPrograms(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list catalog records: %w", err)
	}

	var result Result
	eligible := c.ensureDigests(ctx, records, &result)

	assignments := make(map[string]assignment, len(eligible))

	// Same basename first. Identical digests across the whole group mean the
	// files are interchangeable (SOLID); differing digests are a name
	// collision carrying distinct content and must never be auto-merged.
	for _, group := range groupBy(eligible, func(p *catalog.Program) string {
		return strings.ToLower(filepath.Base(p.FilePath))
	}) {
		if len(group.members) < 2 {
			continue
		}
		if uniformDigest(group.members) {
			c.electParent(group.key, catalog.DuplicateSolid, group.members, assignments)
		} else {
			token := groupToken("name-collision", group.key)
			for _, p := range group.members {
				if _, taken := assignments[p.Identifier]; taken {
					continue
				}
				assignments[p.Identifier] = assignment{
					duplicateType: catalog.DuplicateNameCollision,
					group:         token,
				}
			}
		}
	}

	// Then identical content across the entire catalog, regardless of name.
	for _, group := range groupBy(eligible, func(p *catalog.Program) string {
		return p.ContentDigest
	}) {
		if len(group.members) < 2 || !distinctBasenames(group.members) {
			continue
		}
		c.electParent(group.key, catalog.DuplicateContent, group.members, assignments)
	}

	if err := c.apply(ctx, eligible, assignments, &result); err != nil {
		return Result{}, err
	}
	result.Groups = collectGroups(assignments)
	return result, nil
}

type assignment struct {
	duplicateType catalog.DuplicateType
	parent        string
	group         string
	demote        bool
}

// ensureDigests fills missing content digests from disk. Records whose file
// is gone are reported and excluded from grouping rather than guessed at.
func (c *Classifier) ensureDigests(ctx context.Context, records []*catalog.Program, result *Result) []*catalog.Program {
	eligible := make([]*catalog.Program, 0, len(records))
	for _, p := range records {
		if p.FilePath == "" {
			result.MissingFiles = append(result.MissingFiles, p.Identifier)
			continue
		}
		if p.ContentDigest == "" {
			digest, err := contentid.Digest(p.FilePath)
			if err != nil {
				c.logger.Warn("cannot digest program file",
					logging.String("identifier", p.Identifier),
					logging.String("path", p.FilePath),
					logging.Error(err))
				result.MissingFiles = append(result.MissingFiles, p.Identifier)
				continue
			}
			p.ContentDigest = digest
			if err := c.store.UpdateProgram(ctx, p); err != nil {
				c.logger.Warn("cannot persist digest",
					logging.String("identifier", p.Identifier),
					logging.Error(err))
			}
		}
		eligible = append(eligible, p)
	}
	return eligible
}

// electParent sorts the group by health and marks everyone else a child: the
// healthiest validation status wins, then detection confidence, then the
// earliest record. Records already claimed by a prior group keep their first
// assignment.
func (c *Classifier) electParent(key string, groupType catalog.DuplicateType, members []*catalog.Program, assignments map[string]assignment) {
	sorted := make([]*catalog.Program, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if ra, rb := catalog.SeverityRank(a.NaturalStatus()), catalog.SeverityRank(b.NaturalStatus()); ra != rb {
			return ra < rb
		}
		if ca, cb := catalog.ConfidenceRank(a.DetectionConfidence), catalog.ConfidenceRank(b.DetectionConfidence); ca != cb {
			return ca < cb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Identifier < b.Identifier
	})

	parent := sorted[0]
	token := groupToken(string(groupType), key)
	if _, taken := assignments[parent.Identifier]; !taken {
		assignments[parent.Identifier] = assignment{
			duplicateType: groupType,
			group:         token,
		}
	}
	for _, child := range sorted[1:] {
		if _, taken := assignments[child.Identifier]; taken {
			continue
		}
		assignments[child.Identifier] = assignment{
			duplicateType: catalog.DuplicateChild,
			parent:        parent.Identifier,
			group:         token,
			demote:        true,
		}
	}
}

// apply persists each record's new duplicate fields. Records with no
// assignment are restored to a clean, natural state; children are demoted to
// REPEAT with their natural status parked for later promotion.
func (c *Classifier) apply(ctx context.Context, records []*catalog.Program, assignments map[string]assignment, result *Result) error {
	for _, p := range records {
		a := assignments[p.Identifier]

		wantStatus := p.NaturalStatus()
		wantPrior := catalog.ValidationStatus("")
		if a.demote {
			wantPrior = p.NaturalStatus()
			wantStatus = catalog.StatusRepeat
		}

		changed := p.DuplicateType != a.duplicateType ||
			p.ParentFile != a.parent ||
			p.DuplicateGroup != a.group ||
			p.ValidationStatus != wantStatus ||
			p.PriorStatus != wantPrior
		if !changed {
			continue
		}

		if a.demote && p.ValidationStatus != catalog.StatusRepeat {
			result.Demoted++
		}
		if !a.demote && p.ValidationStatus == catalog.StatusRepeat {
			result.Promoted++
		}

		p.DuplicateType = a.duplicateType
		p.ParentFile = a.parent
		p.DuplicateGroup = a.group
		p.ValidationStatus = wantStatus
		p.PriorStatus = wantPrior
		if err := c.store.UpdateProgram(ctx, p); err != nil {
			return fmt.Errorf("persist classification for %s: %w", p.Identifier, err)
		}
	}
	return nil
}

// groupToken derives a stable opaque token from the group key, so repeated
// passes over an unchanged catalog produce identical groupings.
func groupToken(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(kind+"\x00"+key)).String()
}

type grouped struct {
	key     string
	members []*catalog.Program
}

func groupBy(records []*catalog.Program, keyFn func(*catalog.Program) string) []grouped {
	byKey := make(map[string][]*catalog.Program)
	keys := make([]string, 0)
	for _, p := range records {
		key := keyFn(p)
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], p)
	}
	sort.Strings(keys)

	out := make([]grouped, 0, len(keys))
	for _, key := range keys {
		out = append(out, grouped{key: key, members: byKey[key]})
	}
	return out
}

func uniformDigest(members []*catalog.Program) bool {
	first := members[0].ContentDigest
	for _, p := range members[1:] {
		if p.ContentDigest != first {
			return false
		}
	}
	return true
}

func distinctBasenames(members []*catalog.Program) bool {
	seen := make(map[string]struct{}, len(members))
	for _, p := range members {
		seen[strings.ToLower(filepath.Base(p.FilePath))] = struct{}{}
	}
	return len(seen) > 1
}

func collectGroups(assignments map[string]assignment) []Group {
	byToken := make(map[string]*Group)
	for identifier, a := range assignments {
		g, ok := byToken[a.group]
		if !ok {
			g = &Group{Token: a.group}
			byToken[a.group] = g
		}
		g.Members = append(g.Members, identifier)
		if a.duplicateType != catalog.DuplicateChild {
			if a.duplicateType != catalog.DuplicateNameCollision || g.Type == catalog.DuplicateNone {
				g.Type = a.duplicateType
			}
			if a.duplicateType == catalog.DuplicateSolid || a.duplicateType == catalog.DuplicateContent {
				g.Parent = identifier
			}
		}
	}

	out := make([]Group, 0, len(byToken))
	for _, g := range byToken {
		sort.Strings(g.Members)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}
