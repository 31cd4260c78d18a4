// Package importing rebuilds hearings from legacy JSON archives.
//
// The input is a snapshot of the old consultation site:
// {"hearings": {<legacy_id>: <hearing payload>, ...}}. Hearings are
// imported in ascending legacy-id order, each inside its own
// transaction, so one malformed hearing never poisons the batch.
package importing

import (
	"context"
	"crypto/rand"
	"log/slog"
	"os"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/civicvoice/hearing-go/internal/datastore"
	"github.com/civicvoice/hearing-go/internal/datastore/entities"
	"github.com/civicvoice/hearing-go/internal/errors"
	"github.com/civicvoice/hearing-go/internal/logging"
	"github.com/civicvoice/hearing-go/internal/observability"
)

// Importer drives the import of a legacy JSON snapshot.
type Importer struct {
	ds  datastore.Interface
	log *slog.Logger
	// force allows importing over an existing slug by mutating it
	// with a random suffix. Without it colliding hearings are skipped.
	force   bool
	metrics *observability.Metrics
}

// New creates an importer over the given store.
func New(ds datastore.Interface, force bool, metrics *observability.Metrics) *Importer {
	return &Importer{
		ds:      ds,
		log:     logging.ForService("importing"),
		force:   force,
		metrics: metrics,
	}
}

// ImportFile reads a UTF-8 JSON snapshot from disk and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string) (map[string]*entities.Hearing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Component("importing").
			Context("path", path).
			Build()
	}
	root, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImport).
			Component("importing").
			Context("path", path).
			Build()
	}
	return im.ImportData(ctx, root)
}

// ImportData imports all hearings from a parsed snapshot. The returned
// map is keyed by the original legacy hearing key; skipped and failed
// hearings are absent. Per-hearing failures are logged and do not stop
// the batch.
func (im *Importer) ImportData(ctx context.Context, root *jason.Object) (map[string]*entities.Hearing, error) {
	hearingsObj, err := root.GetObject("hearings")
	if err != nil {
		return nil, errors.Newf("snapshot has no hearings object: %w", err).
			Category(errors.CategoryImport).
			Component("importing").
			Build()
	}

	hearings := make(map[string]*entities.Hearing)
	for _, key := range sortedKeys(hearingsObj.Map()) {
		obj, err := hearingsObj.GetObject(key)
		if err != nil {
			im.log.Error("hearing payload is not an object", "legacy_id", key, "error", err)
			im.metrics.HearingsFailed.Inc()
			continue
		}

		im.log.Info("beginning import of hearing", "legacy_id", key)
		var hearing *entities.Hearing
		err = im.ds.Transaction(ctx, func(tx datastore.Interface) error {
			var txErr error
			hearing, txErr = im.importHearing(ctx, tx, obj)
			return txErr
		})
		switch {
		case err != nil:
			im.log.Error("hearing import failed", "legacy_id", key, "error", err)
			im.metrics.HearingsFailed.Inc()
		case hearing == nil:
			im.metrics.HearingsSkipped.Inc()
		default:
			hearings[key] = hearing
			im.metrics.HearingsImported.Inc()
		}
	}
	return hearings, nil
}

// importHearing imports one hearing payload. A nil hearing with nil
// error means the hearing was skipped (strict-mode slug collision).
func (im *Importer) importHearing(ctx context.Context, tx datastore.Interface, obj *jason.Object) (*entities.Hearing, error) {
	p := newPayload(obj)
	p.pop("id")

	slug := p.popString("slug")
	if slug == "" {
		return nil, errors.Newf("hearing payload has no slug").
			Category(errors.CategoryImport).
			Component("importing").
			Build()
	}

	_, err := tx.GetHearing(ctx, slug)
	switch {
	case err == nil:
		if !im.force {
			im.log.Info("hearing already exists, skipping", "slug", slug)
			return nil, nil
		}
		im.log.Info("hearing already exists, importing new entry with mutated slug", "slug", slug)
		slug += "_" + randomString(5)
	case !errors.Is(err, datastore.ErrHearingNotFound):
		return nil, err
	}

	createdAt, err := parseAwareDatetime(p.popString("created_at"))
	if err != nil {
		return nil, err
	}
	modifiedAt, err := parseAwareDatetime(p.popString("updated_at"))
	if err != nil {
		return nil, err
	}
	openAt, err := parseAwareDatetime(p.popString("opens_at"))
	if err != nil {
		return nil, err
	}
	closeAt, err := parseAwareDatetime(p.popString("closes_at"))
	if err != nil {
		return nil, err
	}

	hearing := &entities.Hearing{
		ModifiableBase: entities.ModifiableBase{
			ID:                 slug,
			CreatedAt:          createdAt,
			ModifiedAt:         modifiedAt,
			Published:          p.popString("published") == "true",
			PreserveTimestamps: true,
		},
		OpenAt:  openAt,
		CloseAt: closeAt,
		Title:   p.popString("title"),
	}
	if err := tx.CreateHearing(ctx, hearing); err != nil {
		return nil, err
	}

	intro := &entities.Section{
		ModifiableBase: entities.ModifiableBase{Published: true},
		HearingID:      hearing.ID,
		Type:           entities.SectionTypeIntroduction,
		Title:          "",
		Abstract:       p.popString("lead"),
		Content:        p.popString("body"),
	}
	if err := tx.CreateSection(ctx, intro); err != nil {
		return nil, err
	}

	if err := im.importComments(ctx, tx, hearing.Parent(), p.popObjects("comments")); err != nil {
		return nil, err
	}

	sections := p.popObjects("sections")
	sortObjectsByField(sections, "position")
	for _, sectionObj := range sections {
		if err := im.importSection(ctx, tx, hearing.ID, sectionObj, entities.SectionTypePlain); err != nil {
			return nil, err
		}
	}

	alternatives := p.popObjects("alternatives")
	sortObjectsByField(alternatives, "position")
	for _, altObj := range alternatives {
		if err := im.importSection(ctx, tx, hearing.ID, altObj, entities.SectionTypeScenario); err != nil {
			return nil, err
		}
	}

	// Compact the offset orderings into a dense 1..n sequence:
	// introduction first, plain sections next, scenarios last.
	if err := tx.CompactSectionOrdering(ctx, hearing.ID); err != nil {
		return nil, err
	}

	if leftover := p.leftoverKeys(); len(leftover) > 0 {
		im.log.Warn("unhandled keys in hearing payload",
			"hearing_id", hearing.ID, "keys", strings.Join(leftover, ", "))
	}
	return hearing, nil
}

// importSection imports one plain or scenario section. The ordering
// offset places scenarios (1000) after plain sections (2) regardless
// of source numbering; slot 1 is reserved for the introduction. The
// offsets collapse during compaction.
func (im *Importer) importSection(ctx context.Context, tx datastore.Interface, hearingID string, obj *jason.Object, sectionType entities.SectionType) error {
	offset := 2
	if sectionType == entities.SectionTypeScenario {
		offset = 1000
	}

	p := newPayload(obj)
	createdAt, err := parseAwareDatetime(p.popString("created_at"))
	if err != nil {
		return err
	}
	modifiedAt, err := parseAwareDatetime(p.popString("updated_at"))
	if err != nil {
		return err
	}

	section := &entities.Section{
		ModifiableBase: entities.ModifiableBase{
			CreatedAt:          createdAt,
			ModifiedAt:         modifiedAt,
			Published:          true,
			PreserveTimestamps: true,
		},
		HearingID: hearingID,
		Type:      sectionType,
		Ordering:  p.popInt("position", 1) + offset,
		Title:     p.popString("title"),
		Abstract:  p.popString("lead"),
		Content:   p.popString("body"),
	}
	if err := tx.CreateSection(ctx, section); err != nil {
		return err
	}

	if err := im.importComments(ctx, tx, section.Parent(), p.popObjects("comments")); err != nil {
		return err
	}

	if mainImage := p.pop("main_image"); mainImage != nil {
		if _, err := mainImage.Object(); err == nil {
			// TODO: materialize main_image payloads once the image
			// import policy is decided.
			im.log.Warn("did not know how to import main image for section",
				"section_id", section.ID)
		}
	}
	return nil
}

// importComments imports a commentable's comments deterministically in
// ascending source id order.
func (im *Importer) importComments(ctx context.Context, tx datastore.Interface, parent entities.CommentParent, comments []*jason.Object) error {
	sortObjectsByField(comments, "id")
	for _, obj := range comments {
		if err := im.importComment(ctx, tx, parent, obj); err != nil {
			return err
		}
	}
	return nil
}

// importComment imports one comment. Legacy likes are frozen as
// already-counted votes: no user identities attach because legacy
// likes have no resolvable user.
func (im *Importer) importComment(ctx context.Context, tx datastore.Interface, parent entities.CommentParent, obj *jason.Object) error {
	p := newPayload(obj)

	hidden := p.popString("is_hidden") == "true"

	// The scalar and the list disagree in some archives; trust
	// whichever counts more.
	likeCount := p.popInt("like_count", 0)
	if likes := p.popObjects("likes"); len(likes) > likeCount {
		likeCount = len(likes)
	}

	createdRaw := p.popString("created_at")
	updatedRaw := p.popString("updated_at")
	createdAt, err := parseAwareDatetime(createdRaw)
	if err != nil {
		return err
	}
	modifiedAt := createdAt
	if updatedRaw != "" {
		if modifiedAt, err = parseAwareDatetime(updatedRaw); err != nil {
			return err
		}
	}

	comment := &entities.Comment{
		ModifiableBase: entities.ModifiableBase{
			CreatedAt:          createdAt,
			ModifiedAt:         modifiedAt,
			Published:          !hidden,
			PreserveTimestamps: true,
		},
		Title:        p.popString("title"),
		Content:      strings.TrimSpace(p.popString("lead") + " " + p.popString("body")),
		AuthorName:   p.popString("username"),
		NVotes:       likeCount,
		NLegacyVotes: likeCount,
	}
	comment.SetParent(parent)

	if err := tx.CreateComment(ctx, comment); err != nil {
		return err
	}
	im.metrics.CommentsImported.Inc()
	return nil
}

// sortedKeys returns map keys in ascending legacy-id order, comparing
// numerically when both keys are numeric.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortLegacyIDs(keys)
	return keys
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomString returns n random characters for slug mutation.
func randomString(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = randomAlphabet[int(b)%len(randomAlphabet)]
	}
	return string(buf)
}
